package crypto

import (
	"context"
	"fmt"
	"time"

	"github.com/newthinker/compass/internal/collector/crypto/binance"
	"github.com/newthinker/compass/internal/collector/crypto/coingecko"
	"github.com/newthinker/compass/internal/collector/crypto/okx"
	"github.com/newthinker/compass/internal/collector/crypto/pair"
	"github.com/newthinker/compass/internal/core"
)

const defaultQuote = "USDT"

// Config selects and orders the providers.
type Config struct {
	Providers       []string // "okx", "coingecko", "binance"
	DefaultQuote    string
	CoinGeckoAPIKey string
}

// CryptoCollector fetches crypto data, falling back across providers in order.
type CryptoCollector struct {
	providers    []Provider
	defaultQuote string
}

// New creates a CryptoCollector with default providers.
// Provider order: OKX first, then CoinGecko, then Binance
func New() *CryptoCollector {
	return NewWithProviders([]Provider{
		okx.New(),
		coingecko.New(""),
		binance.New(),
	}, defaultQuote)
}

// NewFromConfig builds the provider chain from configuration. Unknown
// provider names are rejected.
func NewFromConfig(cfg Config) (*CryptoCollector, error) {
	if len(cfg.Providers) == 0 {
		c := New()
		if cfg.DefaultQuote != "" {
			c.defaultQuote = cfg.DefaultQuote
		}
		return c, nil
	}

	providers := make([]Provider, 0, len(cfg.Providers))
	for _, name := range cfg.Providers {
		switch name {
		case "binance":
			providers = append(providers, binance.New())
		case "coingecko":
			providers = append(providers, coingecko.New(cfg.CoinGeckoAPIKey))
		case "okx":
			providers = append(providers, okx.New())
		default:
			return nil, fmt.Errorf("unknown crypto provider: %s", name)
		}
	}
	return NewWithProviders(providers, cfg.DefaultQuote), nil
}

// NewWithProviders creates a CryptoCollector with custom providers
func NewWithProviders(providers []Provider, quote string) *CryptoCollector {
	if quote == "" {
		quote = defaultQuote
	}
	return &CryptoCollector{
		providers:    providers,
		defaultQuote: quote,
	}
}

func (c *CryptoCollector) Name() string {
	return "crypto"
}

func (c *CryptoCollector) SupportedMarkets() []core.Market {
	return []core.Market{core.MarketCrypto}
}

// ProviderNames lists the fallback chain in order.
func (c *CryptoCollector) ProviderNames() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

// FetchQuote fetches real-time quote with automatic fallback
func (c *CryptoCollector) FetchQuote(ctx context.Context, symbol string) (*core.Quote, error) {
	if err := pair.Validate(symbol); err != nil {
		return nil, core.WrapError(core.ErrInvalidInput, err)
	}
	normalized := pair.Normalize(symbol, c.defaultQuote)

	var lastErr error
	for _, p := range c.providers {
		quote, err := p.FetchQuote(ctx, normalized)
		if err == nil {
			quote.Symbol = normalized
			quote.Source = "crypto:" + p.Name()
			return quote, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}

	return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("all providers failed for %s: %w", normalized, lastErr))
}

// FetchHistory fetches historical OHLCV data with automatic fallback
func (c *CryptoCollector) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error) {
	if err := pair.Validate(symbol); err != nil {
		return nil, core.WrapError(core.ErrInvalidInput, err)
	}
	normalized := pair.Normalize(symbol, c.defaultQuote)

	var lastErr error
	for _, p := range c.providers {
		data, err := p.FetchHistory(ctx, normalized, start, end, interval)
		if err == nil && len(data) > 0 {
			for i := range data {
				data[i].Symbol = normalized
			}
			return data, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err != nil {
			lastErr = err
		}
	}

	if lastErr != nil {
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("all providers failed for %s: %w", normalized, lastErr))
	}
	return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no data available for %s", normalized))
}
