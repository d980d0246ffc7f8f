package crypto

import (
	"context"
	"time"

	"github.com/newthinker/compass/internal/core"
)

// Provider defines the interface for cryptocurrency data sources
type Provider interface {
	// Name returns the provider identifier (e.g., "binance", "coingecko")
	Name() string

	// FetchQuote fetches real-time quote for a normalized pair (e.g., "BTCUSDT")
	FetchQuote(ctx context.Context, symbol string) (*core.Quote, error)

	// FetchHistory fetches bars in [start, end], oldest first.
	// interval: "1m", "5m", "15m", "1h", "4h", "1d"
	FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error)
}
