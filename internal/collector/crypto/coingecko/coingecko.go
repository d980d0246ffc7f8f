package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/newthinker/compass/internal/collector/crypto/pair"
	"github.com/newthinker/compass/internal/core"
)

const (
	baseURL = "https://api.coingecko.com/api/v3"
)

// CoinGecko implements the crypto Provider interface
type CoinGecko struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// New creates a new CoinGecko provider
func New(apiKey string) *CoinGecko {
	return &CoinGecko{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// NewWithBaseURL creates a CoinGecko provider with custom base URL (for testing)
func NewWithBaseURL(apiKey, url string) *CoinGecko {
	c := New(apiKey)
	c.baseURL = url
	return c
}

func (c *CoinGecko) Name() string {
	return "coingecko"
}

// symbolToVsCurrency extracts the quote currency for CoinGecko API
func (c *CoinGecko) symbolToVsCurrency(symbol string) string {
	_, quote := pair.Parse(symbol)
	switch quote {
	case "USDT", "USDC", "BUSD", "USD":
		return "usd"
	case "BTC":
		return "btc"
	case "ETH":
		return "eth"
	default:
		return "usd"
	}
}

func (c *CoinGecko) get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("coingecko request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// FetchQuote fetches real-time quote from CoinGecko
func (c *CoinGecko) FetchQuote(ctx context.Context, symbol string) (*core.Quote, error) {
	coinID := pair.CoinID(symbol)
	vsCurrency := c.symbolToVsCurrency(symbol)

	url := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=%s&include_24hr_vol=true&include_24hr_change=true&include_last_updated_at=true",
		c.baseURL, coinID, vsCurrency)

	var result map[string]map[string]float64
	if err := c.get(ctx, url, &result); err != nil {
		return nil, err
	}

	coinData, ok := result[coinID]
	if !ok {
		return nil, fmt.Errorf("no data for coin: %s", coinID)
	}

	price := coinData[vsCurrency]
	changePercent := coinData[vsCurrency+"_24h_change"]
	prevClose := 0.0
	if changePercent > -100 {
		prevClose = price / (1 + changePercent/100)
	}

	return &core.Quote{
		Symbol:        symbol,
		Market:        core.MarketCrypto,
		Price:         price,
		PrevClose:     prevClose,
		Change:        price - prevClose,
		Volume:        int64(coinData[vsCurrency+"_24h_vol"]),
		ChangePercent: changePercent,
		Time:          time.Unix(int64(coinData["last_updated_at"]), 0),
		Source:        "coingecko",
	}, nil
}

// FetchHistory fetches the price curve for [start, end] from the
// market_chart/range endpoint. CoinGecko picks the granularity from the
// range length (hourly up to 90 days), so interval only labels the bars.
// Only closes are available; Open/High/Low mirror the close.
func (c *CoinGecko) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error) {
	url := fmt.Sprintf("%s/coins/%s/market_chart/range?vs_currency=%s&from=%d&to=%d",
		c.baseURL, pair.CoinID(symbol), c.symbolToVsCurrency(symbol), start.Unix(), end.Unix())

	var result marketChart
	if err := c.get(ctx, url, &result); err != nil {
		return nil, err
	}

	volumes := make(map[int64]float64, len(result.TotalVolumes))
	for _, v := range result.TotalVolumes {
		if len(v) == 2 {
			volumes[int64(v[0])] = v[1]
		}
	}

	data := make([]core.OHLCV, 0, len(result.Prices))
	for _, p := range result.Prices {
		if len(p) < 2 {
			continue
		}
		ms := int64(p[0])
		data = append(data, core.OHLCV{
			Symbol:   symbol,
			Interval: interval,
			Open:     p[1],
			High:     p[1],
			Low:      p[1],
			Close:    p[1],
			Volume:   int64(volumes[ms]),
			Time:     time.UnixMilli(ms),
		})
	}

	return data, nil
}

// [[ms, value], ...]
type marketChart struct {
	Prices       [][]float64 `json:"prices"`
	TotalVolumes [][]float64 `json:"total_volumes"`
}
