package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/newthinker/compass/internal/core"
)

const (
	baseURL = "https://api.binance.com"

	pageLimit = 1000
	maxPages  = 20
)

// Binance implements the crypto Provider interface for Binance exchange
type Binance struct {
	client  *http.Client
	baseURL string
}

// New creates a new Binance provider
func New() *Binance {
	return &Binance{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
	}
}

// NewWithBaseURL creates a Binance provider with custom base URL (for testing)
func NewWithBaseURL(url string) *Binance {
	b := New()
	b.baseURL = url
	return b
}

func (b *Binance) Name() string {
	return "binance"
}

func (b *Binance) get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("binance request: %w", err)
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

// FetchQuote fetches the 24h ticker from Binance
func (b *Binance) FetchQuote(ctx context.Context, symbol string) (*core.Quote, error) {
	url := fmt.Sprintf("%s/api/v3/ticker/24hr?symbol=%s", b.baseURL, symbol)

	var result ticker24hr
	if err := b.get(ctx, url, &result); err != nil {
		return nil, err
	}

	price, _ := strconv.ParseFloat(result.LastPrice, 64)
	open, _ := strconv.ParseFloat(result.OpenPrice, 64)
	high, _ := strconv.ParseFloat(result.HighPrice, 64)
	low, _ := strconv.ParseFloat(result.LowPrice, 64)
	prevClose, _ := strconv.ParseFloat(result.PrevClosePrice, 64)
	change, _ := strconv.ParseFloat(result.PriceChange, 64)
	changePercent, _ := strconv.ParseFloat(result.PriceChangePercent, 64)
	volume, _ := strconv.ParseFloat(result.Volume, 64)
	bidPrice, _ := strconv.ParseFloat(result.BidPrice, 64)
	askPrice, _ := strconv.ParseFloat(result.AskPrice, 64)

	return &core.Quote{
		Symbol:        symbol,
		Market:        core.MarketCrypto,
		Price:         price,
		Open:          open,
		High:          high,
		Low:           low,
		PrevClose:     prevClose,
		Change:        change,
		ChangePercent: changePercent,
		Volume:        int64(volume),
		Bid:           bidPrice,
		Ask:           askPrice,
		Time:          time.UnixMilli(result.CloseTime),
		Source:        "binance",
	}, nil
}

// FetchHistory walks klines forward from start, advancing startTime past
// the last bar of each page until end is reached.
func (b *Binance) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error) {
	binanceInterval := b.toInterval(interval)

	var data []core.OHLCV
	cursor := start.UnixMilli()
	for page := 0; page < maxPages && cursor <= end.UnixMilli(); page++ {
		url := fmt.Sprintf("%s/api/v3/klines?symbol=%s&interval=%s&startTime=%d&endTime=%d&limit=%d",
			b.baseURL, symbol, binanceInterval, cursor, end.UnixMilli(), pageLimit)

		var klines [][]any
		if err := b.get(ctx, url, &klines); err != nil {
			return nil, err
		}

		last := int64(-1)
		for _, k := range klines {
			bar, ok := parseKline(symbol, interval, k)
			if !ok {
				continue
			}
			data = append(data, bar)
			last = bar.Time.UnixMilli()
		}

		if len(klines) < pageLimit || last < cursor {
			break
		}
		cursor = last + 1
	}

	return data, nil
}

func parseKline(symbol, interval string, k []any) (core.OHLCV, bool) {
	if len(k) < 6 {
		return core.OHLCV{}, false
	}

	openTime, _ := k[0].(float64)
	openStr, _ := k[1].(string)
	highStr, _ := k[2].(string)
	lowStr, _ := k[3].(string)
	closeStr, _ := k[4].(string)
	volumeStr, _ := k[5].(string)

	open, _ := strconv.ParseFloat(openStr, 64)
	high, _ := strconv.ParseFloat(highStr, 64)
	low, _ := strconv.ParseFloat(lowStr, 64)
	close, _ := strconv.ParseFloat(closeStr, 64)
	volume, _ := strconv.ParseFloat(volumeStr, 64)

	return core.OHLCV{
		Symbol:   symbol,
		Interval: interval,
		Open:     open,
		High:     high,
		Low:      low,
		Close:    close,
		Volume:   int64(volume),
		Time:     time.UnixMilli(int64(openTime)),
	}, true
}

func (b *Binance) toInterval(interval string) string {
	switch interval {
	case "1m", "5m", "15m", "30m":
		return interval
	case "1h", "2h", "4h":
		return interval
	case "1d":
		return "1d"
	case "1w":
		return "1w"
	default:
		return "1d"
	}
}

// Binance API response types
type ticker24hr struct {
	Symbol             string `json:"symbol"`
	PriceChange        string `json:"priceChange"`
	PriceChangePercent string `json:"priceChangePercent"`
	LastPrice          string `json:"lastPrice"`
	OpenPrice          string `json:"openPrice"`
	HighPrice          string `json:"highPrice"`
	LowPrice           string `json:"lowPrice"`
	Volume             string `json:"volume"`
	PrevClosePrice     string `json:"prevClosePrice"`
	BidPrice           string `json:"bidPrice"`
	AskPrice           string `json:"askPrice"`
	CloseTime          int64  `json:"closeTime"`
}
