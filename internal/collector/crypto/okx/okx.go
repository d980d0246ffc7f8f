package okx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/newthinker/compass/internal/collector/crypto/pair"
	"github.com/newthinker/compass/internal/core"
)

const (
	baseURL = "https://www.okx.com"

	// pageLimit is the most candles OKX returns per request.
	pageLimit = 300
	maxPages  = 50
)

// OKX implements the crypto Provider interface for OKX exchange
type OKX struct {
	client  *http.Client
	baseURL string
}

// New creates a new OKX provider
func New() *OKX {
	return &OKX{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
	}
}

// NewWithBaseURL creates an OKX provider with custom base URL (for testing)
func NewWithBaseURL(url string) *OKX {
	o := New()
	o.baseURL = url
	return o
}

func (o *OKX) Name() string {
	return "okx"
}

// toInstID converts normalized symbol to OKX instrument ID
// BTCUSDT -> BTC-USDT
func (o *OKX) toInstID(symbol string) string {
	base, quote := pair.Parse(symbol)
	return base + "-" + quote
}

func (o *OKX) get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("okx request: %w", err)
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

// FetchQuote fetches real-time quote from OKX
func (o *OKX) FetchQuote(ctx context.Context, symbol string) (*core.Quote, error) {
	url := fmt.Sprintf("%s/api/v5/market/ticker?instId=%s", o.baseURL, o.toInstID(symbol))

	var result okxTickerResponse
	if err := o.get(ctx, url, &result); err != nil {
		return nil, err
	}
	if result.Code != "0" || len(result.Data) == 0 {
		return nil, fmt.Errorf("okx error: %s", result.Msg)
	}

	data := result.Data[0]
	price, _ := strconv.ParseFloat(data.Last, 64)
	open, _ := strconv.ParseFloat(data.Open24h, 64)
	high, _ := strconv.ParseFloat(data.High24h, 64)
	low, _ := strconv.ParseFloat(data.Low24h, 64)
	volume, _ := strconv.ParseFloat(data.Vol24h, 64)
	bidPrice, _ := strconv.ParseFloat(data.BidPx, 64)
	askPrice, _ := strconv.ParseFloat(data.AskPx, 64)
	ts, _ := strconv.ParseInt(data.Ts, 10, 64)

	change := price - open
	changePercent := 0.0
	if open > 0 {
		changePercent = (change / open) * 100
	}

	return &core.Quote{
		Symbol:        symbol,
		Market:        core.MarketCrypto,
		Price:         price,
		Open:          open,
		High:          high,
		Low:           low,
		PrevClose:     open,
		Change:        change,
		ChangePercent: changePercent,
		Volume:        int64(volume),
		Bid:           bidPrice,
		Ask:           askPrice,
		Time:          time.UnixMilli(ts),
		Source:        "okx",
	}, nil
}

// FetchHistory pages backwards from end using the "after" cursor until
// start is reached. OKX returns newest first; the result is oldest first.
func (o *OKX) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error) {
	instID := o.toInstID(symbol)
	granularity := o.toInterval(interval)

	var data []core.OHLCV
	cursor := end.UnixMilli() + 1
	for page := 0; page < maxPages; page++ {
		url := fmt.Sprintf("%s/api/v5/market/candles?instId=%s&bar=%s&after=%d&limit=%d",
			o.baseURL, instID, granularity, cursor, pageLimit)

		var result okxCandleResponse
		if err := o.get(ctx, url, &result); err != nil {
			return nil, err
		}
		if result.Code != "0" {
			return nil, fmt.Errorf("okx error: %s", result.Msg)
		}
		if len(result.Data) == 0 {
			break
		}

		oldest := cursor
		for _, candle := range result.Data {
			bar, ok := parseCandle(symbol, interval, candle)
			if !ok {
				continue
			}
			ms := bar.Time.UnixMilli()
			if ms < oldest {
				oldest = ms
			}
			if bar.Time.Before(start) || bar.Time.After(end) {
				continue
			}
			data = append(data, bar)
		}

		if oldest >= cursor || oldest <= start.UnixMilli() || len(result.Data) < pageLimit {
			break
		}
		cursor = oldest
	}

	sort.Slice(data, func(i, j int) bool { return data[i].Time.Before(data[j].Time) })
	return data, nil
}

func parseCandle(symbol, interval string, candle []string) (core.OHLCV, bool) {
	if len(candle) < 6 {
		return core.OHLCV{}, false
	}
	ts, err := strconv.ParseInt(candle[0], 10, 64)
	if err != nil {
		return core.OHLCV{}, false
	}
	openPrice, _ := strconv.ParseFloat(candle[1], 64)
	high, _ := strconv.ParseFloat(candle[2], 64)
	low, _ := strconv.ParseFloat(candle[3], 64)
	closePrice, _ := strconv.ParseFloat(candle[4], 64)
	volume, _ := strconv.ParseFloat(candle[5], 64)

	return core.OHLCV{
		Symbol:   symbol,
		Interval: interval,
		Open:     openPrice,
		High:     high,
		Low:      low,
		Close:    closePrice,
		Volume:   int64(volume),
		Time:     time.UnixMilli(ts),
	}, true
}

func (o *OKX) toInterval(interval string) string {
	switch interval {
	case "1m", "5m", "15m", "30m":
		return interval
	case "1h":
		return "1H"
	case "2h":
		return "2H"
	case "4h":
		return "4H"
	case "1d":
		return "1D"
	case "1w":
		return "1W"
	default:
		return "1D"
	}
}

// OKX API response types
type okxTickerResponse struct {
	Code string      `json:"code"`
	Msg  string      `json:"msg"`
	Data []okxTicker `json:"data"`
}

type okxTicker struct {
	InstId  string `json:"instId"`
	Last    string `json:"last"`
	Open24h string `json:"open24h"`
	High24h string `json:"high24h"`
	Low24h  string `json:"low24h"`
	Vol24h  string `json:"vol24h"`
	BidPx   string `json:"bidPx"`
	AskPx   string `json:"askPx"`
	Ts      string `json:"ts"`
}

type okxCandleResponse struct {
	Code string     `json:"code"`
	Msg  string     `json:"msg"`
	Data [][]string `json:"data"`
}
