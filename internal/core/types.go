package core

import (
	"fmt"
	"math"
	"time"
)

// Market represents a trading market
type Market string

const (
	MarketCrypto Market = "CRYPTO"
	MarketUS     Market = "US"
	MarketIndex  Market = "INDEX"
)

// Quote represents a real-time price quote
type Quote struct {
	Symbol        string
	Market        Market
	Price         float64
	Open          float64
	High          float64
	Low           float64
	PrevClose     float64
	Change        float64
	ChangePercent float64
	Volume        int64
	Bid           float64
	Ask           float64
	Time          time.Time
	Source        string
}

// IsValid checks if the quote has required fields
func (q Quote) IsValid() bool {
	return q.Symbol != "" && q.Price > 0
}

// OHLCV represents a candlestick/bar
type OHLCV struct {
	Symbol   string
	Interval string // "1h", "1d"
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   int64
	Time     time.Time
}

// PricePoint is a single observation of a price series.
type PricePoint struct {
	Time  time.Time `json:"time"`
	Price float64   `json:"price"`
}

// PriceSeries is an ordered sequence of price points. Callers own the
// backing array; nothing in this module writes to it.
type PriceSeries []PricePoint

// SeriesFromOHLCV builds a close-price series from bars.
func SeriesFromOHLCV(bars []OHLCV) PriceSeries {
	series := make(PriceSeries, 0, len(bars))
	for _, b := range bars {
		series = append(series, PricePoint{Time: b.Time, Price: b.Close})
	}
	return series
}

// Prices returns a copy of the price values.
func (s PriceSeries) Prices() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Price
	}
	return out
}

// Validate checks timestamps are strictly increasing and prices are
// positive and finite.
func (s PriceSeries) Validate() error {
	for i, p := range s {
		if p.Price <= 0 || math.IsNaN(p.Price) || math.IsInf(p.Price, 0) {
			return WrapError(ErrInvalidInput, fmt.Errorf("price at index %d is %v", i, p.Price))
		}
		if i > 0 && !p.Time.After(s[i-1].Time) {
			return WrapError(ErrInvalidInput, fmt.Errorf("timestamp at index %d is not after index %d", i, i-1))
		}
	}
	return nil
}

// SentimentSnapshot is the market sentiment observed at a point in time.
type SentimentSnapshot struct {
	Time      time.Time `json:"time"`
	FearGreed float64   `json:"fear_greed"`       // 0 (extreme fear) to 100 (extreme greed)
	Social    *float64  `json:"social,omitempty"` // -1 to 1, nil when unavailable
}

// MacroSnapshot holds named crypto correlation signals, each in [-1, 1].
type MacroSnapshot struct {
	Time    time.Time          `json:"time"`
	Signals map[string]float64 `json:"signals"`
}
