package core

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestQuote_IsValid(t *testing.T) {
	q := Quote{
		Symbol: "BTC",
		Market: MarketCrypto,
		Price:  42000.5,
		Volume: 1000000,
		Time:   time.Now(),
	}

	if !q.IsValid() {
		t.Error("expected valid quote")
	}

	invalid := Quote{Symbol: "", Price: 0}
	if invalid.IsValid() {
		t.Error("expected invalid quote")
	}
}

func TestMarket_Constants(t *testing.T) {
	markets := []Market{MarketCrypto, MarketUS, MarketIndex}
	expected := []string{"CRYPTO", "US", "INDEX"}

	for i, m := range markets {
		if string(m) != expected[i] {
			t.Errorf("expected %s, got %s", expected[i], m)
		}
	}
}

func TestSeriesFromOHLCV(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := []OHLCV{
		{Symbol: "BTC", Close: 100, Time: base},
		{Symbol: "BTC", Close: 101, Time: base.Add(time.Hour)},
	}

	series := SeriesFromOHLCV(bars)
	if len(series) != 2 {
		t.Fatalf("len = %d, want 2", len(series))
	}
	if series[1].Price != 101 || !series[1].Time.Equal(base.Add(time.Hour)) {
		t.Errorf("series[1] = %+v", series[1])
	}
}

func TestPriceSeries_Prices(t *testing.T) {
	series := PriceSeries{{Price: 1}, {Price: 2}}
	prices := series.Prices()
	prices[0] = 99

	if series[0].Price != 1 {
		t.Error("Prices must return a copy")
	}
}

func TestPriceSeries_Validate(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		series  PriceSeries
		wantErr bool
	}{
		{"empty", PriceSeries{}, false},
		{"valid", PriceSeries{{base, 1}, {base.Add(time.Hour), 2}}, false},
		{"zero price", PriceSeries{{base, 0}}, true},
		{"negative price", PriceSeries{{base, -1}}, true},
		{"nan price", PriceSeries{{base, math.NaN()}}, true},
		{"inf price", PriceSeries{{base, math.Inf(1)}}, true},
		{"duplicate time", PriceSeries{{base, 1}, {base, 2}}, true},
		{"out of order", PriceSeries{{base.Add(time.Hour), 1}, {base, 2}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.series.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}
