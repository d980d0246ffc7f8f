package macro

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/compass/internal/core"
	"github.com/newthinker/compass/internal/feed"
	macrofactor "github.com/newthinker/compass/internal/factor/macro"
)

var (
	_ feed.MacroFeed    = (*YahooFeed)(nil)
	_ feed.MacroHistory = (*YahooFeed)(nil)
)

type stubCollector struct {
	closes map[string][]float64
	failed map[string]bool
	start  time.Time
}

func (s *stubCollector) Name() string                    { return "stub" }
func (s *stubCollector) SupportedMarkets() []core.Market { return []core.Market{core.MarketIndex} }
func (s *stubCollector) FetchQuote(ctx context.Context, symbol string) (*core.Quote, error) {
	return nil, errors.New("not implemented")
}
func (s *stubCollector) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error) {
	if s.failed[symbol] {
		return nil, errors.New("upstream down")
	}
	var bars []core.OHLCV
	for i, c := range s.closes[symbol] {
		ts := s.start.Add(time.Duration(i) * 24 * time.Hour)
		if ts.Before(start) || ts.After(end) {
			continue
		}
		bars = append(bars, core.OHLCV{Symbol: symbol, Close: c, Time: ts})
	}
	return bars, nil
}

func TestSignals(t *testing.T) {
	tests := []struct {
		name    string
		changes map[string]float64
		want    map[string]float64
	}{
		{"empty", map[string]float64{}, map[string]float64{}},
		{"nasdaq rally", map[string]float64{NASDAQ: 2.5}, map[string]float64{macrofactor.SignalTechMomentum: 0.7}},
		{"nasdaq selloff", map[string]float64{NASDAQ: -3}, map[string]float64{macrofactor.SignalTechMomentum: -0.7}},
		{"nasdaq flat at boundary", map[string]float64{NASDAQ: 2}, map[string]float64{macrofactor.SignalTechMomentum: 0}},
		{
			"others scale by 100",
			map[string]float64{DXY: 1, VIX: -50, GOLD: 4},
			map[string]float64{
				macrofactor.SignalDollarInverse:  -0.01,
				macrofactor.SignalRiskSentiment:  0.5,
				macrofactor.SignalAlternativeAUM: 0.04,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Signals(tt.changes)
			require.Len(t, got, len(tt.want))
			for k, v := range tt.want {
				assert.InDelta(t, v, got[k], 1e-9, k)
			}
		})
	}
}

func TestYahooFeed_Macro(t *testing.T) {
	start := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	src := &stubCollector{
		start: start,
		closes: map[string][]float64{
			"^IXIC": {100, 103},
			"^VIX":  {20, 30},
		},
		failed: map[string]bool{"GC=F": true},
	}
	f := New(src, nil, nil, nil)

	snap, err := f.Macro(context.Background(), start.Add(48*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0.7, snap.Signals[macrofactor.SignalTechMomentum])
	assert.InDelta(t, -0.5, snap.Signals[macrofactor.SignalRiskSentiment], 1e-9)
	assert.NotContains(t, snap.Signals, macrofactor.SignalAlternativeAUM)
	assert.NotContains(t, snap.Signals, macrofactor.SignalDollarInverse)
}

func TestYahooFeed_MacroAllFail(t *testing.T) {
	src := &stubCollector{failed: map[string]bool{"^IXIC": true}}
	f := New(src, map[string]string{NASDAQ: "^IXIC"}, nil, nil)

	_, err := f.Macro(context.Background(), time.Now())
	assert.ErrorIs(t, err, core.ErrFeedUnavailable)
}

func TestYahooFeed_MacroHistory(t *testing.T) {
	start := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	day := 24 * time.Hour
	src := &stubCollector{
		start: start,
		closes: map[string][]float64{
			"^IXIC": {100, 103, 100, 101},
			"GC=F":  {2000, 2000, 2100},
		},
	}
	f := New(src, map[string]string{NASDAQ: "^IXIC", GOLD: "GC=F"}, nil, nil)

	history, err := f.MacroHistory(context.Background(), start.Add(day), start.Add(3*day))
	require.NoError(t, err)
	// The day-3 close is only known at day 4, after the period ends.
	require.Len(t, history, 2)

	tl := feed.NewMacroTimeline(history)
	assert.Nil(t, tl.At(start.Add(day+12*time.Hour)))

	d2 := tl.At(start.Add(2*day + time.Hour))
	require.NotNil(t, d2)
	assert.Equal(t, 0.7, d2.Signals[macrofactor.SignalTechMomentum])
	assert.InDelta(t, 0, d2.Signals[macrofactor.SignalAlternativeAUM], 1e-9)

	d3 := tl.At(start.Add(3 * day))
	require.NotNil(t, d3)
	assert.Equal(t, -0.7, d3.Signals[macrofactor.SignalTechMomentum])
	assert.InDelta(t, 0.05, d3.Signals[macrofactor.SignalAlternativeAUM], 1e-9)
}

func TestYahooFeed_MacroHistoryWaitsForClose(t *testing.T) {
	// Bars stamped at the session open, like Yahoo's daily index bars.
	open := time.Date(2024, 3, 4, 13, 30, 0, 0, time.UTC)
	src := &stubCollector{
		start:  open,
		closes: map[string][]float64{"^IXIC": {100, 95}},
	}
	f := New(src, map[string]string{NASDAQ: "^IXIC"}, nil, nil)

	end := time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)
	history, err := f.MacroHistory(context.Background(), open, end)
	require.NoError(t, err)
	require.Len(t, history, 1)

	closeKnown := time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, closeKnown, history[0].Time)

	tl := feed.NewMacroTimeline(history)
	assert.Nil(t, tl.At(time.Date(2024, 3, 5, 15, 0, 0, 0, time.UTC)), "intraday step saw the unfinished session")

	snap := tl.At(closeKnown)
	require.NotNil(t, snap)
	assert.Equal(t, -0.7, snap.Signals[macrofactor.SignalTechMomentum])
}

func TestYahooFeed_MacroExcludesOpenSession(t *testing.T) {
	open := time.Date(2024, 3, 4, 13, 30, 0, 0, time.UTC)
	src := &stubCollector{
		start:  open,
		closes: map[string][]float64{"^IXIC": {100, 103, 95}},
	}
	f := New(src, map[string]string{NASDAQ: "^IXIC"}, nil, nil)

	// 03-06 intraday: the 03-05 move (+3%) is known, the 03-06 one is not.
	snap, err := f.Macro(context.Background(), time.Date(2024, 3, 6, 15, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 0.7, snap.Signals[macrofactor.SignalTechMomentum])
}

func TestCloseKnownAt(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	tests := []struct {
		name string
		bar  time.Time
		want time.Time
	}{
		{"utc open", time.Date(2024, 3, 5, 13, 30, 0, 0, time.UTC), time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)},
		{"midnight bar", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)},
		{"local zone", time.Date(2024, 3, 5, 9, 30, 0, 0, est), time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)},
		{"month end", time.Date(2024, 2, 29, 14, 30, 0, 0, time.UTC), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, closeKnownAt(tt.bar))
		})
	}
}
