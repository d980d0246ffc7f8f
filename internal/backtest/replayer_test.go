package backtest

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/compass/internal/attribution"
	"github.com/newthinker/compass/internal/core"
	"github.com/newthinker/compass/internal/feed"
)

var start = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

func hourly(prices []float64) core.PriceSeries {
	s := make(core.PriceSeries, len(prices))
	for i, p := range prices {
		s[i] = core.PricePoint{Time: start.Add(time.Duration(i) * time.Hour), Price: p}
	}
	return s
}

// recordingEngine wraps a real engine and checks the no-lookahead bound.
type recordingEngine struct {
	inner   *attribution.Engine
	series  core.PriceSeries
	calls   int
	failAt  map[int]bool
	cancel  context.CancelFunc
	stopAt  int
	t       *testing.T
	lastEnd time.Time
	macros  int
}

func (r *recordingEngine) Evaluate(ctx context.Context, req attribution.Request, sent *core.SentimentSnapshot, mac *core.MacroSnapshot) (*attribution.Result, error) {
	r.calls++
	if r.cancel != nil && r.calls == r.stopAt {
		r.cancel()
	}

	end := req.Window[len(req.Window)-1].Time
	stepTime := r.series[MinHistory+r.calls-1].Time
	if !end.Before(stepTime) {
		r.t.Errorf("window ends at %v, not before step %v", end, stepTime)
	}
	for _, p := range req.Window {
		if !p.Time.Before(stepTime) {
			r.t.Errorf("window contains %v at or after step %v", p.Time, stepTime)
		}
	}
	if !r.lastEnd.IsZero() && !end.After(r.lastEnd) {
		r.t.Errorf("windows not advancing: %v after %v", end, r.lastEnd)
	}
	r.lastEnd = end
	if len(req.Window) > WindowSize {
		r.t.Errorf("window too long: %d", len(req.Window))
	}
	if sent != nil && sent.Time.After(end) {
		r.t.Errorf("sentiment snapshot from the future: %v > %v", sent.Time, end)
	}
	if mac != nil {
		r.macros++
		if mac.Time.After(end) {
			r.t.Errorf("macro snapshot from the future: %v > %v", mac.Time, end)
		}
	}

	if r.failAt[r.calls] {
		return nil, core.ErrFeedUnavailable
	}
	return r.inner.Evaluate(ctx, req, sent, mac)
}

func wave(n int) []float64 {
	prices := make([]float64, n)
	for i := range prices {
		prices[i] = 100 * (1 + 0.2*math.Sin(float64(i)/6))
	}
	return prices
}

func TestReplayer_InsufficientHistory(t *testing.T) {
	r := NewReplayer(attribution.NewEngine(nil), Config{}, nil)

	_, err := r.Run(context.Background(), Input{Coin: "btc", Series: hourly(wave(MinHistory - 1))})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrInsufficientHistory))
	assert.Equal(t, PhaseInit, r.Phase())
}

func TestReplayer_ExactMinimumHasNoData(t *testing.T) {
	r := NewReplayer(attribution.NewEngine(nil), Config{}, nil)

	report, err := r.Run(context.Background(), Input{Coin: "btc", Series: hourly(wave(MinHistory))})
	require.NoError(t, err)
	assert.False(t, report.HasData())
	assert.Equal(t, 0.0, report.AccuracyRate)
	assert.Equal(t, GradeNone, report.Grade)
	assert.Empty(t, report.MovementTypeAccuracy)
	assert.Equal(t, PhaseDone, r.Phase())
}

func TestReplayer_Run(t *testing.T) {
	series := hourly(wave(120))
	sentiment := feed.NewSentimentTimeline([]core.SentimentSnapshot{
		{Time: start, FearGreed: 80},
		{Time: start.Add(48 * time.Hour), FearGreed: 20},
	})
	macro := feed.NewMacroTimeline([]core.MacroSnapshot{
		{Time: start.Add(24 * time.Hour), Signals: map[string]float64{"risk_sentiment": 0.8}},
		{Time: start.Add(72 * time.Hour), Signals: map[string]float64{"risk_sentiment": -0.8}},
	})

	eng := &recordingEngine{inner: attribution.NewEngine(nil), series: series, failAt: map[int]bool{5: true}, t: t}

	var progress []int
	r := NewReplayer(eng, Config{Progress: func(done, total int) { progress = append(progress, done) }}, nil)

	report, err := r.Run(context.Background(), Input{Coin: "btc", Period: "5 days", Series: series, Sentiment: sentiment, Macro: macro})
	require.NoError(t, err)

	steps := len(series) - MinHistory
	assert.Equal(t, steps, eng.calls)
	// Windows ending before hour 24 have no macro snapshot yet.
	assert.Equal(t, len(series)-(24+1), eng.macros)
	assert.Equal(t, steps-1, report.TotalPredictions)
	assert.Equal(t, 1, report.SkippedSteps)
	assert.False(t, report.Partial)
	assert.Len(t, report.RecentRecords, DefaultRecentRecords)
	assert.Len(t, progress, steps-1)
	assert.NotEmpty(t, report.ID)
	assert.Equal(t, series[0].Time, report.Start)
	assert.Equal(t, series[len(series)-1].Time, report.End)

	// accuracy sentinel
	assert.InDelta(t, float64(report.CorrectPredictions)/float64(report.TotalPredictions), report.AccuracyRate, 1e-12)

	// Records are in time order and the last one is the final step.
	recs := report.RecentRecords
	for i := 1; i < len(recs); i++ {
		assert.True(t, recs[i].Time.After(recs[i-1].Time))
	}
	assert.Equal(t, series[len(series)-1].Time, recs[len(recs)-1].Time)

	// Every map key was actually observed.
	var total int
	for m := range report.MovementTypeAccuracy {
		assert.Contains(t, core.MovementTypes, m)
	}
	for _, rec := range recs {
		total++
		assert.Contains(t, report.MovementTypeAccuracy, rec.ActualMovement)
		for _, ft := range rec.Factors {
			assert.Contains(t, report.FactorEffectiveness, ft)
		}
	}
	assert.NotZero(t, total)
	assert.Contains(t, report.Summary, "BTC price movement validation")
}

func TestReplayer_CancelReturnsPartial(t *testing.T) {
	series := hourly(wave(100))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng := &recordingEngine{inner: attribution.NewEngine(nil), series: series, cancel: cancel, stopAt: 10, t: t}
	r := NewReplayer(eng, Config{}, nil)

	report, err := r.Run(ctx, Input{Coin: "btc", Series: series})
	require.NoError(t, err)
	assert.True(t, report.Partial)
	assert.Less(t, report.TotalPredictions, len(series)-MinHistory)
	assert.LessOrEqual(t, report.TotalPredictions, 10)
	assert.Equal(t, PhaseDone, r.Phase())
}

func TestReplayer_Deterministic(t *testing.T) {
	series := hourly(wave(80))
	run := func() *Report {
		r := NewReplayer(attribution.NewEngine(nil), Config{}, nil)
		report, err := r.Run(context.Background(), Input{Coin: "eth", Series: series})
		require.NoError(t, err)
		return report
	}

	a, b := run(), run()
	assert.Equal(t, a.TotalPredictions, b.TotalPredictions)
	assert.Equal(t, a.CorrectPredictions, b.CorrectPredictions)
	assert.Equal(t, a.MovementTypeAccuracy, b.MovementTypeAccuracy)
	assert.Equal(t, a.RecentRecords, b.RecentRecords)
	assert.NotEqual(t, a.ID, b.ID)
}
