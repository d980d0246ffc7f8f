package backtest

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/compass/internal/attribution"
	"github.com/newthinker/compass/internal/core"
	"github.com/newthinker/compass/internal/feed"
	"go.uber.org/zap"
)

const (
	// MinHistory is the lag between a step and its reference price, and
	// the fewest points a run accepts.
	MinHistory = 24

	// WindowSize bounds the look-back window handed to the engine.
	WindowSize = 47

	// DefaultRecentRecords is how many trailing records a report keeps.
	DefaultRecentRecords = 10
)

// Phase is the lifecycle state of a replay run.
type Phase int32

const (
	PhaseInit Phase = iota
	PhaseStepping
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "init"
	case PhaseStepping:
		return "stepping"
	case PhaseDone:
		return "done"
	default:
		return fmt.Sprintf("phase(%d)", int32(p))
	}
}

// Explainer evaluates a movement from materialized inputs.
type Explainer interface {
	Evaluate(ctx context.Context, req attribution.Request, sent *core.SentimentSnapshot, mac *core.MacroSnapshot) (*attribution.Result, error)
}

// Input is everything a run needs, fetched up front.
type Input struct {
	Coin      string
	Period    string
	Series    core.PriceSeries
	Sentiment *feed.SentimentTimeline
	Macro     *feed.MacroTimeline
}

// Config tunes a replayer.
type Config struct {
	Tolerance     float64
	RecentRecords int
	Progress      func(done, total int)
}

// Replayer walks a price series forward, explaining each step's look-back
// window and scoring the explanation against what actually happened.
// A Replayer drives one run at a time.
type Replayer struct {
	engine Explainer
	cfg    Config
	phase  atomic.Int32
	logger *zap.Logger
}

// NewReplayer creates a replayer with defaults filled in.
func NewReplayer(engine Explainer, cfg Config, logger *zap.Logger) *Replayer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = DefaultTolerance
	}
	if cfg.RecentRecords <= 0 {
		cfg.RecentRecords = DefaultRecentRecords
	}
	return &Replayer{
		engine: engine,
		cfg:    cfg,
		logger: logger,
	}
}

// Phase returns the state of the current or last run.
func (r *Replayer) Phase() Phase {
	return Phase(r.phase.Load())
}

// Run replays the series. Fewer than MinHistory points fails with
// ErrInsufficientHistory. A cancelled context stops the run and returns a
// partial report built from the steps completed so far.
func (r *Replayer) Run(ctx context.Context, in Input) (*Report, error) {
	r.phase.Store(int32(PhaseInit))

	if len(in.Series) < MinHistory {
		return nil, core.WrapError(core.ErrInsufficientHistory,
			fmt.Errorf("%s: need %d points, got %d", in.Coin, MinHistory, len(in.Series)))
	}
	if err := in.Series.Validate(); err != nil {
		return nil, err
	}

	r.phase.Store(int32(PhaseStepping))

	stats := NewStats()
	var records []ValidationRecord
	var skipped int
	partial := false
	total := len(in.Series) - MinHistory

	for t := MinHistory; t < len(in.Series); t++ {
		select {
		case <-ctx.Done():
			partial = true
		default:
		}
		if partial {
			break
		}

		rec, err := r.step(ctx, in, t)
		if err != nil {
			if ctx.Err() != nil {
				partial = true
				break
			}
			skipped++
			r.logger.Warn("replay step skipped",
				zap.String("coin", in.Coin),
				zap.Time("time", in.Series[t].Time),
				zap.Error(err),
			)
			continue
		}

		records = append(records, rec)
		stats.Add(rec)

		if r.cfg.Progress != nil {
			r.cfg.Progress(t-MinHistory+1, total)
		}
	}

	r.phase.Store(int32(PhaseDone))

	report := r.buildReport(in, stats, records, skipped, partial)

	r.logger.Info("replay finished",
		zap.String("coin", in.Coin),
		zap.Int("predictions", report.TotalPredictions),
		zap.Int("skipped", skipped),
		zap.Float64("accuracy", report.AccuracyRate),
		zap.Bool("partial", partial),
	)
	return report, nil
}

// step evaluates index t using only points strictly before it.
func (r *Replayer) step(ctx context.Context, in Input, t int) (ValidationRecord, error) {
	series := in.Series

	actual := Outcome{ChangePercent: core.PercentChange(series[t].Price, series[t-MinHistory].Price)}
	actual.Movement = core.Classify(actual.ChangePercent)

	lo := t - WindowSize
	if lo < 0 {
		lo = 0
	}
	window := series[lo:t]
	last := window[len(window)-1]
	ref := window[0]
	if len(window) > MinHistory {
		ref = window[len(window)-1-MinHistory]
	}

	res, err := r.engine.Evaluate(ctx, attribution.Request{
		Coin:          in.Coin,
		CurrentPrice:  last.Price,
		PreviousPrice: ref.Price,
		Window:        window,
		AsOf:          last.Time,
	}, in.Sentiment.At(last.Time), in.Macro.At(last.Time))
	if err != nil {
		return ValidationRecord{}, err
	}

	predicted := Outcome{ChangePercent: res.PriceChangePercent, Movement: res.MovementType}

	factors := make([]core.FactorType, 0, len(res.PrimaryFactors))
	for _, f := range res.PrimaryFactors {
		factors = append(factors, f.Type)
	}

	return ValidationRecord{
		Time:                   series[t].Time,
		ActualChangePercent:    actual.ChangePercent,
		ActualMovement:         actual.Movement,
		PredictedChangePercent: predicted.ChangePercent,
		PredictedMovement:      predicted.Movement,
		Correct:                Evaluate(actual, predicted, r.cfg.Tolerance),
		Confidence:             res.Confidence,
		Factors:                factors,
	}, nil
}

func (r *Replayer) buildReport(in Input, stats *Stats, records []ValidationRecord, skipped int, partial bool) *Report {
	recent := records
	if len(recent) > r.cfg.RecentRecords {
		recent = recent[len(recent)-r.cfg.RecentRecords:]
	}
	recentCopy := make([]ValidationRecord, len(recent))
	copy(recentCopy, recent)

	report := &Report{
		ID:                   uuid.NewString(),
		Coin:                 in.Coin,
		Period:               in.Period,
		Start:                in.Series[0].Time,
		End:                  in.Series[len(in.Series)-1].Time,
		TotalPredictions:     stats.Total(),
		CorrectPredictions:   stats.Correct(),
		SkippedSteps:         skipped,
		AccuracyRate:         stats.AccuracyRate(),
		MovementTypeAccuracy: stats.MovementAccuracy(),
		FactorEffectiveness:  stats.FactorEffectiveness(),
		RecentRecords:        recentCopy,
		Partial:              partial,
		GeneratedAt:          time.Now().UTC(),
	}

	report.Grade = GradeNone
	if report.HasData() {
		report.Grade = Grade(report.AccuracyRate)
	}
	report.Recommendations = Recommendations(report)
	report.Summary = summarize(report)
	return report
}
