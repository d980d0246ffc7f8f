// Package attribution explains realized price movements by ranking their
// likely causes.
package attribution

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/newthinker/compass/internal/core"
	"github.com/newthinker/compass/internal/factor"
	"github.com/newthinker/compass/internal/factor/macro"
	"github.com/newthinker/compass/internal/factor/sentiment"
	"github.com/newthinker/compass/internal/factor/structural"
	"github.com/newthinker/compass/internal/factor/technical"
	"github.com/newthinker/compass/internal/feed"
	"go.uber.org/zap"
)

const (
	// Moves smaller than this need no causal story.
	negligibleChange = 1.0

	negligibleConfidence = 0.8
)

// Request describes one movement to explain.
type Request struct {
	Coin          string
	CurrentPrice  float64
	PreviousPrice float64          // price 24h ago
	Window        core.PriceSeries // optional history ending before now
	AsOf          time.Time        // zero means the window's last time
}

// Result is the explanation of a movement.
type Result struct {
	Coin               string            `json:"coin"`
	PriceChangePercent float64           `json:"price_change_percent"`
	MovementType       core.MovementType `json:"movement_type"`
	PrimaryFactors     []core.Factor     `json:"primary_factors"`
	Summary            string            `json:"summary"`
	Recommendation     string            `json:"recommendation"`
	Confidence         float64           `json:"confidence"`
	AsOf               time.Time         `json:"as_of"`
}

// Engine combines the classifier, the analyzer registry and the aggregator.
type Engine struct {
	registry  *factor.Registry
	sentiment feed.SentimentFeed
	macro     feed.MacroFeed
	now       func() time.Time
	logger    *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithRegistry replaces the default analyzer registry.
func WithRegistry(r *factor.Registry) Option {
	return func(e *Engine) { e.registry = r }
}

// WithSentimentFeed sets the sentiment collaborator used by Explain.
func WithSentimentFeed(f feed.SentimentFeed) Option {
	return func(e *Engine) { e.sentiment = f }
}

// WithMacroFeed sets the macro collaborator used by Explain.
func WithMacroFeed(f feed.MacroFeed) Option {
	return func(e *Engine) { e.macro = f }
}

// WithClock sets the clock Explain stamps windowless requests with.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewDefaultRegistry registers the four built-in analyzers.
func NewDefaultRegistry(logger *zap.Logger) *factor.Registry {
	r := factor.NewRegistry(logger)
	r.Register(technical.New())
	r.Register(sentiment.New())
	r.Register(macro.New())
	r.Register(structural.New())
	return r
}

// NewEngine creates an engine with the default registry unless overridden.
func NewEngine(logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	if e.registry == nil {
		e.registry = NewDefaultRegistry(logger)
	}
	return e
}

// Registry returns the analyzer registry.
func (e *Engine) Registry() *factor.Registry {
	return e.registry
}

// Explain fetches auxiliary snapshots from the configured feeds and
// explains the movement. Feed failures degrade to missing factors. A
// request with neither AsOf nor a window is stamped with the clock.
func (e *Engine) Explain(ctx context.Context, req Request) (*Result, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	at := asOf(req)
	if at.IsZero() {
		at = e.now().UTC()
		req.AsOf = at
	}
	var sent *core.SentimentSnapshot
	var mac *core.MacroSnapshot

	if e.sentiment != nil {
		s, err := e.sentiment.Sentiment(ctx, at)
		if err != nil {
			e.logger.Warn("sentiment feed unavailable",
				zap.String("coin", req.Coin),
				zap.Error(err),
			)
		} else {
			sent = s
		}
	}

	if e.macro != nil {
		m, err := e.macro.Macro(ctx, at)
		if err != nil {
			e.logger.Warn("macro feed unavailable",
				zap.String("coin", req.Coin),
				zap.Error(err),
			)
		} else {
			mac = m
		}
	}

	return e.Evaluate(ctx, req, sent, mac)
}

// Evaluate explains a movement from already materialized inputs. It has no
// side effects beyond logging and reads no clock, so identical inputs give
// identical results. Without AsOf or a window, Result.AsOf is zero.
func (e *Engine) Evaluate(ctx context.Context, req Request, sent *core.SentimentSnapshot, mac *core.MacroSnapshot) (*Result, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	change := core.PercentChange(req.CurrentPrice, req.PreviousPrice)
	result := &Result{
		Coin:               req.Coin,
		PriceChangePercent: change,
		AsOf:               asOf(req),
	}

	if math.Abs(change) < negligibleChange {
		result.MovementType = core.MovementStable
		result.PrimaryFactors = []core.Factor{}
		result.Confidence = negligibleConfidence
		result.Summary = Summarize(change, core.MovementStable, nil)
		result.Recommendation = Recommend(core.MovementStable, nil)
		return result, nil
	}

	movement := core.Classify(change)
	factors, err := e.registry.Evaluate(ctx, factor.Input{
		Coin:          req.Coin,
		ChangePercent: change,
		Movement:      movement,
		Window:        req.Window,
		Sentiment:     sent,
		Macro:         mac,
	})
	if err != nil {
		return nil, err
	}

	primary, confidence := Aggregate(factors)

	result.MovementType = movement
	result.PrimaryFactors = primary
	result.Confidence = confidence
	result.Summary = Summarize(change, movement, primary)
	result.Recommendation = Recommend(movement, primary)
	return result, nil
}

func validate(req Request) error {
	for _, p := range []struct {
		name  string
		value float64
	}{
		{"current price", req.CurrentPrice},
		{"previous price", req.PreviousPrice},
	} {
		if p.value <= 0 || math.IsNaN(p.value) || math.IsInf(p.value, 0) {
			return core.WrapError(core.ErrInvalidInput, fmt.Errorf("%s must be positive and finite, got %v", p.name, p.value))
		}
	}
	return req.Window.Validate()
}

func asOf(req Request) time.Time {
	switch {
	case !req.AsOf.IsZero():
		return req.AsOf
	case len(req.Window) > 0:
		return req.Window[len(req.Window)-1].Time
	default:
		return time.Time{}
	}
}
