package factor

import (
	"context"
	"sync"

	"github.com/newthinker/compass/internal/core"
	"go.uber.org/zap"
)

// Registry holds analyzers in registration order and runs them against an
// input. Results always come back in registration order, whether analyzers
// ran sequentially or concurrently.
type Registry struct {
	mu        sync.RWMutex
	analyzers []Analyzer
	parallel  bool
	observe   func(core.FactorType, Outcome)
	logger    *zap.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(logger ...*zap.Logger) *Registry {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	return &Registry{logger: l}
}

// Register appends an analyzer. An analyzer of an already registered type
// replaces the earlier one in place.
func (r *Registry) Register(a Analyzer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.analyzers {
		if existing.Type() == a.Type() {
			r.analyzers[i] = a
			return
		}
	}
	r.analyzers = append(r.analyzers, a)
}

// SetParallel toggles concurrent analyzer evaluation.
func (r *Registry) SetParallel(parallel bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parallel = parallel
}

// OnOutcome installs a hook called once per analyzer run. In parallel
// mode fn is called from multiple goroutines.
func (r *Registry) OnOutcome(fn func(core.FactorType, Outcome)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observe = fn
}

// Analyzers returns the registered analyzers in order.
func (r *Registry) Analyzers() []Analyzer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Analyzer, len(r.analyzers))
	copy(result, r.analyzers)
	return result
}

// Evaluate runs every analyzer and returns the factors that were present.
// Analyzer errors are logged and treated as absent.
func (r *Registry) Evaluate(ctx context.Context, in Input) ([]core.Factor, error) {
	r.mu.RLock()
	analyzers := make([]Analyzer, len(r.analyzers))
	copy(analyzers, r.analyzers)
	parallel := r.parallel
	observe := r.observe
	r.mu.RUnlock()

	results := make([]*core.Factor, len(analyzers))

	if parallel {
		var wg sync.WaitGroup
		for i, a := range analyzers {
			wg.Add(1)
			go func(i int, a Analyzer) {
				defer wg.Done()
				results[i] = r.run(a, in, observe)
			}(i, a)
		}
		wg.Wait()
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	} else {
		for i, a := range analyzers {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
			results[i] = r.run(a, in, observe)
		}
	}

	factors := make([]core.Factor, 0, len(results))
	for _, f := range results {
		if f != nil {
			factors = append(factors, *f)
		}
	}
	return factors, nil
}

func (r *Registry) run(a Analyzer, in Input, observe func(core.FactorType, Outcome)) *core.Factor {
	f, err := a.Analyze(in)

	outcome := OutcomePresent
	switch {
	case err != nil:
		outcome = OutcomeError
		r.logger.Warn("factor analysis failed",
			zap.String("factor", string(a.Type())),
			zap.String("coin", in.Coin),
			zap.Error(err),
		)
		f = nil
	case f == nil:
		outcome = OutcomeAbsent
	default:
		// Re-clamp in case an analyzer built the factor by hand.
		f = core.NewFactor(a.Type(), f.Impact, f.Confidence, f.Description, f.TechnicalReason)
	}

	if observe != nil {
		observe(a.Type(), outcome)
	}
	return f
}
