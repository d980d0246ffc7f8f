// Package structural guesses at market-structure causes from the size of
// the move alone.
package structural

import (
	"fmt"
	"math"

	"github.com/newthinker/compass/internal/core"
	"github.com/newthinker/compass/internal/factor"
)

const orderFlowThreshold = 2.0

// Analyzer never reports absence: a move too small to read yields a
// neutral factor with zero impact.
type Analyzer struct{}

// New creates a structural analyzer
func New() *Analyzer {
	return &Analyzer{}
}

func (a *Analyzer) Type() core.FactorType {
	return core.FactorStructural
}

func (a *Analyzer) Analyze(in factor.Input) (*core.Factor, error) {
	switch {
	case in.Movement.IsBearishExtreme():
		return core.NewFactor(core.FactorStructural, -0.6, 0.7,
			"Heavy selling, liquidations or bad news likely triggered the sharp drop",
			fmt.Sprintf("Sell-off pattern: %s", in.Movement)), nil
	case in.Movement.IsBullishExtreme():
		return core.NewFactor(core.FactorStructural, 0.6, 0.7,
			"Heavy buying, good news or institutional inflows likely triggered the sharp rise",
			fmt.Sprintf("Rally pattern: %s", in.Movement)), nil
	case math.Abs(in.ChangePercent) > orderFlowThreshold && in.ChangePercent > 0:
		return core.NewFactor(core.FactorStructural, 0.3, 0.4,
			"More buy orders than usual pushed the price up",
			"Buy-side dominance"), nil
	case math.Abs(in.ChangePercent) > orderFlowThreshold:
		return core.NewFactor(core.FactorStructural, -0.3, 0.4,
			"More sell orders than usual pushed the price down",
			"Sell-side dominance"), nil
	default:
		return core.NewFactor(core.FactorStructural, 0, 0.3,
			"No clear order-flow imbalance behind the move",
			"Balanced order flow"), nil
	}
}
