// Package technical attributes movements to indicator readings.
package technical

import (
	"fmt"

	"github.com/newthinker/compass/internal/core"
	"github.com/newthinker/compass/internal/factor"
	"github.com/newthinker/compass/internal/indicator"
)

const (
	rsiExtremeImpact  = 0.6
	rsiMomentumImpact = 0.3
	macdImpact        = 0.4
)

// Analyzer reads RSI and MACD over the price window.
type Analyzer struct{}

// New creates a technical analyzer
func New() *Analyzer {
	return &Analyzer{}
}

func (a *Analyzer) Type() core.FactorType {
	return core.FactorTechnical
}

func (a *Analyzer) Analyze(in factor.Input) (*core.Factor, error) {
	if len(in.Window) < indicator.MinPoints {
		return nil, nil // Not enough data
	}

	snap, err := indicator.Compute(in.Window.Prices())
	if err != nil {
		return nil, err
	}
	signal := indicator.GenerateSignal(snap)

	var rsiImpact float64
	var rsiDesc string
	if snap.HasRSI {
		switch {
		case snap.RSI > 70:
			rsiImpact = -rsiExtremeImpact
			rsiDesc = "Overbought conditions are triggering profit-taking"
		case snap.RSI < 30:
			rsiImpact = rsiExtremeImpact
			rsiDesc = "Oversold conditions are drawing in dip buyers"
		case snap.RSI > 50:
			rsiImpact = rsiMomentumImpact
			rsiDesc = "Upward momentum is building"
		default:
			rsiImpact = -rsiMomentumImpact
			rsiDesc = "Downward momentum is showing"
		}
	}

	var macdImp float64
	var macdDesc string
	diff := snap.MACDDiff()
	switch {
	case diff > 0 && in.ChangePercent > 0:
		macdImp = macdImpact
		macdDesc = "A MACD buy signal is leading the rise"
	case diff < 0 && in.ChangePercent < 0:
		macdImp = -macdImpact
		macdDesc = "A MACD sell signal is leading the decline"
	}

	desc := "Price is moving with its technical indicators"
	if rsiDesc != "" {
		desc = rsiDesc
	} else if macdDesc != "" {
		desc = macdDesc
	}

	rsiText := "n/a"
	if snap.HasRSI {
		rsiText = fmt.Sprintf("%.1f", snap.RSI)
	}
	reason := fmt.Sprintf("RSI: %s, MACD: %s", rsiText, signal.Action)

	return core.NewFactor(core.FactorTechnical, (rsiImpact+macdImp)/2, signal.Confidence, desc, reason), nil
}
