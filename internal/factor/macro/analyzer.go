// Package macro attributes movements to cross-asset correlation signals.
package macro

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/newthinker/compass/internal/core"
	"github.com/newthinker/compass/internal/factor"
)

// Signal names produced by the macro feed.
const (
	SignalTechMomentum   = "tech_stock_momentum"
	SignalDollarInverse  = "dollar_inverse_correlation"
	SignalRiskSentiment  = "risk_sentiment"
	SignalAlternativeAUM = "alternative_asset_flow"
)

const (
	baseConfidence   = 0.5
	strongBonus      = 0.2
	strongMagnitude  = 0.3
	minImpact        = 0.1
	maxDescriptions  = 2
	impactMultiplier = 2.0
)

// descriptions maps a signal name to its bullish and bearish wording.
var descriptions = map[string][2]string{
	SignalTechMomentum: {
		"Strong tech stocks are lifting appetite for risk assets",
		"Weak tech stocks are pushing investors away from risk assets",
	},
	SignalDollarInverse: {
		"A weaker dollar makes crypto more attractive as an alternative",
		"A stronger dollar makes crypto relatively less attractive",
	},
	SignalRiskSentiment: {
		"Falling volatility is easing market anxiety and drawing money into risk",
		"Rising volatility is pushing money toward safe havens",
	},
	SignalAlternativeAUM: {
		"Money is flowing into alternative assets",
		"Money is flowing out of alternative assets",
	},
}

// Fixed order in which strong signals are described.
var describeOrder = []string{
	SignalTechMomentum,
	SignalDollarInverse,
	SignalRiskSentiment,
	SignalAlternativeAUM,
}

// Analyzer turns macro correlation signals into a factor.
type Analyzer struct{}

// New creates a macro analyzer
func New() *Analyzer {
	return &Analyzer{}
}

func (a *Analyzer) Type() core.FactorType {
	return core.FactorMacro
}

func (a *Analyzer) Analyze(in factor.Input) (*core.Factor, error) {
	if in.Macro == nil || len(in.Macro.Signals) == 0 {
		return nil, nil
	}

	// Sum in key order so the mean is bit-for-bit reproducible.
	keys := make([]string, 0, len(in.Macro.Signals))
	for k := range in.Macro.Signals {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sum float64
	var n int
	clamped := make(map[string]float64, len(keys))
	for _, k := range keys {
		v := in.Macro.Signals[k]
		if math.IsNaN(v) {
			continue
		}
		v = core.Clamp(v, -1, 1)
		clamped[k] = v
		sum += v
		n++
	}
	if n == 0 {
		return nil, nil
	}

	mean := sum / float64(n)
	impact := core.Clamp(impactMultiplier*mean, -1, 1)
	if math.Abs(impact) <= minImpact {
		return nil, nil
	}

	confidence := baseConfidence
	for _, v := range clamped {
		if math.Abs(v) > strongMagnitude {
			confidence += strongBonus
		}
	}

	var parts []string
	for _, k := range describeOrder {
		v, ok := clamped[k]
		if !ok || math.Abs(v) <= strongMagnitude {
			continue
		}
		if v > 0 {
			parts = append(parts, descriptions[k][0])
		} else {
			parts = append(parts, descriptions[k][1])
		}
		if len(parts) == maxDescriptions {
			break
		}
	}

	desc := strings.Join(parts, ". Also, ")
	if desc == "" {
		if impact > 0 {
			desc = "The overall macro environment has turned favourable for crypto"
		} else {
			desc = "The overall macro environment has turned unfavourable for crypto"
		}
	}

	return core.NewFactor(core.FactorMacro, impact, confidence, desc,
		fmt.Sprintf("Macro signal: %+.2f", mean)), nil
}
