// Package sentiment attributes movements to crowd psychology.
package sentiment

import (
	"fmt"

	"github.com/newthinker/compass/internal/core"
	"github.com/newthinker/compass/internal/factor"
)

const (
	extremeConfidence = 0.8
	mildConfidence    = 0.6

	socialThreshold = 0.2
)

// Analyzer reads the fear & greed index and optional social sentiment.
type Analyzer struct{}

// New creates a sentiment analyzer
func New() *Analyzer {
	return &Analyzer{}
}

func (a *Analyzer) Type() core.FactorType {
	return core.FactorSentiment
}

func (a *Analyzer) Analyze(in factor.Input) (*core.Factor, error) {
	if in.Sentiment == nil {
		return nil, nil
	}

	idx := in.Sentiment.FearGreed
	up := in.ChangePercent > 0

	var impact, confidence float64
	var desc string

	switch {
	case idx > 75:
		confidence = extremeConfidence
		if up {
			impact, desc = 0.7, "Extreme greed is fuelling FOMO buying"
		} else {
			impact, desc = -0.8, "Sudden profit-taking is unwinding an extremely greedy market"
		}
	case idx < 25:
		confidence = extremeConfidence
		if up {
			impact, desc = 0.8, "Bold bottom-fishing is coming in despite extreme fear"
		} else {
			impact, desc = -0.7, "Extreme fear is driving panic selling"
		}
	case idx > 60:
		confidence = mildConfidence
		desc = "Greedy sentiment is supporting a bullish mood"
		if up {
			impact = 0.4
		} else {
			impact = -0.3
		}
	case idx < 40:
		confidence = mildConfidence
		desc = "Fearful sentiment is keeping the market bearish"
		if up {
			impact = 0.3
		} else {
			impact = -0.4
		}
	default:
		return nil, nil // Neutral sentiment
	}

	if s := in.Sentiment.Social; s != nil {
		switch {
		case *s > socialThreshold:
			desc += "; social media reaction is largely positive"
		case *s < -socialThreshold:
			desc += "; social media reaction is largely negative"
		}
	}

	return core.NewFactor(core.FactorSentiment, impact, confidence, desc,
		fmt.Sprintf("Fear & Greed index: %.0f", idx)), nil
}
