package core

import "math"

// FactorType identifies the family of a causal explanation.
type FactorType string

const (
	FactorTechnical  FactorType = "technical"
	FactorSentiment  FactorType = "sentiment"
	FactorMacro      FactorType = "macro"
	FactorStructural FactorType = "structural"
)

// Factor is a single causal explanation for a price movement.
type Factor struct {
	Type            FactorType `json:"factor_type"`
	Impact          float64    `json:"impact_score"` // -1 (bearish) to 1 (bullish)
	Confidence      float64    `json:"confidence"`   // 0 to 1
	Description     string     `json:"description"`
	TechnicalReason string     `json:"technical_reason"`
}

// NewFactor builds a factor with impact clamped to [-1, 1] and confidence
// clamped to [0, 1].
func NewFactor(t FactorType, impact, confidence float64, description, reason string) *Factor {
	return &Factor{
		Type:            t,
		Impact:          Clamp(impact, -1, 1),
		Confidence:      Clamp(confidence, 0, 1),
		Description:     description,
		TechnicalReason: reason,
	}
}

// Weight is the ranking key: |impact| x confidence.
func (f Factor) Weight() float64 {
	return math.Abs(f.Impact) * f.Confidence
}

// Clamp bounds v to [lo, hi]. NaN is treated as zero.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		v = 0
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
