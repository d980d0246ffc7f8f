package attribution

import (
	"math"
	"sort"

	"github.com/newthinker/compass/internal/core"
)

const (
	// MaxPrimaryFactors bounds the ranked factor list.
	MaxPrimaryFactors = 3

	// DefaultConfidence applies when no retained factor has impact.
	DefaultConfidence = 0.5
)

// Aggregate ranks factors by |impact| x confidence, keeps the top three and
// returns them with an impact-weighted mean of their confidences. Ties keep
// input order. Zero-impact factors are ranked but carry no weight.
func Aggregate(factors []core.Factor) ([]core.Factor, float64) {
	ranked := make([]core.Factor, len(factors))
	copy(ranked, factors)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Weight() > ranked[j].Weight()
	})
	if len(ranked) > MaxPrimaryFactors {
		ranked = ranked[:MaxPrimaryFactors]
	}

	var weighted, weights float64
	for _, f := range ranked {
		w := math.Abs(f.Impact)
		if w == 0 {
			continue
		}
		weighted += f.Confidence * w
		weights += w
	}

	if weights == 0 {
		return ranked, DefaultConfidence
	}
	return ranked, core.Clamp(weighted/weights, 0, 1)
}
