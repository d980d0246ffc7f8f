package attribution

import (
	"fmt"
	"math"
	"strings"

	"github.com/newthinker/compass/internal/core"
)

// Primary impact beyond this marks a strong move in the normal bands.
const strongImpact = 0.5

// Summarize renders a movement and its top factors as readable text.
func Summarize(change float64, movement core.MovementType, factors []core.Factor) string {
	var b strings.Builder
	b.WriteString(headline(change, movement))

	if len(factors) > 0 {
		b.WriteString("\n\nPrimary driver: ")
		b.WriteString(factors[0].Description)
	}
	if len(factors) > 1 {
		b.WriteString("\n\nAdditional factor: ")
		b.WriteString(factors[1].Description)
	}
	return b.String()
}

func headline(change float64, movement core.MovementType) string {
	mag := math.Abs(change)
	switch movement {
	case core.MovementCrash:
		return fmt.Sprintf("Fell sharply by %.1f%%", mag)
	case core.MovementDump:
		return fmt.Sprintf("Dropped heavily by %.1f%%", mag)
	case core.MovementNormalDown:
		return fmt.Sprintf("Declined %.1f%%", mag)
	case core.MovementNormalUp:
		return fmt.Sprintf("Rose %.1f%%", mag)
	case core.MovementPump:
		return fmt.Sprintf("Rallied strongly by %.1f%%", mag)
	case core.MovementSurge:
		return fmt.Sprintf("Surged %.1f%%", mag)
	case core.MovementStable:
		return "Price is stable"
	default:
		return fmt.Sprintf("Moved %+.1f%%", change)
	}
}

// Recommend maps a movement and its dominant factor to advice. The normal
// bands split on the signed impact of the primary factor.
func Recommend(movement core.MovementType, factors []core.Factor) string {
	var primary float64
	if len(factors) > 0 {
		primary = factors[0].Impact
	}

	switch movement {
	case core.MovementCrash, core.MovementDump:
		return "Sharp sell-off. Avoid panic selling; wait for the market to settle before acting."
	case core.MovementPump, core.MovementSurge:
		return "Sharp rally. Rather than FOMO buying, wait for a pullback."
	case core.MovementNormalUp:
		if primary > strongImpact {
			return "Upward momentum is strong. Consider the potential for further gains."
		}
		return "A moderate rise. Consider taking profit when your target is reached."
	case core.MovementNormalDown:
		if primary < -strongImpact {
			return "Downward momentum is strong. Consider a stop-loss or stay on the sidelines."
		}
		return "This may be a temporary correction. Judge it from a long-term perspective."
	default:
		return "Watch the market and wait for an opportunity."
	}
}
