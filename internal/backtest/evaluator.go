package backtest

import "math"

// DefaultTolerance is the accepted error in percentage points between the
// actual and predicted change.
const DefaultTolerance = 2.0

// Evaluate reports whether a prediction was correct: the direction must
// match (zero is its own direction), and either the movement bands match
// or the change error is within tol.
func Evaluate(actual, predicted Outcome, tol float64) bool {
	if direction(actual.ChangePercent) != direction(predicted.ChangePercent) {
		return false
	}
	if actual.Movement == predicted.Movement {
		return true
	}
	return math.Abs(actual.ChangePercent-predicted.ChangePercent) <= tol
}

func direction(x float64) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}
