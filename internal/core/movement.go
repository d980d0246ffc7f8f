package core

// MovementType classifies a percent price change into a severity band.
type MovementType string

const (
	MovementCrash      MovementType = "crash"
	MovementDump       MovementType = "dump"
	MovementNormalDown MovementType = "normal_down"
	MovementStable     MovementType = "stable"
	MovementNormalUp   MovementType = "normal_up"
	MovementPump       MovementType = "pump"
	MovementSurge      MovementType = "surge"
)

// Band thresholds in percent.
const (
	crashThreshold      = -15.0
	dumpThreshold       = -8.0
	normalDownThreshold = -3.0
	normalUpThreshold   = 3.0
	pumpThreshold       = 8.0
	surgeThreshold      = 15.0
)

// MovementTypes lists every band from most bearish to most bullish.
var MovementTypes = []MovementType{
	MovementCrash,
	MovementDump,
	MovementNormalDown,
	MovementStable,
	MovementNormalUp,
	MovementPump,
	MovementSurge,
}

// Classify maps a percent change to its movement band. Downside bands own
// their upper boundary (-15 is a crash), upside bands own their lower
// boundary (15 is a surge). NaN falls through to stable.
func Classify(percentChange float64) MovementType {
	switch {
	case percentChange <= crashThreshold:
		return MovementCrash
	case percentChange <= dumpThreshold:
		return MovementDump
	case percentChange <= normalDownThreshold:
		return MovementNormalDown
	case percentChange >= surgeThreshold:
		return MovementSurge
	case percentChange >= pumpThreshold:
		return MovementPump
	case percentChange >= normalUpThreshold:
		return MovementNormalUp
	default:
		return MovementStable
	}
}

// IsBearishExtreme reports whether m is a crash or dump.
func (m MovementType) IsBearishExtreme() bool {
	return m == MovementCrash || m == MovementDump
}

// IsBullishExtreme reports whether m is a pump or surge.
func (m MovementType) IsBullishExtreme() bool {
	return m == MovementPump || m == MovementSurge
}

// PercentChange returns the percent change from previous to current.
func PercentChange(current, previous float64) float64 {
	return (current - previous) / previous * 100
}
