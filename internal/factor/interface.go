package factor

import "github.com/newthinker/compass/internal/core"

// Input is the context an analyzer sees for one explanation.
type Input struct {
	Coin          string
	ChangePercent float64
	Movement      core.MovementType
	Window        core.PriceSeries
	Sentiment     *core.SentimentSnapshot
	Macro         *core.MacroSnapshot
}

// Analyzer attributes a price movement to one family of causes.
// Returning (nil, nil) means the analyzer found no sufficient signal.
type Analyzer interface {
	Type() core.FactorType
	Analyze(in Input) (*core.Factor, error)
}

// Outcome labels the result of a single analyzer run.
type Outcome string

const (
	OutcomePresent Outcome = "present"
	OutcomeAbsent  Outcome = "absent"
	OutcomeError   Outcome = "error"
)
