package backtest

import (
	"time"

	"github.com/newthinker/compass/internal/core"
)

// Outcome is a percent change and its movement band.
type Outcome struct {
	ChangePercent float64
	Movement      core.MovementType
}

// ValidationRecord is the result of one replay step.
type ValidationRecord struct {
	Time                   time.Time         `json:"time"`
	ActualChangePercent    float64           `json:"actual_change_percent"`
	ActualMovement         core.MovementType `json:"actual_movement"`
	PredictedChangePercent float64           `json:"predicted_change_percent"`
	PredictedMovement      core.MovementType `json:"predicted_movement"`
	Correct                bool              `json:"correct"`
	Confidence             float64           `json:"confidence"`
	Factors                []core.FactorType `json:"factors"`
}

// Report is the immutable outcome of a replay run.
type Report struct {
	ID                   string                        `json:"id"`
	Coin                 string                        `json:"coin"`
	Period               string                        `json:"period"`
	Start                time.Time                     `json:"start"`
	End                  time.Time                     `json:"end"`
	TotalPredictions     int                           `json:"total_predictions"`
	CorrectPredictions   int                           `json:"correct_predictions"`
	SkippedSteps         int                           `json:"skipped_steps"`
	AccuracyRate         float64                       `json:"accuracy_rate"`
	MovementTypeAccuracy map[core.MovementType]float64 `json:"movement_type_accuracy"`
	FactorEffectiveness  map[core.FactorType]float64   `json:"factor_effectiveness"`
	RecentRecords        []ValidationRecord            `json:"recent_records"`
	Summary              string                        `json:"summary"`
	Grade                string                        `json:"grade"`
	Recommendations      []string                      `json:"recommendations"`
	Partial              bool                          `json:"partial"`
	GeneratedAt          time.Time                     `json:"generated_at"`
}

// HasData reports whether any prediction was evaluated.
func (r *Report) HasData() bool {
	return r.TotalPredictions > 0
}
