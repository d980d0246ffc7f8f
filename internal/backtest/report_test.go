package backtest

import (
	"strings"
	"testing"
	"time"

	"github.com/newthinker/compass/internal/core"
)

func TestGrade(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{0.95, "A"}, {0.8, "A"}, {0.79, "B"}, {0.7, "B"}, {0.6, "C"}, {0.5, "D"}, {0.49, "F"}, {0, "F"},
	}
	for _, tt := range tests {
		if got := Grade(tt.rate); got != tt.want {
			t.Errorf("Grade(%v) = %s, want %s", tt.rate, got, tt.want)
		}
	}
}

func TestRecommendations(t *testing.T) {
	weak := &Report{
		TotalPredictions: 10,
		AccuracyRate:     0.3,
		MovementTypeAccuracy: map[core.MovementType]float64{
			core.MovementSurge:  0.1,
			core.MovementStable: 0.6,
		},
		FactorEffectiveness: map[core.FactorType]float64{
			core.FactorTechnical:  0.2,
			core.FactorStructural: 0.7,
		},
		RecentRecords: []ValidationRecord{{Confidence: 0.4}, {Confidence: 0.5}},
	}

	recs := Recommendations(weak)
	if len(recs) != 4 {
		t.Fatalf("expected 4 recommendations, got %v", recs)
	}
	if !strings.Contains(recs[1], "surge") {
		t.Errorf("worst movement not named: %q", recs[1])
	}
	if !strings.Contains(recs[2], "technical") || strings.Contains(recs[2], "structural") {
		t.Errorf("weak factors wrong: %q", recs[2])
	}

	good := &Report{
		TotalPredictions:     10,
		AccuracyRate:         0.9,
		MovementTypeAccuracy: map[core.MovementType]float64{core.MovementStable: 0.9},
		FactorEffectiveness:  map[core.FactorType]float64{core.FactorMacro: 0.9},
		RecentRecords:        []ValidationRecord{{Confidence: 0.8}},
	}
	if recs := Recommendations(good); len(recs) != 1 || !strings.Contains(recs[0], "good") {
		t.Errorf("good report recommendations = %v", recs)
	}
}

func TestRenderText(t *testing.T) {
	r := &Report{
		Coin:                 "bitcoin",
		Period:               "7 days",
		TotalPredictions:     4,
		CorrectPredictions:   3,
		AccuracyRate:         0.75,
		MovementTypeAccuracy: map[core.MovementType]float64{core.MovementPump: 1, core.MovementCrash: 0.5},
		FactorEffectiveness:  map[core.FactorType]float64{core.FactorSentiment: 0.75},
		Grade:                "B",
		Recommendations:      []string{"Performance is good. Keep monitoring."},
		GeneratedAt:          time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	r.Summary = summarize(r)

	text := RenderText(r)
	for _, want := range []string{
		"Coin: BITCOIN",
		"Overall accuracy: 75.0%",
		"Grade: B",
		"- crash: 50.0%",
		"- sentiment: 75.0%",
		"1. Performance is good",
		"Strong: the attribution shows high accuracy.",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("report missing %q:\n%s", want, text)
		}
	}

	// Movement types render bearish first.
	if strings.Index(text, "- crash") > strings.Index(text, "- pump") {
		t.Error("movement types out of order")
	}
}
