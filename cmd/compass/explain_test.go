package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/newthinker/compass/internal/attribution"
	"github.com/newthinker/compass/internal/core"
	"github.com/newthinker/compass/internal/storage/explanation"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintExplanation(t *testing.T) {
	entry := &explanation.Entry{
		Result: attribution.Result{
			Coin:               "btc",
			PriceChangePercent: -9.25,
			MovementType:       core.MovementDump,
			PrimaryFactors: []core.Factor{
				{Type: core.FactorSentiment, Impact: -0.7, Confidence: 0.8, Description: "Extreme fear", TechnicalReason: "Fear & Greed index: 12"},
			},
			Summary:        "BTC fell sharply",
			Recommendation: "Wait for stabilization",
			Confidence:     0.8,
			AsOf:           time.Date(2026, 2, 3, 4, 5, 0, 0, time.UTC),
		},
		Narrative: "Fear drove the selloff.",
	}

	var buf bytes.Buffer
	printExplanation(&buf, entry)
	out := buf.String()

	assert.Contains(t, out, "=== BTC: -9.25% (dump) ===")
	assert.Contains(t, out, "1. [sentiment] Extreme fear (impact -0.70, confidence 0.80)")
	assert.Contains(t, out, "Fear & Greed index: 12")
	assert.Contains(t, out, "Recommendation: Wait for stabilization")
	assert.Contains(t, out, "Fear drove the selloff.")
}

func TestPrintExplanation_NoFactors(t *testing.T) {
	var buf bytes.Buffer
	printExplanation(&buf, &explanation.Entry{Result: attribution.Result{Coin: "eth", MovementType: core.MovementStable, Summary: "flat"}})

	assert.NotContains(t, buf.String(), "Factors:")
	assert.Contains(t, buf.String(), "Summary: flat")
}

func TestExplainRequest_PriceFlags(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	tests := []struct {
		name         string
		args         []string
		wantCurrent  *float64
		wantPrevious *float64
	}{
		{"unset", nil, nil, nil},
		{"both", []string{"--current", "50000", "--previous", "42000"}, f(50000), f(42000)},
		{"explicit zero", []string{"--current", "50000", "--previous", "0"}, f(50000), f(0)},
		{"current only", []string{"--current", "50000"}, f(50000), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &cobra.Command{}
			cmd.Flags().Float64Var(&explainCurrent, "current", 0, "")
			cmd.Flags().Float64Var(&explainPrevious, "previous", 0, "")
			require.NoError(t, cmd.Flags().Parse(tt.args))

			req := explainRequest(cmd, "btc")
			assert.Equal(t, "btc", req.Coin)
			assert.Equal(t, tt.wantCurrent, req.CurrentPrice)
			assert.Equal(t, tt.wantPrevious, req.PreviousPrice)
		})
	}
}
