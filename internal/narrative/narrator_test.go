package narrative

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/newthinker/compass/internal/attribution"
	"github.com/newthinker/compass/internal/backtest"
	"github.com/newthinker/compass/internal/core"
	"github.com/newthinker/compass/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLLMProvider struct {
	response string
	err      error
	calls    int
	lastReq  llm.ChatRequest
}

func (m *mockLLMProvider) Name() string { return "mock" }

func (m *mockLLMProvider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	m.calls++
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &llm.ChatResponse{Content: m.response}, nil
}

func dumpResult() *attribution.Result {
	return &attribution.Result{
		Coin:               "BTC",
		PriceChangePercent: -9.5,
		MovementType:       core.MovementDump,
		PrimaryFactors: []core.Factor{
			{Type: core.FactorTechnical, Impact: -0.8, Confidence: 0.7, Description: "Oversold conditions", TechnicalReason: "RSI 22"},
			{Type: core.FactorSentiment, Impact: -0.6, Confidence: 0.6, Description: "Extreme fear"},
		},
		Summary:    "BTC dumped 9.50%",
		Confidence: 0.65,
		AsOf:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestNarrator_JSONResponse(t *testing.T) {
	provider := &mockLLMProvider{response: `{"narrative": "Selling accelerated as fear spread.", "outlook": "Bearish"}`}
	n := New(provider, Config{}, nil)

	out, err := n.Narrate(context.Background(), Request{Result: dumpResult()})
	require.NoError(t, err)

	assert.Equal(t, "Selling accelerated as fear spread.", out.Text)
	assert.Equal(t, OutlookBearish, out.Outlook)
	assert.True(t, provider.lastReq.JSONMode)
	assert.Equal(t, 0.3, provider.lastReq.Temperature)
	assert.Contains(t, provider.lastReq.Messages[0].Content, "RSI 22")
}

func TestNarrator_FencedJSON(t *testing.T) {
	provider := &mockLLMProvider{response: "```json\n{\"narrative\": \"Macro drag.\", \"outlook\": \"neutral\"}\n```"}
	n := New(provider, Config{}, nil)

	out, err := n.Narrate(context.Background(), Request{Result: dumpResult()})
	require.NoError(t, err)
	assert.Equal(t, "Macro drag.", out.Text)
	assert.Equal(t, OutlookNeutral, out.Outlook)
}

func TestNarrator_TextFallback(t *testing.T) {
	provider := &mockLLMProvider{response: "The move looks bearish: fear and weak momentum."}
	n := New(provider, Config{}, nil)

	out, err := n.Narrate(context.Background(), Request{Result: dumpResult()})
	require.NoError(t, err)
	assert.Equal(t, "The move looks bearish: fear and weak momentum.", out.Text)
	assert.Equal(t, OutlookBearish, out.Outlook)
}

func TestNarrator_NoFactorsSkipsLLM(t *testing.T) {
	provider := &mockLLMProvider{}
	n := New(provider, Config{}, nil)

	res := &attribution.Result{Coin: "ETH", MovementType: core.MovementStable, Summary: "ETH was flat"}
	out, err := n.Narrate(context.Background(), Request{Result: res})
	require.NoError(t, err)

	assert.Equal(t, 0, provider.calls)
	assert.Equal(t, "ETH was flat", out.Text)
	assert.Equal(t, OutlookNeutral, out.Outlook)
}

func TestNarrator_LLMError(t *testing.T) {
	provider := &mockLLMProvider{err: core.ErrLLMFailed}
	n := New(provider, Config{}, nil)

	_, err := n.Narrate(context.Background(), Request{Result: dumpResult()})
	assert.True(t, errors.Is(err, core.ErrLLMFailed))
}

func TestNarrator_NilResult(t *testing.T) {
	n := New(&mockLLMProvider{}, Config{}, nil)
	_, err := n.Narrate(context.Background(), Request{})
	assert.True(t, errors.Is(err, core.ErrInvalidInput))
}

func TestBuildPrompt_TrackRecord(t *testing.T) {
	report := &backtest.Report{
		Period:           "30d",
		TotalPredictions: 100,
		AccuracyRate:     0.62,
		Grade:            "C",
		MovementTypeAccuracy: map[core.MovementType]float64{
			core.MovementDump: 0.4,
		},
	}

	prompt := buildPrompt(Request{Result: dumpResult(), TrackRecord: report})

	assert.Contains(t, prompt, "Accuracy over 30d: 62.0% (grade C, 100 predictions)")
	assert.Contains(t, prompt, "Accuracy on dump moves: 40.0%")
	assert.True(t, strings.Index(prompt, "technical") < strings.Index(prompt, "sentiment"))
}

func TestBuildPrompt_EmptyTrackRecordOmitted(t *testing.T) {
	prompt := buildPrompt(Request{Result: dumpResult(), TrackRecord: &backtest.Report{}})
	assert.NotContains(t, prompt, "Track Record")
}
