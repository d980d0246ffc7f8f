// Package narrative turns an attribution result into a short analyst note
// using an LLM.
package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/newthinker/compass/internal/attribution"
	"github.com/newthinker/compass/internal/backtest"
	"github.com/newthinker/compass/internal/core"
	"github.com/newthinker/compass/internal/llm"
	"go.uber.org/zap"
)

// Outlooks a narration may carry.
const (
	OutlookBullish = "bullish"
	OutlookBearish = "bearish"
	OutlookNeutral = "neutral"
)

// Narrator asks an LLM to explain a movement in prose.
type Narrator struct {
	llm         llm.Provider
	temperature float64
	logger      *zap.Logger
}

// Config holds narrator configuration.
type Config struct {
	Temperature float64
}

// New creates a narrator. provider must be non-nil.
func New(provider llm.Provider, cfg Config, logger *zap.Logger) *Narrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.3
	}
	return &Narrator{
		llm:         provider,
		temperature: cfg.Temperature,
		logger:      logger,
	}
}

// Request is what a narration is built from.
type Request struct {
	Result *attribution.Result
	// TrackRecord is the latest validation report for the coin, if any.
	TrackRecord *backtest.Report
}

// Narration is the LLM's note on a movement.
type Narration struct {
	Text    string `json:"narrative"`
	Outlook string `json:"outlook"`
}

// Narrate explains the result. Movements without factors are narrated from
// the summary alone, without calling the model.
func (n *Narrator) Narrate(ctx context.Context, req Request) (*Narration, error) {
	if req.Result == nil {
		return nil, core.WrapError(core.ErrInvalidInput, fmt.Errorf("no result to narrate"))
	}
	if len(req.Result.PrimaryFactors) == 0 {
		return &Narration{Text: req.Result.Summary, Outlook: OutlookNeutral}, nil
	}

	resp, err := n.llm.Chat(ctx, llm.ChatRequest{
		SystemPrompt: narratorSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildPrompt(req)},
		},
		MaxTokens:   llm.DefaultMaxTokens,
		Temperature: n.temperature,
		JSONMode:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("narrating %s: %w", req.Result.Coin, err)
	}

	var out Narration
	if err := json.Unmarshal([]byte(extractJSON(resp.Content)), &out); err != nil || out.Text == "" {
		n.logger.Debug("narration was not JSON, using raw text",
			zap.String("coin", req.Result.Coin),
			zap.String("provider", n.llm.Name()),
		)
		return parseTextResponse(resp.Content), nil
	}
	out.Outlook = normalizeOutlook(out.Outlook)
	return &out, nil
}

func buildPrompt(req Request) string {
	r := req.Result
	var sb strings.Builder

	fmt.Fprintf(&sb, "## Coin: %s\n\n", r.Coin)
	fmt.Fprintf(&sb, "- Price change (24h): %+.2f%%\n", r.PriceChangePercent)
	fmt.Fprintf(&sb, "- Movement: %s\n", r.MovementType)
	fmt.Fprintf(&sb, "- Explanation confidence: %.2f\n\n", r.Confidence)

	sb.WriteString("## Factors (strongest first):\n")
	for _, f := range r.PrimaryFactors {
		fmt.Fprintf(&sb, "- **%s**: impact %+.2f, confidence %.2f. %s\n",
			f.Type, f.Impact, f.Confidence, f.Description)
		if f.TechnicalReason != "" {
			fmt.Fprintf(&sb, "  Detail: %s\n", f.TechnicalReason)
		}
	}
	sb.WriteString("\n")

	if tr := req.TrackRecord; tr != nil && tr.HasData() {
		sb.WriteString("## Model Track Record:\n")
		fmt.Fprintf(&sb, "- Accuracy over %s: %.1f%% (grade %s, %d predictions)\n",
			tr.Period, tr.AccuracyRate*100, tr.Grade, tr.TotalPredictions)
		if acc, ok := tr.MovementTypeAccuracy[r.MovementType]; ok {
			fmt.Fprintf(&sb, "- Accuracy on %s moves: %.1f%%\n", r.MovementType, acc*100)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Task:\n")
	sb.WriteString("Explain in two or three sentences why the price moved.\n")
	sb.WriteString("Respond with JSON containing: narrative, outlook (bullish/bearish/neutral).\n")

	return sb.String()
}

// extractJSON strips a fenced code block if the model wrapped its answer.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if start := strings.Index(text, "{"); start >= 0 {
		if end := strings.LastIndex(text, "}"); end > start {
			return text[start : end+1]
		}
	}
	return text
}

func parseTextResponse(text string) *Narration {
	return &Narration{
		Text:    strings.TrimSpace(text),
		Outlook: normalizeOutlook(text),
	}
}

func normalizeOutlook(s string) string {
	lower := strings.ToLower(s)
	bull := strings.Contains(lower, OutlookBullish)
	bear := strings.Contains(lower, OutlookBearish)
	switch {
	case bull && !bear:
		return OutlookBullish
	case bear && !bull:
		return OutlookBearish
	default:
		return OutlookNeutral
	}
}

const narratorSystemPrompt = `You are a crypto market analyst. You receive a realized price movement and the ranked factors a quantitative model attributed it to.

Write a short, plain-language note that:
1. States what happened to the price
2. Explains the strongest factors and how they combine
3. Mentions the model's track record when given, and hedges when it is weak

Do not invent news or data that is not in the input.

Always respond with valid JSON in this format:
{
  "narrative": "two or three sentences",
  "outlook": "bullish" | "bearish" | "neutral"
}`
