package backtest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/newthinker/compass/internal/core"
)

// GradeNone is the grade of a report without data.
const GradeNone = "-"

// Grade maps an accuracy rate to a letter grade.
func Grade(rate float64) string {
	switch {
	case rate >= 0.8:
		return "A"
	case rate >= 0.7:
		return "B"
	case rate >= 0.6:
		return "C"
	case rate >= 0.5:
		return "D"
	default:
		return "F"
	}
}

// Recommendations suggests improvements based on a report's weak spots.
func Recommendations(r *Report) []string {
	if !r.HasData() {
		return []string{"No predictions were evaluated. Collect a longer price history."}
	}

	var recs []string
	if r.AccuracyRate < 0.6 {
		recs = append(recs, "Overall accuracy is low; the attribution algorithm needs work.")
	}

	if len(r.MovementTypeAccuracy) > 0 {
		var worst core.MovementType
		worstRate := 2.0
		for _, m := range core.MovementTypes {
			if acc, ok := r.MovementTypeAccuracy[m]; ok && acc < worstRate {
				worst, worstRate = m, acc
			}
		}
		if worstRate < 0.4 {
			recs = append(recs, fmt.Sprintf("Improve prediction accuracy for %s movements.", worst))
		}
	}

	var weak []string
	for _, ft := range sortedFactors(r.FactorEffectiveness) {
		if r.FactorEffectiveness[ft] < 0.5 {
			weak = append(weak, string(ft))
		}
	}
	if len(weak) > 0 {
		recs = append(recs, fmt.Sprintf("Strengthen the %s factor analysis.", strings.Join(weak, ", ")))
	}

	if len(r.RecentRecords) > 0 {
		var sum float64
		for _, rec := range r.RecentRecords {
			sum += rec.Confidence
		}
		if sum/float64(len(r.RecentRecords)) < 0.6 {
			recs = append(recs, "Improve input data quality to raise prediction confidence.")
		}
	}

	if len(recs) == 0 {
		recs = append(recs, "Performance is good. Keep monitoring.")
	}
	return recs
}

// summarize renders the short validation summary stored on the report.
func summarize(r *Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s price movement validation\n", strings.ToUpper(r.Coin))
	fmt.Fprintf(&b, "Period: %s\n", r.Period)
	fmt.Fprintf(&b, "Total predictions: %d\n", r.TotalPredictions)
	fmt.Fprintf(&b, "Correct predictions: %d\n", r.CorrectPredictions)

	if !r.HasData() {
		b.WriteString("Overall accuracy: no data\n\nNo predictions were evaluated.")
		return b.String()
	}
	fmt.Fprintf(&b, "Overall accuracy: %s\n", percent(r.AccuracyRate))

	writeBreakdown(&b, r, "  - ")

	switch {
	case r.AccuracyRate >= 0.7:
		b.WriteString("\nStrong: the attribution shows high accuracy.")
	case r.AccuracyRate >= 0.5:
		b.WriteString("\nFair: the attribution performs adequately.")
	default:
		b.WriteString("\nNeeds improvement: the attribution accuracy is low.")
	}
	return b.String()
}

// RenderText renders the full plain-text validation report.
func RenderText(r *Report) string {
	var b strings.Builder
	b.WriteString("Price Movement Attribution Validation Report\n")
	b.WriteString(strings.Repeat("=", 44))
	b.WriteString("\n\n")

	b.WriteString("Overview\n")
	fmt.Fprintf(&b, "- Coin: %s\n", strings.ToUpper(r.Coin))
	fmt.Fprintf(&b, "- Period: %s\n", r.Period)
	if !r.Start.IsZero() {
		fmt.Fprintf(&b, "- Range: %s to %s\n", r.Start.Format("2006-01-02 15:04"), r.End.Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(&b, "- Generated: %s\n", r.GeneratedAt.Format("2006-01-02 15:04:05"))
	if r.Partial {
		b.WriteString("- Status: partial (run stopped early)\n")
	}

	b.WriteString("\nPerformance\n")
	fmt.Fprintf(&b, "- Total predictions: %d\n", r.TotalPredictions)
	fmt.Fprintf(&b, "- Correct predictions: %d\n", r.CorrectPredictions)
	fmt.Fprintf(&b, "- Skipped steps: %d\n", r.SkippedSteps)
	if r.HasData() {
		fmt.Fprintf(&b, "- Overall accuracy: %s\n", percent(r.AccuracyRate))
	} else {
		b.WriteString("- Overall accuracy: no data\n")
	}
	fmt.Fprintf(&b, "- Grade: %s\n", r.Grade)

	writeBreakdown(&b, r, "- ")

	b.WriteString("\nRecommendations\n")
	for i, rec := range r.Recommendations {
		fmt.Fprintf(&b, "%d. %s\n", i+1, rec)
	}

	b.WriteString("\nSummary\n")
	b.WriteString(r.Summary)
	b.WriteString("\n")
	return b.String()
}

func writeBreakdown(b *strings.Builder, r *Report, bullet string) {
	b.WriteString("\nAccuracy by movement type:\n")
	for _, m := range core.MovementTypes {
		if acc, ok := r.MovementTypeAccuracy[m]; ok {
			fmt.Fprintf(b, "%s%s: %s\n", bullet, m, percent(acc))
		}
	}

	b.WriteString("\nFactor effectiveness:\n")
	for _, ft := range sortedFactors(r.FactorEffectiveness) {
		fmt.Fprintf(b, "%s%s: %s\n", bullet, ft, percent(r.FactorEffectiveness[ft]))
	}
}

func sortedFactors(m map[core.FactorType]float64) []core.FactorType {
	keys := make([]core.FactorType, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func percent(rate float64) string {
	return fmt.Sprintf("%.1f%%", rate*100)
}
