package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/newthinker/compass/internal/app"
	"github.com/newthinker/compass/internal/storage/explanation"
	"github.com/spf13/cobra"
)

var (
	explainCurrent  float64
	explainPrevious float64
	explainNarrate  bool
	explainJSON     bool
)

var explainCmd = &cobra.Command{
	Use:   "explain <coin>",
	Short: "Explain a coin's latest 24h price movement",
	Long: `Explain ranks the likely causes of a coin's price change over the last 24 hours.
Prices are fetched from the configured exchanges unless --current and --previous
are both given.`,
	Args: cobra.ExactArgs(1),
	RunE: runExplain,
}

func init() {
	explainCmd.Flags().Float64Var(&explainCurrent, "current", 0, "current price (fetched when unset)")
	explainCmd.Flags().Float64Var(&explainPrevious, "previous", 0, "price 24h ago (fetched when unset)")
	explainCmd.Flags().BoolVar(&explainNarrate, "narrate", false, "add an LLM narrative")
	explainCmd.Flags().BoolVar(&explainJSON, "json", false, "print JSON")

	rootCmd.AddCommand(explainCmd)
}

func runExplain(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	_, log, svc, err := bootstrap(ctx, false)
	if err != nil {
		return err
	}
	defer log.Sync()
	defer svc.Close()

	entry, err := svc.Explain(ctx, explainRequest(cmd, args[0]))
	if err != nil {
		return err
	}

	if explainJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entry)
	}
	printExplanation(os.Stdout, entry)
	return nil
}

// explainRequest passes only the price flags that were set, so an explicit
// 0 reaches validation instead of meaning "fetch".
func explainRequest(cmd *cobra.Command, coin string) app.ExplainRequest {
	req := app.ExplainRequest{Coin: coin, Narrate: explainNarrate}
	if cmd.Flags().Changed("current") {
		v := explainCurrent
		req.CurrentPrice = &v
	}
	if cmd.Flags().Changed("previous") {
		v := explainPrevious
		req.PreviousPrice = &v
	}
	return req
}

func printExplanation(w io.Writer, e *explanation.Entry) {
	r := e.Result
	fmt.Fprintf(w, "=== %s: %+.2f%% (%s) ===\n", strings.ToUpper(r.Coin), r.PriceChangePercent, r.MovementType)
	fmt.Fprintf(w, "As of:      %s\n", r.AsOf.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(w, "Confidence: %.0f%%\n\n", r.Confidence*100)

	if len(r.PrimaryFactors) > 0 {
		fmt.Fprintln(w, "Factors:")
		for i, f := range r.PrimaryFactors {
			fmt.Fprintf(w, "%d. [%s] %s (impact %+.2f, confidence %.2f)\n",
				i+1, f.Type, f.Description, f.Impact, f.Confidence)
			if f.TechnicalReason != "" {
				fmt.Fprintf(w, "   %s\n", f.TechnicalReason)
			}
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Summary: %s\n", r.Summary)
	if r.Recommendation != "" {
		fmt.Fprintf(w, "Recommendation: %s\n", r.Recommendation)
	}
	if e.Narrative != "" {
		fmt.Fprintf(w, "\n%s\n", e.Narrative)
	}
}
