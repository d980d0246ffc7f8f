package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/newthinker/compass/internal/app"
	"github.com/newthinker/compass/internal/backtest"
	"github.com/spf13/cobra"
)

var (
	validateDays    int
	validateTimeout time.Duration
	validateJSON    bool
)

var validateCmd = &cobra.Command{
	Use:   "validate <coin>",
	Short: "Validate explanations against recent history",
	Long: `Validate replays recent hourly prices, explains each step from the history
before it and scores the explanation against what actually happened.
The report is archived to the configured cold storage.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().IntVar(&validateDays, "days", 0, "days of history to replay (config default when unset)")
	validateCmd.Flags().DurationVar(&validateTimeout, "timeout", 0, "stop early and report partial results after this long")
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "print JSON")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	// Interrupting a run still prints the partial report.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	cfg, log, svc, err := bootstrap(ctx, false)
	if err != nil {
		return err
	}
	defer log.Sync()
	defer svc.Close()

	if validateTimeout > 0 {
		cfg.Validation.Timeout = validateTimeout
	}

	lastPct := -10
	report, err := svc.Validate(ctx, app.ValidateRequest{
		Coin: args[0],
		Days: validateDays,
		Progress: func(done, total int) {
			if total <= 0 {
				return
			}
			pct := done * 100 / total
			if pct/10 != lastPct/10 {
				fmt.Fprintf(os.Stderr, "\rreplaying... %3d%%", pct)
				lastPct = pct
			}
		},
	})
	if lastPct >= 0 {
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		return err
	}

	if validateJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	fmt.Print(backtest.RenderText(report))
	return nil
}
