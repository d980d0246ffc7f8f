package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/newthinker/compass/internal/backtest"
	"github.com/spf13/cobra"
)

var reportsCmd = &cobra.Command{
	Use:   "reports [coin] [id]",
	Short: "List archived validation reports, or show one",
	Args:  cobra.MaximumNArgs(2),
	RunE:  runReports,
}

func init() {
	rootCmd.AddCommand(reportsCmd)
}

func runReports(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	_, log, svc, err := bootstrap(ctx, false)
	if err != nil {
		return err
	}
	defer log.Sync()
	defer svc.Close()

	if len(args) == 2 {
		report, err := svc.Report(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Print(backtest.RenderText(report))
		return nil
	}

	coin := ""
	if len(args) == 1 {
		coin = args[0]
	}
	summaries, err := svc.Reports(ctx, coin)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Println("No archived reports")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "GENERATED\tCOIN\tPERIOD\tACCURACY\tGRADE\tID")
	for _, s := range summaries {
		partial := ""
		if s.Partial {
			partial = " (partial)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f%%%s\t%s\t%s\n",
			s.GeneratedAt.Format("2006-01-02 15:04"), s.Coin, s.Period,
			s.AccuracyRate*100, partial, s.Grade, s.ID)
	}
	return tw.Flush()
}
