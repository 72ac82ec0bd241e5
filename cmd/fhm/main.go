package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"fhm/internal/cli"
	"fhm/internal/core"
	"fhm/internal/log"
)

var (
	monthFlag string
	yoyFlag   bool
)

var rootCmd = &cobra.Command{
	Use:   "fhm [files...]",
	Short: "Summarize financial CSV exports",
	Long: `fhm parses bank and credit-card CSV exports in heterogeneous formats,
normalizes them into uniform transactions, and prints category totals,
the overall balance, and per-month savings rates.`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&monthFlag, "month", "", "show category totals for a specific month (YYYY-MM)")
	rootCmd.Flags().BoolVar(&yoyFlag, "yoy", false, "display average expenses for each month across years")
}

func run(cmd *cobra.Command, args []string) error {
	// Logs go to stderr so the rendered summary stays clean on stdout.
	logger := log.New(log.Config{
		Level:     slog.LevelInfo,
		Component: log.ComponentApp,
		Handler:   slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}),
	})
	log.SetDefault(logger)

	if monthFlag != "" {
		if _, err := time.Parse("2006-01", monthFlag); err != nil {
			return fmt.Errorf("invalid month %q: expected YYYY-MM", monthFlag)
		}
	}

	logger.Info("Processing input files", "count", len(args))

	txs, skipped, err := core.ParseFiles(args...)
	if err != nil {
		return err
	}
	for _, s := range skipped {
		logger.Warn("Skipped row", "file", s.File, "line", s.Line, "reason", s.Reason)
	}

	out := cmd.OutOrStdout()
	summary := core.Summarize(txs)
	cli.RenderSummary(out, txs, summary)
	logger.Info("Summary computed",
		"balance", summary.OverallBalance.StringFixed(2),
		"categories", len(summary.CategoryTotals))

	if monthFlag != "" {
		cli.RenderMonthDetails(out, txs, monthFlag, core.MonthDetails(txs, monthFlag))
	}
	if yoyFlag {
		cli.RenderYoY(out, core.YoYMonthlyExpenses(txs))
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
