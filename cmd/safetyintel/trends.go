package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	trendsFormat     string
	trendsWindowDays int
)

var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Compare incident counts per area between two adjacent windows",
	Long: `Compare each area's incident count in the last --window-days days against
the same number of days before that, and classify it as rising, declining
or stable.

Examples:
  safetyintel trends
  safetyintel trends --window-days=7`,
	Args: cobra.NoArgs,
	RunE: runTrends,
}

func init() {
	trendsCmd.Flags().StringVar(&trendsFormat, "format", "human", "Output format (json, human)")
	trendsCmd.Flags().IntVar(&trendsWindowDays, "window-days", 0, "Recent window length in days (default: analytics.trend_window_days)")
	rootCmd.AddCommand(trendsCmd)
}

func runTrends(cmd *cobra.Command, _ []string) error {
	if err := nonNegative("window-days", trendsWindowDays); err != nil {
		return err
	}
	ctx, cancel := newContext()
	defer cancel()

	svc, err := newService(ctx, true)
	if err != nil {
		return err
	}
	defer svc.Close()

	trends, err := svc.Trends(ctx, trendsWindowDays)
	if err != nil {
		return fmt.Errorf("trend detection failed: %w", err)
	}
	return writeResponse(cmd.OutOrStdout(), trends, OutputFormat(trendsFormat))
}
