package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	patrolsFormat string
	patrolsDays   int
)

var patrolsCmd = &cobra.Command{
	Use:   "patrols",
	Short: "Recommend patrol deployments with explanations",
	Long: `Map each area's risk score onto a patrol tier and explain the decision.

  score >= 60   HIGH    2 units (3 when rising)   6 PM – 11 PM
  30 <= score   MEDIUM  1 unit                    7 PM – 10 PM
  score < 30    LOW     0 units                   Random patrols

Examples:
  safetyintel patrols
  safetyintel patrols --days=14 --format=json`,
	Args: cobra.NoArgs,
	RunE: runPatrols,
}

func init() {
	patrolsCmd.Flags().StringVar(&patrolsFormat, "format", "human", "Output format (json, human)")
	patrolsCmd.Flags().IntVar(&patrolsDays, "days", 0, "Window length in days (default: analytics.risk_days)")
	rootCmd.AddCommand(patrolsCmd)
}

func runPatrols(cmd *cobra.Command, _ []string) error {
	if err := nonNegative("days", patrolsDays); err != nil {
		return err
	}
	ctx, cancel := newContext()
	defer cancel()

	svc, err := newService(ctx, true)
	if err != nil {
		return err
	}
	defer svc.Close()

	recs, err := svc.Patrols(ctx, patrolsDays)
	if err != nil {
		return fmt.Errorf("patrol recommendation failed: %w", err)
	}
	return writeResponse(cmd.OutOrStdout(), recs, OutputFormat(patrolsFormat))
}
