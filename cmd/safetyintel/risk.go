package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"safetyintel/internal/domain"
)

var (
	riskFormat          string
	riskDays            int
	riskFrequencyWeight float64
	riskSeverityWeight  float64
)

var riskCmd = &cobra.Command{
	Use:   "risk",
	Short: "Score each area by frequency, severity and trend",
	Long: `Compute a risk score per area over the last --days days:

  score = count * frequency_weight + avg_severity * severity_weight + trend_bonus

where the trend bonus is +10 rising, 0 stable and -5 declining, and the trend
is measured over half the risk window.

Examples:
  safetyintel risk
  safetyintel risk --days=60 --format=json`,
	Args: cobra.NoArgs,
	RunE: runRisk,
}

func init() {
	riskCmd.Flags().StringVar(&riskFormat, "format", "human", "Output format (json, human)")
	riskCmd.Flags().IntVar(&riskDays, "days", 0, "Window length in days (default: analytics.risk_days)")
	riskCmd.Flags().Float64Var(&riskFrequencyWeight, "frequency-weight", 0, "Weight per incident (default: analytics.frequency_weight)")
	riskCmd.Flags().Float64Var(&riskSeverityWeight, "severity-weight", 0, "Weight of average severity (default: analytics.severity_weight)")
	rootCmd.AddCommand(riskCmd)
}

func runRisk(cmd *cobra.Command, _ []string) error {
	if err := nonNegative("days", riskDays); err != nil {
		return err
	}
	ctx, cancel := newContext()
	defer cancel()

	svc, err := newService(ctx, true)
	if err != nil {
		return err
	}
	defer svc.Close()

	p := domain.RiskParams{Days: riskDays}
	if cmd.Flags().Changed("frequency-weight") {
		p.FrequencyWeight = &riskFrequencyWeight
	}
	if cmd.Flags().Changed("severity-weight") {
		p.SeverityWeight = &riskSeverityWeight
	}
	risks, err := svc.RiskScores(ctx, p)
	if err != nil {
		return fmt.Errorf("risk scoring failed: %w", err)
	}
	return writeResponse(cmd.OutOrStdout(), risks, OutputFormat(riskFormat))
}
