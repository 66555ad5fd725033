package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	hotspotsFormat    string
	hotspotsDays      int
	hotspotsThreshold int
)

var hotspotsCmd = &cobra.Command{
	Use:   "hotspots",
	Short: "List areas whose incident count meets a threshold",
	Long: `List every area with at least --threshold incidents in the last --days days.

Examples:
  safetyintel hotspots
  safetyintel hotspots --days=7 --threshold=5 --format=json`,
	Args: cobra.NoArgs,
	RunE: runHotspots,
}

func init() {
	hotspotsCmd.Flags().StringVar(&hotspotsFormat, "format", "human", "Output format (json, human)")
	hotspotsCmd.Flags().IntVar(&hotspotsDays, "days", 0, "Window length in days (default: analytics.hotspot_days)")
	hotspotsCmd.Flags().IntVar(&hotspotsThreshold, "threshold", 0, "Minimum incident count (default: analytics.hotspot_threshold)")
	rootCmd.AddCommand(hotspotsCmd)
}

func runHotspots(cmd *cobra.Command, _ []string) error {
	if err := nonNegative("days", hotspotsDays); err != nil {
		return err
	}
	if err := nonNegative("threshold", hotspotsThreshold); err != nil {
		return err
	}
	ctx, cancel := newContext()
	defer cancel()

	svc, err := newService(ctx, true)
	if err != nil {
		return err
	}
	defer svc.Close()

	hotspots, err := svc.Hotspots(ctx, hotspotsDays, hotspotsThreshold)
	if err != nil {
		return fmt.Errorf("hotspot detection failed: %w", err)
	}
	return writeResponse(cmd.OutOrStdout(), hotspots, OutputFormat(hotspotsFormat))
}

// nonNegative rejects negative flag values; zero selects the configured default.
func nonNegative(name string, v int) error {
	if v < 0 {
		return fmt.Errorf("--%s must not be negative", name)
	}
	return nil
}
