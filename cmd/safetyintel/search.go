package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"safetyintel/internal/domain"
)

var (
	searchFormat   string
	searchLat      float64
	searchLon      float64
	searchRadiusKm float64
	searchDays     int
	searchLimit    int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find incidents similar to a free-text description",
	Long: `Find incidents whose description is semantically similar to the query,
optionally restricted to recent days and to a radius around a point.

Examples:
  safetyintel search "armed robbery near a store"
  safetyintel search "bike theft" --days=7
  safetyintel search "assault" --lat=40.71 --lon=-74.00 --radius-km=2 --format=json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchFormat, "format", "human", "Output format (json, human)")
	searchCmd.Flags().Float64Var(&searchLat, "lat", 0, "Latitude of the search center")
	searchCmd.Flags().Float64Var(&searchLon, "lon", 0, "Longitude of the search center")
	searchCmd.Flags().Float64Var(&searchRadiusKm, "radius-km", 0, "Search radius in kilometres")
	searchCmd.Flags().IntVar(&searchDays, "days", 0, "Only incidents from the last N days")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "Maximum results (default: analytics.search_limit)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx, cancel := newContext()
	defer cancel()

	svc, err := newService(ctx, true)
	if err != nil {
		return err
	}
	defer svc.Close()

	p := domain.SearchParams{Query: strings.Join(args, " "), Limit: searchLimit}
	flags := cmd.Flags()
	if flags.Changed("lat") && flags.Changed("lon") && flags.Changed("radius-km") {
		if searchRadiusKm <= 0 {
			return fmt.Errorf("--radius-km must be positive")
		}
		p.Lat, p.Lon, p.RadiusKm = &searchLat, &searchLon, &searchRadiusKm
	}
	if flags.Changed("days") {
		if searchDays <= 0 {
			return fmt.Errorf("--days must be positive")
		}
		p.Days = &searchDays
	}

	results, err := svc.Search(ctx, p)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	return writeResponse(cmd.OutOrStdout(), results, OutputFormat(searchFormat))
}
