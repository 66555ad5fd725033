package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"safetyintel/internal/tui"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Open the interactive terminal dashboard",
	Args:  cobra.NoArgs,
	RunE:  runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(_ *cobra.Command, _ []string) error {
	ctx, cancel := newContext()
	defer cancel()

	svc, err := newService(ctx, true)
	if err != nil {
		return err
	}
	defer svc.Close()

	a := appCfg.Analytics
	m := tui.New(svc, tui.Settings{
		Days:             a.RiskDays,
		TrendWindowDays:  a.TrendWindowDays,
		HotspotThreshold: a.HotspotThreshold,
		SearchLimit:      a.SearchLimit,
	})
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
