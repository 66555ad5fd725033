package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var setupFile string

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Recreate the record store and load incident reports",
	Long: `Recreate the incident collection sized to the configured embedder and load
incident reports from a JSON array file, embedding each description.

Examples:
  safetyintel setup
  safetyintel setup --file=data/reports.json`,
	Args: cobra.NoArgs,
	RunE: runSetup,
}

func init() {
	setupCmd.Flags().StringVar(&setupFile, "file", "", "Incident JSON file (default: ingest.path from config)")
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, _ []string) error {
	ctx, cancel := newContext()
	defer cancel()

	svc, err := newService(ctx, false)
	if err != nil {
		return err
	}
	defer svc.Close()

	path := setupFile
	if path == "" {
		path = appCfg.Ingest.Path
	}
	n, err := svc.Setup(ctx, path)
	if err != nil {
		return fmt.Errorf("setup failed: %w", err)
	}
	if isMemoryStore(appCfg.RecordStore) {
		logger.Warn("record store is in-memory, loaded data lives only for this process")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d incidents from %s\n", n, path)
	return nil
}
