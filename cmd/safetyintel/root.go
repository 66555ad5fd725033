package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"safetyintel/internal/config"
	"safetyintel/internal/logging"
)

var (
	cfgPath  string
	logLevel string

	appCfg *config.AppConfig
	logger *log.Logger
)

var rootCmd = &cobra.Command{
	Use:   "safetyintel",
	Short: "Public safety intelligence over geotagged crime reports",
	Long: `safetyintel searches crime incidents semantically and derives hotspots,
trends, risk scores and patrol recommendations per area.

Results are computed from the record store on every call; nothing is cached.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadEnvironment,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "",
		"Path to YAML config file (default ./config.yaml, then ~/.config/safetyintel/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
}

// loadEnvironment reads .env, the config file and sets up the logger.
func loadEnvironment(_ *cobra.Command, _ []string) error {
	_ = godotenv.Load()

	var err error
	if cfgPath == "" {
		appCfg, _, err = config.LoadDefault()
	} else {
		appCfg, err = config.Load(cfgPath)
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		appCfg.Log.Level = logLevel
	}
	logger = logging.New(appCfg.Log)
	return nil
}

// newContext returns a context cancelled on SIGINT or SIGTERM.
func newContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
