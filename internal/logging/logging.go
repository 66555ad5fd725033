package logging

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"safetyintel/internal/config"
)

// New creates a stderr logger from the log section of the config.
// Unknown levels fall back to info and unknown formats to text.
func New(cfg config.LogConfig) *log.Logger {
	return NewWithWriter(os.Stderr, cfg)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, cfg config.LogConfig) *log.Logger {
	level, err := log.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = log.InfoLevel
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Level:           level,
		Formatter:       formatter(cfg.Format),
		Prefix:          "safetyintel",
	})
}

// Discard returns a logger that drops everything. Used as the zero value by
// components that accept an optional logger.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

func formatter(name string) log.Formatter {
	switch strings.ToLower(name) {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}
