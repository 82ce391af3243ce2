package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vuongmanhnghia/guild-music-bot/internal/config"
	"github.com/vuongmanhnghia/guild-music-bot/pkg/logger"
)

var (
	logLevel  string
	logFormat string
)

func main() {
	root := &cobra.Command{
		Use:           "bot",
		Short:         "Discord music bot",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runBot,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "", "override LOG_FORMAT (text or json)")

	root.AddCommand(
		runCmd(),
		migrateCmd(),
		resolveCmd(),
		versionCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newLogger builds the logger from config, with the command line flags taking precedence
func newLogger(cfg *config.Config) *logger.Logger {
	level, format := cfg.LogLevel, cfg.LogFormat
	if logLevel != "" {
		level = logLevel
	}
	if logFormat != "" {
		format = logFormat
	}
	return logger.New(logger.Config{
		Level:  level,
		Format: format,
		File:   cfg.LogFile,
	})
}
