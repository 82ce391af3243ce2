package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vuongmanhnghia/guild-music-bot/internal/bot"
	"github.com/vuongmanhnghia/guild-music-bot/internal/config"
)

func migrateCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadWithoutToken()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if !cfg.UseDatabase {
				return fmt.Errorf("USE_DATABASE is off, guild settings are stored in %s", cfg.SettingsDir)
			}

			log := newLogger(cfg)
			defer log.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			db, err := bot.OpenDatabase(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			return db.RunMigrations(ctx)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "give up after this long")
	return cmd
}
