package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vuongmanhnghia/guild-music-bot/internal/bot"
	"github.com/vuongmanhnghia/guild-music-bot/internal/config"
)

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Connect to Discord and serve music commands (default)",
		Args:  cobra.NoArgs,
		RunE:  runBot,
	}
}

func runBot(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log := newLogger(cfg)
	defer log.Close()

	log.Infof("Starting %s v%s", cfg.BotName, cfg.Version)
	log.Infof("Token: %s", cfg.GetSafeToken())
	log.Infof("Stay Connected 24/7: %v", cfg.StayConnected247)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	// Initialize bot
	musicBot, err := bot.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create bot: %w", err)
	}

	// Start bot
	if err := musicBot.Start(); err != nil {
		musicBot.Stop()
		return fmt.Errorf("failed to start bot: %w", err)
	}

	log.Info("✅ Bot is now running. Press CTRL-C to exit.")

	// Wait for interrupt signal
	<-ctx.Done()

	// Cleanup
	log.Info("Shutting down gracefully...")
	musicBot.Stop()
	log.Info("Bot stopped successfully")
	return nil
}
