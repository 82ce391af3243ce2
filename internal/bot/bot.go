package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/vuongmanhnghia/guild-music-bot/internal/commands"
	"github.com/vuongmanhnghia/guild-music-bot/internal/config"
	"github.com/vuongmanhnghia/guild-music-bot/internal/database"
	"github.com/vuongmanhnghia/guild-music-bot/internal/services/audio"
	"github.com/vuongmanhnghia/guild-music-bot/internal/services/music"
	"github.com/vuongmanhnghia/guild-music-bot/internal/services/voice"
	"github.com/vuongmanhnghia/guild-music-bot/pkg/logger"
)

// MusicBot represents the Discord music bot
type MusicBot struct {
	config     *config.Config
	logger     *logger.Logger
	session    *discordgo.Session
	db         *database.DB
	sources    *Sources
	voice      *voice.Manager
	music      *music.Manager
	cmdHandler *commands.Handler
}

// New creates a new MusicBot instance
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*MusicBot, error) {
	// Create Discord session
	session, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	// Setup intents
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildVoiceStates
	session.StateEnabled = true

	// Guild settings: database or files
	settings, db, err := OpenSettings(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	sources, err := NewSources(ctx, cfg, log)
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, err
	}

	buffer := music.NewBuffer(sources.Resolver.Text(), log)
	sources.Resolver.SetBuffer(buffer)

	voiceManager := voice.NewManager(voice.NewDiscordPlatform(session, log), cfg.Music.JoinTimeout, cfg.Music.ReconnectTimeout, log)

	manager := music.NewManager(music.Options{
		Voice:         voiceManager,
		Resolver:      sources.Resolver,
		Acquirer:      NewAcquirer(cfg, sources, log),
		Resources:     audio.NewEncoder(cfg.FFmpegPath, audio.DefaultEncodeOptions(), log),
		Buffer:        buffer,
		Settings:      settings,
		Notifier:      commands.NewChannelNotifier(session, log),
		Music:         cfg.Music,
		DefaultVolume: cfg.DefaultVolume,
	}, log)

	// Initialize command handler
	cmdHandler := commands.NewHandler(session, manager, log, cfg)

	bot := &MusicBot{
		config:     cfg,
		logger:     log,
		session:    session,
		db:         db,
		sources:    sources,
		voice:      voiceManager,
		music:      manager,
		cmdHandler: cmdHandler,
	}

	// Register event handlers
	session.AddHandler(bot.onReady)
	session.AddHandler(cmdHandler.HandleInteraction)
	session.AddHandler(bot.onVoiceStateUpdate)

	return bot, nil
}

// Start opens the gateway connection and registers the slash commands
func (b *MusicBot) Start() error {
	b.logger.Info("Opening Discord connection...")
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	// Register commands
	b.logger.Info("Registering slash commands...")
	if err := b.cmdHandler.RegisterCommands(); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	return nil
}

// Stop stops the bot gracefully
func (b *MusicBot) Stop() {
	b.logger.Info("Shutting down services...")

	// Leave every guild, then drop connections the queues did not own
	b.music.Shutdown()
	b.voice.LeaveAll()

	// Close database connection
	if b.db != nil {
		b.db.Close()
	}

	// Close Discord connection
	b.logger.Info("Closing Discord connection...")
	if err := b.session.Close(); err != nil {
		b.logger.WithError(err).Error("Failed to close Discord session")
	}
}

// onReady is called when the bot is ready
func (b *MusicBot) onReady(s *discordgo.Session, event *discordgo.Ready) {
	b.logger.Infof("✅ Bot is ready! Logged in as %s#%s", event.User.Username, event.User.Discriminator)
	b.logger.Infof("📊 Connected to %d guilds", len(event.Guilds))
	b.logger.Infof("🔧 24/7 Mode: %v", b.config.StayConnected247)

	// Set bot status
	if err := s.UpdateGameStatus(0, "🎵 Music Bot - /help"); err != nil {
		b.logger.WithError(err).Warn("Failed to update status")
	}
}
