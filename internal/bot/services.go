package bot

import (
	"context"
	"fmt"

	"github.com/vuongmanhnghia/guild-music-bot/internal/config"
	"github.com/vuongmanhnghia/guild-music-bot/internal/database"
	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/repositories"
	"github.com/vuongmanhnghia/guild-music-bot/internal/infrastructure/persistence"
	"github.com/vuongmanhnghia/guild-music-bot/internal/services/audio"
	"github.com/vuongmanhnghia/guild-music-bot/internal/services/resolver"
	"github.com/vuongmanhnghia/guild-music-bot/internal/services/spotify"
	"github.com/vuongmanhnghia/guild-music-bot/internal/services/youtube"
	"github.com/vuongmanhnghia/guild-music-bot/pkg/logger"
)

// Sources bundles the platform adapters and the resolver built on them
type Sources struct {
	YouTube  *youtube.Service
	Spotify  *spotify.Service
	Resolver *resolver.Resolver
}

// NewSources builds the video platform adapter, the optional streaming service and the resolver
func NewSources(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Sources, error) {
	ytService, err := youtube.NewService(log, youtube.Options{
		YtDlpPath:      cfg.YtDlpPath,
		SearchTimeout:  cfg.Music.SearchTimeout,
		RateLimitDelay: cfg.Music.RateLimitDelay,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	sources := &Sources{YouTube: ytService}

	// The resolver takes an interface, so a missing service must stay a nil interface
	var streaming resolver.StreamingService
	if cfg.SpotifyEnabled() {
		spotifyService, err := spotify.NewService(ctx, cfg.SpotifyClientID, cfg.SpotifyClientSecret, cfg.Music.RateLimitDelay, log)
		if err != nil {
			log.WithError(err).Warn("Failed to initialize Spotify service - Spotify links will not work")
		} else {
			sources.Spotify = spotifyService
			streaming = spotifyService
			log.Info("Spotify service initialized")
		}
	} else {
		log.Info("Spotify credentials not provided - Spotify links will not work")
	}

	text := resolver.NewTextResolver(ytService, log)
	sources.Resolver = resolver.New(ytService, streaming, text, cfg.Music, log)
	return sources, nil
}

// NewAcquirer builds the three acquisition strategies over the sources
func NewAcquirer(cfg *config.Config, sources *Sources, log *logger.Logger) *audio.Acquirer {
	music := cfg.Music

	pipeline := audio.NewPipelineStrategy(sources.YouTube, cfg.FFmpegPath, music.StreamTimeout, log)
	direct := audio.NewDirectStrategy(sources.YouTube, sources.Resolver, music.FallbackQualities, music.StreamTimeout, music.SearchRetryDelay, log)
	search := audio.NewSearchStrategy(sources.YouTube, pipeline, log)

	return audio.NewAcquirer(direct, pipeline, search, music, log)
}

// OpenSettings returns the guild settings store: SQL when the database is enabled,
// JSON files otherwise. The returned DB is nil for the file store.
func OpenSettings(ctx context.Context, cfg *config.Config, log *logger.Logger) (repositories.GuildSettingsRepository, *database.DB, error) {
	if !cfg.UseDatabase {
		repo, err := persistence.NewSettingsRepository(cfg.SettingsDir)
		if err != nil {
			return nil, nil, err
		}
		log.WithField("dir", cfg.SettingsDir).Info("Using file-based guild settings")
		return repo, nil, nil
	}

	db, err := OpenDatabase(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := db.RunMigrations(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	log.WithField("driver", db.Driver).Info("Using database for guild settings")
	return repositories.NewSQLGuildSettingsRepository(db.SQL, db.Driver == database.DriverSQLite), db, nil
}

// OpenDatabase connects to the configured database without migrating it
func OpenDatabase(ctx context.Context, cfg *config.Config) (*database.DB, error) {
	db, err := database.Connect(ctx, database.DefaultConfig(cfg.DatabaseDriver, cfg.DatabaseURL, cfg.SQLitePath))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}
