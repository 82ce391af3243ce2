package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Bot Settings
	BotToken         string
	BotName          string
	Version          string
	StayConnected247 bool

	// Database
	UseDatabase    bool
	DatabaseDriver string // postgres or sqlite
	DatabaseURL    string
	SQLitePath     string

	// File-based guild settings (used when the database is off)
	SettingsDir string

	// Spotify
	SpotifyClientID     string
	SpotifyClientSecret string

	// External tools
	YtDlpPath  string
	FFmpegPath string

	// Logging
	LogLevel  string
	LogFormat string
	LogFile   string

	// Playback
	DefaultVolume int
	Music         MusicConfig
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not exists)
	_ = godotenv.Load()

	botToken := os.Getenv("BOT_TOKEN")
	if botToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN environment variable is required")
	}

	if len(botToken) < 50 {
		return nil, fmt.Errorf("invalid BOT_TOKEN format (too short)")
	}

	cfg, err := loadRuntime()
	if err != nil {
		return nil, err
	}
	cfg.BotToken = botToken
	return cfg, nil
}

// LoadWithoutToken reads everything except the Discord token, for offline CLI commands
func LoadWithoutToken() (*Config, error) {
	_ = godotenv.Load()
	return loadRuntime()
}

func loadRuntime() (*Config, error) {
	useDatabase := getEnvBool("USE_DATABASE", false)
	driver := getEnvOrDefault("DATABASE_DRIVER", "postgres")

	var databaseURL string
	if useDatabase && driver == "postgres" {
		databaseURL = os.Getenv("DATABASE_URL")
		if databaseURL == "" {
			databaseURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
				os.Getenv("POSTGRES_USER"),
				os.Getenv("POSTGRES_PASSWORD"),
				getEnvOrDefault("POSTGRES_HOST", "localhost"),
				getEnvOrDefault("POSTGRES_PORT", "5432"),
				os.Getenv("POSTGRES_DB"))
		}
	}

	cfg := &Config{
		// Bot Settings
		BotName:          getEnvOrDefault("BOT_NAME", "Guild Music Bot"),
		Version:          getEnvOrDefault("VERSION", "1.0.0"),
		StayConnected247: getEnvBool("STAY_CONNECTED_24_7", false),

		// Database
		UseDatabase:    useDatabase,
		DatabaseDriver: driver,
		DatabaseURL:    databaseURL,
		SQLitePath:     getEnvOrDefault("SQLITE_PATH", "./data/music.db"),
		SettingsDir:    getEnvOrDefault("SETTINGS_DIR", "./data/guilds"),

		// Spotify
		SpotifyClientID:     os.Getenv("SPOTIFY_CLIENT_ID"),
		SpotifyClientSecret: os.Getenv("SPOTIFY_CLIENT_SECRET"),

		// External tools
		YtDlpPath:  getEnvOrDefault("YTDLP_PATH", "yt-dlp"),
		FFmpegPath: getEnvOrDefault("FFMPEG_PATH", "ffmpeg"),

		// Logging
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "text"),
		LogFile:   getEnvOrDefault("LOG_FILE", ""),

		// Playback
		DefaultVolume: getEnvInt("DEFAULT_VOLUME", 100),
		Music:         musicFromEnv(DefaultMusicConfig()),
	}

	if cfg.DefaultVolume < 0 || cfg.DefaultVolume > 200 {
		return nil, fmt.Errorf("DEFAULT_VOLUME must be between 0 and 200, got %d", cfg.DefaultVolume)
	}

	switch cfg.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}

	if !cfg.UseDatabase {
		if err := os.MkdirAll(cfg.SettingsDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create settings directory: %w", err)
		}
	}

	return cfg, nil
}

// GetSafeToken returns a masked version of the token for logging
func (c *Config) GetSafeToken() string {
	if len(c.BotToken) < 15 {
		return "***"
	}
	return c.BotToken[:10] + "..." + c.BotToken[len(c.BotToken)-4:]
}

// SpotifyEnabled reports whether Spotify credentials are present
func (c *Config) SpotifyEnabled() bool {
	return c.SpotifyClientID != "" && c.SpotifyClientSecret != ""
}

// Helper functions

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch value {
		case "true", "1", "yes", "True", "TRUE", "YES":
			return true
		case "false", "0", "no", "False", "FALSE", "NO":
			return false
		}
	}
	return defaultValue
}

// getEnvMillis reads a millisecond count, the unit the music settings are documented in
func getEnvMillis(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if ms, err := strconv.Atoi(value); err == nil && ms >= 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultValue
}
