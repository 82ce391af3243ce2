package config

import (
	"time"

	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/valueobjects"
)

// MusicConfig tunes resolution, acquisition and buffering
type MusicConfig struct {
	// Playlists
	MaxPlaylistTracks int
	PlaylistBatchSize int
	BufferSize        int

	// Streams
	MaxStreamRetries  int
	StreamTimeout     time.Duration
	FallbackQualities []valueobjects.Quality

	// Search
	SearchTimeout    time.Duration
	SearchRetryDelay time.Duration
	RateLimitDelay   time.Duration

	// Voice
	ConnectionTimeout time.Duration
	JoinTimeout       time.Duration
	ReconnectTimeout  time.Duration
}

// DefaultMusicConfig returns the balanced preset
func DefaultMusicConfig() MusicConfig {
	return MusicConfig{
		MaxPlaylistTracks: 50,
		PlaylistBatchSize: 5,
		BufferSize:        3,

		MaxStreamRetries: 3,
		StreamTimeout:    15 * time.Second,
		FallbackQualities: []valueobjects.Quality{
			valueobjects.QualityHigh,
			valueobjects.QualityMedium,
			valueobjects.QualityLow,
		},

		SearchTimeout:    8 * time.Second,
		SearchRetryDelay: 500 * time.Millisecond,
		RateLimitDelay:   500 * time.Millisecond,

		ConnectionTimeout: 5 * time.Second,
		JoinTimeout:       30 * time.Second,
		ReconnectTimeout:  5 * time.Second,
	}
}

// QuickMusicConfig favours latency for small playlists
func QuickMusicConfig() MusicConfig {
	cfg := DefaultMusicConfig()
	cfg.MaxPlaylistTracks = 25
	cfg.SearchTimeout = 6 * time.Second
	cfg.RateLimitDelay = 300 * time.Millisecond
	return cfg
}

// QualityMusicConfig favours completeness for large playlists
func QualityMusicConfig() MusicConfig {
	cfg := DefaultMusicConfig()
	cfg.MaxPlaylistTracks = 100
	cfg.SearchTimeout = 12 * time.Second
	cfg.MaxStreamRetries = 5
	cfg.RateLimitDelay = time.Second
	return cfg
}

// OptimalConfig picks a preset from the number of tracks in a playlist
func OptimalConfig(trackCount int) MusicConfig {
	switch {
	case trackCount <= 10:
		return DefaultMusicConfig()
	case trackCount <= 30:
		return QuickMusicConfig()
	default:
		return QualityMusicConfig()
	}
}

func musicFromEnv(base MusicConfig) MusicConfig {
	base.MaxPlaylistTracks = getEnvInt("MAX_PLAYLIST_TRACKS", base.MaxPlaylistTracks)
	base.PlaylistBatchSize = getEnvInt("PLAYLIST_BATCH_SIZE", base.PlaylistBatchSize)
	base.BufferSize = getEnvInt("PLAYLIST_BUFFER_SIZE", base.BufferSize)
	base.MaxStreamRetries = getEnvInt("MAX_STREAM_RETRIES", base.MaxStreamRetries)
	base.StreamTimeout = getEnvMillis("STREAM_TIMEOUT_MS", base.StreamTimeout)
	base.SearchTimeout = getEnvMillis("SEARCH_TIMEOUT_MS", base.SearchTimeout)
	base.SearchRetryDelay = getEnvMillis("SEARCH_RETRY_DELAY_MS", base.SearchRetryDelay)
	base.RateLimitDelay = getEnvMillis("RATE_LIMIT_DELAY_MS", base.RateLimitDelay)
	base.ConnectionTimeout = getEnvMillis("CONNECTION_TIMEOUT_MS", base.ConnectionTimeout)

	if base.BufferSize < 1 {
		base.BufferSize = 1
	}
	if base.MaxStreamRetries < 1 {
		base.MaxStreamRetries = 1
	}
	return base
}
