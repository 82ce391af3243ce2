package entities

import (
	"time"

	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/valueobjects"
)

// GuildSettings are the per-guild playback preferences that survive restarts
type GuildSettings struct {
	GuildID       string                `json:"guild_id"`
	Volume        int                   `json:"volume"`
	LoopMode      valueobjects.LoopMode `json:"loop_mode"`
	TextChannelID string                `json:"text_channel_id,omitempty"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// NewGuildSettings returns defaults for a guild
func NewGuildSettings(guildID string, volume int) *GuildSettings {
	if volume < MinVolume || volume > MaxVolume {
		volume = DefaultVolume
	}
	return &GuildSettings{
		GuildID:   guildID,
		Volume:    volume,
		LoopMode:  valueobjects.LoopModeNone,
		UpdatedAt: time.Now(),
	}
}

// ApplyTo copies the settings onto a queue, ignoring invalid values
func (s *GuildSettings) ApplyTo(q *Queue) {
	_ = q.SetVolume(s.Volume)
	_ = q.SetLoopMode(s.LoopMode)
	if s.TextChannelID != "" && q.TextChannelID() == "" {
		q.SetTextChannelID(s.TextChannelID)
	}
}

// CaptureFrom refreshes the settings from a queue
func (s *GuildSettings) CaptureFrom(q *Queue) {
	s.Volume = q.Volume()
	s.LoopMode = q.LoopMode()
	if ch := q.TextChannelID(); ch != "" {
		s.TextChannelID = ch
	}
	s.UpdatedAt = time.Now()
}
