package repositories

import (
	"context"
	"errors"

	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/entities"
)

// ErrNotFound is returned when a guild has no stored settings
var ErrNotFound = errors.New("guild settings not found")

// GuildSettingsRepository defines the contract for guild settings storage
type GuildSettingsRepository interface {
	// Get loads the settings of a guild, ErrNotFound when there are none
	Get(ctx context.Context, guildID string) (*entities.GuildSettings, error)

	// Save creates or replaces the settings of a guild
	Save(ctx context.Context, settings *entities.GuildSettings) error

	// Delete removes the settings of a guild
	Delete(ctx context.Context, guildID string) error

	// List returns every stored guild id
	List(ctx context.Context) ([]string, error)
}
