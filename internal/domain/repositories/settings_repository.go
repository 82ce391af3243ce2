package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/entities"
	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/valueobjects"
)

const queryTimeout = 10 * time.Second

var placeholder = regexp.MustCompile(`\$\d+`)

// SQLGuildSettingsRepository implements GuildSettingsRepository on postgres or sqlite
type SQLGuildSettingsRepository struct {
	db     *sql.DB
	sqlite bool
}

// NewSQLGuildSettingsRepository creates a repository. sqlite switches placeholders to '?'.
func NewSQLGuildSettingsRepository(db *sql.DB, sqlite bool) *SQLGuildSettingsRepository {
	return &SQLGuildSettingsRepository{
		db:     db,
		sqlite: sqlite,
	}
}

// rebind rewrites $n placeholders for sqlite. Queries must use them in order.
func (r *SQLGuildSettingsRepository) rebind(query string) string {
	if !r.sqlite {
		return query
	}
	return placeholder.ReplaceAllString(query, "?")
}

// Get loads the settings of a guild
func (r *SQLGuildSettingsRepository) Get(ctx context.Context, guildID string) (*entities.GuildSettings, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var (
		settings entities.GuildSettings
		loopMode string
	)
	err := r.db.QueryRowContext(ctx, r.rebind(`
		SELECT guild_id, volume, loop_mode, text_channel_id, updated_at
		FROM guild_settings
		WHERE guild_id = $1
	`), guildID).Scan(&settings.GuildID, &settings.Volume, &loopMode, &settings.TextChannelID, &settings.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load guild settings: %w", err)
	}

	settings.LoopMode = valueobjects.LoopMode(loopMode)
	if !settings.LoopMode.IsValid() {
		settings.LoopMode = valueobjects.LoopModeNone
	}
	return &settings, nil
}

// Save creates or replaces the settings of a guild
func (r *SQLGuildSettingsRepository) Save(ctx context.Context, settings *entities.GuildSettings) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if settings.UpdatedAt.IsZero() {
		settings.UpdatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, r.rebind(`
		INSERT INTO guild_settings (guild_id, volume, loop_mode, text_channel_id, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (guild_id)
		DO UPDATE SET volume = excluded.volume,
			loop_mode = excluded.loop_mode,
			text_channel_id = excluded.text_channel_id,
			updated_at = excluded.updated_at
	`), settings.GuildID, settings.Volume, string(settings.LoopMode), settings.TextChannelID, settings.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save guild settings: %w", err)
	}
	return nil
}

// Delete removes the settings of a guild
func (r *SQLGuildSettingsRepository) Delete(ctx context.Context, guildID string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, r.rebind(`DELETE FROM guild_settings WHERE guild_id = $1`), guildID)
	if err != nil {
		return fmt.Errorf("failed to delete guild settings: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns every stored guild id
func (r *SQLGuildSettingsRepository) List(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT guild_id FROM guild_settings ORDER BY guild_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list guild settings: %w", err)
	}
	defer rows.Close()

	guilds := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan guild id: %w", err)
		}
		guilds = append(guilds, id)
	}
	return guilds, rows.Err()
}
