package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/entities"
	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/repositories"
	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/valueobjects"
)

var _ repositories.GuildSettingsRepository = (*SettingsRepository)(nil)

// SettingsRepository stores guild settings as one JSON file per guild
type SettingsRepository struct {
	basePath string
	mu       sync.RWMutex
}

// NewSettingsRepository creates a file-backed settings repository
func NewSettingsRepository(basePath string) (*SettingsRepository, error) {
	// Ensure base path exists
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create settings directory: %w", err)
	}

	return &SettingsRepository{
		basePath: basePath,
	}, nil
}

// Get loads a guild's settings from its JSON file
func (r *SettingsRepository) Get(ctx context.Context, guildID string) (*entities.GuildSettings, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := os.Open(r.getFilePath(guildID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to open settings file: %w", err)
	}
	defer file.Close()

	var settings entities.GuildSettings
	if err := json.NewDecoder(file).Decode(&settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}

	if !settings.LoopMode.IsValid() {
		settings.LoopMode = valueobjects.LoopModeNone
	}
	return &settings, nil
}

// Save writes a guild's settings with an atomic rename
func (r *SettingsRepository) Save(ctx context.Context, settings *entities.GuildSettings) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if settings.UpdatedAt.IsZero() {
		settings.UpdatedAt = time.Now()
	}

	filePath := r.getFilePath(settings.GuildID)

	// Atomic write using temp file
	tempPath := filePath + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(settings); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tempPath, filePath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Delete removes a guild's settings file
func (r *SettingsRepository) Delete(ctx context.Context, guildID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.Remove(r.getFilePath(guildID)); err != nil {
		if os.IsNotExist(err) {
			return repositories.ErrNotFound
		}
		return fmt.Errorf("failed to delete settings: %w", err)
	}
	return nil
}

// List returns the guild ids with a settings file
func (r *SettingsRepository) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	files, err := os.ReadDir(r.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings directory: %w", err)
	}

	guilds := make([]string, 0)
	for _, file := range files {
		name := file.Name()
		if file.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		guilds = append(guilds, strings.TrimSuffix(name, ".json"))
	}
	return guilds, nil
}

// getFilePath returns the settings file of a guild
func (r *SettingsRepository) getFilePath(guildID string) string {
	return filepath.Join(r.basePath, sanitizeFilename(guildID)+".json")
}

// sanitizeFilename replaces everything but letters, digits, '-' and '_'
func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, char := range name {
		if (char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '-' || char == '_' {
			b.WriteRune(char)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
