package persistence

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/entities"
	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/repositories"
	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/valueobjects"
)

func TestSettingsRoundTrip(t *testing.T) {
	repo, err := NewSettingsRepository(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if _, err := repo.Get(ctx, "123"); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	settings := entities.NewGuildSettings("123", 70)
	settings.LoopMode = valueobjects.LoopModeSong
	if err := repo.Save(ctx, settings); err != nil {
		t.Fatal(err)
	}

	got, err := repo.Get(ctx, "123")
	if err != nil {
		t.Fatal(err)
	}
	if got.Volume != 70 || got.LoopMode != valueobjects.LoopModeSong {
		t.Errorf("Unexpected settings %+v", got)
	}

	guilds, err := repo.List(ctx)
	if err != nil || len(guilds) != 1 || guilds[0] != "123" {
		t.Errorf("Expected [123], got %v / %v", guilds, err)
	}

	if err := repo.Delete(ctx, "123"); err != nil {
		t.Fatal(err)
	}
	if err := repo.Delete(ctx, "123"); !errors.Is(err, repositories.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestSaveLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	repo, _ := NewSettingsRepository(dir)

	if err := repo.Save(context.Background(), entities.NewGuildSettings("g1", 100)); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(dir, "g1.json.tmp")); !os.IsNotExist(err) {
		t.Error("Expected temp file to be renamed away")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"123456789", "123456789"},
		{"../etc/passwd", "___etc_passwd"},
		{"guild id", "guild_id"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, expected %q", tt.in, got, tt.want)
		}
	}
}
