package database_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vuongmanhnghia/guild-music-bot/internal/database"
	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/entities"
	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/repositories"
	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/valueobjects"
)

func openSQLite(t *testing.T) *database.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "nested", "music.db")
	db, err := database.Connect(context.Background(), database.DefaultConfig(database.DriverSQLite, "", path))
	if err != nil {
		if strings.Contains(err.Error(), "CGO_ENABLED=0") {
			t.Skipf("sqlite3 needs cgo: %v", err)
		}
		t.Fatal(err)
	}
	t.Cleanup(db.Close)
	return db
}

func TestConnectUnsupportedDriver(t *testing.T) {
	_, err := database.Connect(context.Background(), database.DefaultConfig("mysql", "", ""))
	if err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("Expected unsupported driver error, got %v", err)
	}
}

func TestSQLiteMigrationsAndSettings(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	if err := db.RunMigrations(ctx); err != nil {
		t.Fatal(err)
	}
	// Already applied migrations are skipped
	if err := db.RunMigrations(ctx); err != nil {
		t.Fatalf("Second migration run failed: %v", err)
	}
	if err := db.Health(ctx); err != nil {
		t.Fatal(err)
	}

	repo := repositories.NewSQLGuildSettingsRepository(db.SQL, true)

	if _, err := repo.Get(ctx, "g1"); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound before saving, got %v", err)
	}

	settings := entities.NewGuildSettings("g1", 80)
	settings.LoopMode = valueobjects.LoopModeQueue
	if err := repo.Save(ctx, settings); err != nil {
		t.Fatal(err)
	}

	// Upsert
	settings.Volume = 150
	if err := repo.Save(ctx, settings); err != nil {
		t.Fatal(err)
	}

	got, err := repo.Get(ctx, "g1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Volume != 150 || got.LoopMode != valueobjects.LoopModeQueue {
		t.Errorf("Unexpected settings %+v", got)
	}

	ids, err := repo.List(ctx)
	if err != nil || len(ids) != 1 || ids[0] != "g1" {
		t.Errorf("Expected [g1], got %v / %v", ids, err)
	}

	if err := repo.Delete(ctx, "g1"); err != nil {
		t.Fatal(err)
	}
	if err := repo.Delete(ctx, "g1"); !errors.Is(err, repositories.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}
