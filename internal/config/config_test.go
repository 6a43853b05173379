package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, int32(8188), cfg.HTTP.Port)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Kobo.DatabasePath)
	assert.False(t, cfg.Kobo.IncludeStoreBought)
	assert.Equal(t, DefaultNotesOutputDir, cfg.Notes.OutputDir)
	assert.False(t, cfg.KoboSync.Enabled)
	assert.Equal(t, DefaultKoboSyncSchedule, cfg.KoboSync.Schedule)
	assert.Equal(t, 5*time.Second, cfg.Watch.Debounce)
	assert.True(t, cfg.Tasks.Enabled)
	assert.Equal(t, 15*time.Minute, cfg.Tasks.ReleaseAfter)
	assert.Equal(t, DefaultTaskDatabasePath, cfg.Tasks.DatabasePath)
}

func TestNewConfig_Environment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("KOBO_DATABASE_PATH", "/media/me/KOBOeReader/.kobo/KoboReader.sqlite")
	t.Setenv("KOBO_INCLUDE_STORE_BOUGHT", "true")
	t.Setenv("NOTES_OUTPUT_DIR", "/home/me/vault")
	t.Setenv("KOBO_SYNC_ENABLED", "1")
	t.Setenv("KOBO_WATCH_DEBOUNCE", "30s")
	t.Setenv("TASKS_ENABLED", "false")

	cfg := NewConfig()

	assert.Equal(t, int32(9000), cfg.HTTP.Port)
	assert.Equal(t, "/media/me/KOBOeReader/.kobo/KoboReader.sqlite", cfg.Kobo.DatabasePath)
	assert.True(t, cfg.Kobo.IncludeStoreBought)
	assert.Equal(t, "/home/me/vault", cfg.Notes.OutputDir)
	assert.True(t, cfg.KoboSync.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Watch.Debounce)
	assert.False(t, cfg.Tasks.Enabled)
}
