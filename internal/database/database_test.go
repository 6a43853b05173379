package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mrlokans/kobo-highlights/internal/entities"
)

func setupTestDB(t *testing.T) (*Database, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "app.db")
	db, err := NewDatabase(dbPath, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, dbPath
}

func TestDatabase(t *testing.T) {
	db, _ := setupTestDB(t)

	t.Run("settings round trip", func(t *testing.T) {
		require.NoError(t, db.SetSetting(entities.SettingKeyAppendMode, "false"))

		setting, err := db.GetSetting(entities.SettingKeyAppendMode)
		require.NoError(t, err)
		assert.Equal(t, "false", setting.Value)

		require.NoError(t, db.DeleteSetting(entities.SettingKeyAppendMode))
		_, err = db.GetSetting(entities.SettingKeyAppendMode)
		assert.Error(t, err)
	})

	t.Run("import runs round trip", func(t *testing.T) {
		run := &entities.ImportRun{
			ID:        "run-1",
			Trigger:   entities.ImportTriggerHTTP,
			Status:    entities.ImportStatusRunning,
			StartedAt: time.Now(),
		}
		require.NoError(t, db.CreateImportRun(run))

		run.Status = entities.ImportStatusCompleted
		require.NoError(t, db.UpdateImportRun(run))

		runs, err := db.ListImportRuns(10)
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, entities.ImportStatusCompleted, runs[0].Status)
	})
}

func TestNewDatabase_FailsInterruptedRuns(t *testing.T) {
	db, dbPath := setupTestDB(t)
	require.NoError(t, db.CreateImportRun(&entities.ImportRun{
		ID:        "interrupted",
		Trigger:   entities.ImportTriggerSchedule,
		Status:    entities.ImportStatusRunning,
		StartedAt: time.Now(),
	}))
	require.NoError(t, db.Close())

	reopened, err := NewDatabase(dbPath, nil)
	require.NoError(t, err)
	defer reopened.Close()

	run, err := reopened.GetImportRun("interrupted")
	require.NoError(t, err)
	assert.Equal(t, entities.ImportStatusFailed, run.Status)
	assert.NotEmpty(t, run.Error)
}
