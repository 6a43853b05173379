package http

import (
	"context"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/kobo-highlights/internal/entities"
	"github.com/mrlokans/kobo-highlights/internal/services"
	"github.com/mrlokans/kobo-highlights/internal/settingsstore"
)

// ImportRunner runs an import synchronously.
type ImportRunner interface {
	Run(ctx context.Context, trigger entities.ImportTrigger) (services.ImportResult, error)
	Preview(ctx context.Context, query string) ([]services.NotePreview, error)
}

// ImportEnqueuer hands an import to the background task queue.
type ImportEnqueuer interface {
	EnqueueImport(trigger entities.ImportTrigger) (string, error)
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

// RunHistory reads recorded import runs.
type RunHistory interface {
	ListImportRuns(limit int) ([]entities.ImportRun, error)
	GetImportRun(id string) (*entities.ImportRun, error)
}

// SettingsStore is the subset of settingsstore used by the settings endpoints.
type SettingsStore interface {
	GetImportSettingsInfo() settingsstore.ImportSettingsInfo
	UpdateImportSettings(update settingsstore.ImportSettingsUpdate) error
	ClearImportSettings() error
	GetKoboDatabasePath() string
	GetKoboDatabasePathSource() string
	SetKoboDatabasePath(path string) error
	GetKoboSyncConfigInfo() settingsstore.KoboSyncConfigInfo
	GetKoboSyncStatus() settingsstore.KoboSyncStatus
	SetKoboSyncEnabled(enabled bool) error
	SetKoboSyncSchedule(schedule string) error
	ClearKoboSyncSettings() error
}

// SyncScheduler is the periodic import the settings endpoints reconfigure.
type SyncScheduler interface {
	Reschedule(ctx context.Context) error
	IsRunning() bool
	GetNextRunTime() *time.Time
}
