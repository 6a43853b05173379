package http

import (
	"go.uber.org/zap"

	"github.com/mrlokans/kobo-highlights/internal/database"
)

// RouterConfig contains all dependencies needed to create the HTTP router.
// Optional collaborators may be nil; their routes are then not registered
// or fall back to inline behaviour.
type RouterConfig struct {
	// Core dependencies
	Importer ImportRunner
	Database *database.Database
	Settings SettingsStore

	// Run history; defaults to Database when nil
	Runs RunHistory

	// Background task queue; imports run inline when nil
	Tasks ImportEnqueuer

	// Periodic import
	Scheduler SyncScheduler

	// Reports whether the Kobo database is reachable, shown by /health
	DeviceCheck func() error

	// Reports whether notes can be written, shown by /health
	NotesCheck func() error

	// Application info
	Version string

	Logger *zap.Logger
}
