package interfaces

// Compile-time interface implementation checks.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/kobo-highlights/internal/database"
	"github.com/mrlokans/kobo-highlights/internal/http"
	"github.com/mrlokans/kobo-highlights/internal/kobo"
	"github.com/mrlokans/kobo-highlights/internal/scheduler"
	"github.com/mrlokans/kobo-highlights/internal/services"
	"github.com/mrlokans/kobo-highlights/internal/settingsstore"
	"github.com/mrlokans/kobo-highlights/internal/storage"
	"github.com/mrlokans/kobo-highlights/internal/tasks"
)

// =============================================================================
// Import Collaborators
// =============================================================================

var _ services.BookSource = (*kobo.Reader)(nil)
var _ storage.NoteStore = (*storage.FSNoteStore)(nil)
var _ services.SettingsProvider = (*settingsstore.SettingsStore)(nil)
var _ services.RunRecorder = (*database.Database)(nil)

// =============================================================================
// Persistence
// =============================================================================

var _ settingsstore.SettingsDB = (*database.Database)(nil)

// =============================================================================
// Orchestration
// =============================================================================

var _ scheduler.Importer = (*services.ImportService)(nil)
var _ scheduler.SyncSettings = (*settingsstore.SettingsStore)(nil)
var _ tasks.Importer = (*services.ImportService)(nil)

// =============================================================================
// HTTP
// =============================================================================

var _ http.ImportRunner = (*services.ImportService)(nil)
var _ http.ImportEnqueuer = (*tasks.Client)(nil)
var _ http.RunHistory = (*database.Database)(nil)
var _ http.SettingsStore = (*settingsstore.SettingsStore)(nil)
var _ http.SyncScheduler = (*scheduler.KoboSyncScheduler)(nil)
