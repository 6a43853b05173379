// Package interfaces documents the seams between the import engine and its
// collaborators, and asserts at compile time that the concrete types fit.
//
// # Import Collaborators
//
//   - services.BookSource: rows of the device database (kobo.Reader)
//   - storage.NoteStore: read and write notes by path (storage.FSNoteStore over afero)
//   - services.SettingsProvider: effective import settings (settingsstore.SettingsStore)
//   - services.RunRecorder: import run history (database.Database)
//
// # Orchestration
//
// scheduler.Importer and tasks.Importer are both satisfied by
// services.ImportService. Every trigger goes through ImportService, which
// allows one run at a time and returns services.ErrImportInProgress otherwise.
//
// # HTTP
//
// The http package depends only on small interfaces (ImportRunner,
// ImportEnqueuer, RunHistory, SettingsStore, SyncScheduler) so handlers are
// tested with fakes and a temporary application database.
package interfaces
