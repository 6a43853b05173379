package services

import (
	"context"

	"github.com/mrlokans/kobo-highlights/internal/entities"
	"github.com/mrlokans/kobo-highlights/internal/location"
)

// BookSource yields the raw rows of the device database.
type BookSource interface {
	ListBooks(ctx context.Context, includeStoreBought bool) ([]entities.RawBookMeta, error)
	ListHighlights(ctx context.Context, includeStoreBought bool) ([]entities.RawHighlight, error)
	ChapterRows(ctx context.Context) ([]location.ChapterRow, error)
}

// BookSourceOpener opens the device database for one run. The device may be
// connected or disconnected between runs, so sources are never cached.
type BookSourceOpener func() (BookSource, error)

// SettingsProvider returns the effective import settings.
type SettingsProvider interface {
	GetImportSettings() entities.ImportSettings
}

// RunRecorder persists the import run history.
type RunRecorder interface {
	CreateImportRun(run *entities.ImportRun) error
	UpdateImportRun(run *entities.ImportRun) error
}

// NoteAction is what an import run did to one note.
type NoteAction string

const (
	NoteCreated     NoteAction = "created"
	NoteUpdated     NoteAction = "updated"
	NoteOverwritten NoteAction = "overwritten"
	NoteUnchanged   NoteAction = "unchanged"
)

// NoteResult describes the outcome for a single book.
type NoteResult struct {
	Title         string     `json:"title"`
	Path          string     `json:"path"`
	Action        NoteAction `json:"action"`
	NewHighlights int        `json:"new_highlights"`
}

// ImportResult contains the outcome of an import run.
type ImportResult struct {
	RunID             string       `json:"run_id,omitempty"`
	BooksProcessed    int          `json:"books_processed"`
	NotesCreated      int          `json:"notes_created"`
	NotesUpdated      int          `json:"notes_updated"`
	NotesUnchanged    int          `json:"notes_unchanged"`
	HighlightsWritten int          `json:"highlights_written"`
	DryRun            bool         `json:"dry_run,omitempty"`
	Notes             []NoteResult `json:"notes"`
}

// RunOptions adjusts a single run without changing the stored settings.
type RunOptions struct {
	Trigger entities.ImportTrigger
	// DryRun renders every note but writes nothing.
	DryRun bool
	// Overwrite regenerates existing notes even when append mode is on.
	Overwrite bool
	// IncludeStoreBought overrides the setting when non-nil.
	IncludeStoreBought *bool
}

// NotePreview is a note as an import run would write it from scratch.
type NotePreview struct {
	Title      string `json:"title"`
	Path       string `json:"path"`
	Highlights int    `json:"highlights"`
	Content    string `json:"content"`
}
