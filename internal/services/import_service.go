package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mrlokans/kobo-highlights/internal/entities"
	"github.com/mrlokans/kobo-highlights/internal/exporters"
	"github.com/mrlokans/kobo-highlights/internal/importers"
	"github.com/mrlokans/kobo-highlights/internal/location"
	"github.com/mrlokans/kobo-highlights/internal/logging"
	"github.com/mrlokans/kobo-highlights/internal/storage"
)

var (
	// ErrNoHighlights is returned when the device holds no highlights to import.
	ErrNoHighlights = errors.New("no highlights found")
	// ErrImportInProgress is returned when a run is requested while another is active.
	ErrImportInProgress = errors.New("an import is already running")
)

const noteExtension = ".md"

// ImportService runs the import pipeline: read the device database, aggregate
// highlights per book and write or extend one note per book.
type ImportService struct {
	open     BookSourceOpener
	settings SettingsProvider
	store    storage.NoteStore
	renderer *exporters.NoteRenderer
	recorder RunRecorder
	logger   *zap.Logger

	mu sync.Mutex
}

// Option configures an ImportService.
type Option func(*ImportService)

// WithRunRecorder records every non-dry run in the import history.
func WithRunRecorder(recorder RunRecorder) Option {
	return func(s *ImportService) { s.recorder = recorder }
}

// WithRenderer replaces the default note renderer.
func WithRenderer(renderer *exporters.NoteRenderer) Option {
	return func(s *ImportService) { s.renderer = renderer }
}

// WithLogger sets the logger; nil disables logging.
func WithLogger(logger *zap.Logger) Option {
	return func(s *ImportService) { s.logger = logging.OrNop(logger) }
}

// NewImportService creates a new ImportService.
func NewImportService(open BookSourceOpener, settings SettingsProvider, store storage.NoteStore, opts ...Option) *ImportService {
	s := &ImportService{
		open:     open,
		settings: settings,
		store:    store,
		renderer: exporters.NewNoteRenderer(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run performs one import with the stored settings.
func (s *ImportService) Run(ctx context.Context, trigger entities.ImportTrigger) (ImportResult, error) {
	return s.RunWithOptions(ctx, RunOptions{Trigger: trigger})
}

// RunWithOptions performs one import. Books are processed one at a time in
// title order. A storage failure aborts the run; notes already written stay.
func (s *ImportService) RunWithOptions(ctx context.Context, opts RunOptions) (ImportResult, error) {
	if !s.mu.TryLock() {
		return ImportResult{}, ErrImportInProgress
	}
	defer s.mu.Unlock()

	run := s.startRun(opts)
	result, err := s.run(ctx, opts)
	result.RunID = run.ID
	s.finishRun(run, result, err)

	return result, err
}

func (s *ImportService) run(ctx context.Context, opts RunOptions) (ImportResult, error) {
	result := ImportResult{DryRun: opts.DryRun}

	settings := s.settings.GetImportSettings()
	if opts.IncludeStoreBought != nil {
		settings.IncludeStoreBought = *opts.IncludeStoreBought
	}

	books, table, err := s.load(ctx, settings.IncludeStoreBought)
	if err != nil {
		return result, err
	}
	if len(books) == 0 {
		return result, ErrNoHighlights
	}

	if !opts.DryRun {
		if err := s.store.EnsureFolder(ctx, settings.OutputFolder); err != nil {
			return result, fmt.Errorf("failed to create output folder: %w", err)
		}
	}

	for _, book := range books {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		note, err := s.syncNote(ctx, book, settings, table, opts)
		if err != nil {
			return result, fmt.Errorf("failed to write note for %q: %w", book.Book.Title, err)
		}

		result.BooksProcessed++
		result.HighlightsWritten += note.NewHighlights
		switch note.Action {
		case NoteCreated:
			result.NotesCreated++
		case NoteUpdated, NoteOverwritten:
			result.NotesUpdated++
		case NoteUnchanged:
			result.NotesUnchanged++
		}
		result.Notes = append(result.Notes, note)

		s.logger.Info("note processed",
			zap.String("book", book.Book.Title),
			zap.String("path", note.Path),
			zap.String("action", string(note.Action)),
			zap.Int("new_highlights", note.NewHighlights),
			zap.Bool("dry_run", opts.DryRun),
		)
	}

	return result, nil
}

// load reads the device database and aggregates its rows into books.
func (s *ImportService) load(ctx context.Context, includeStoreBought bool) ([]entities.BookWithHighlights, location.ChapterTable, error) {
	source, err := s.open()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open kobo database: %w", err)
	}

	meta, err := source.ListBooks(ctx, includeStoreBought)
	if err != nil {
		return nil, nil, err
	}
	raw, err := source.ListHighlights(ctx, includeStoreBought)
	if err != nil {
		return nil, nil, err
	}
	chapters, err := source.ChapterRows(ctx)
	if err != nil {
		return nil, nil, err
	}

	books := importers.Aggregate(raw, importers.NewBookIndex(meta))
	table := location.BuildChapterTable(chapters)

	s.logger.Debug("device database read",
		zap.Int("volumes", len(meta)),
		zap.Int("bookmarks", len(raw)),
		zap.Int("chapters", len(chapters)),
		zap.Int("books_with_highlights", len(books)),
	)

	return books, table, nil
}

func (s *ImportService) syncNote(ctx context.Context, book entities.BookWithHighlights, settings entities.ImportSettings, table location.ChapterTable, opts RunOptions) (NoteResult, error) {
	notePath := NotePath(settings, book.Book.Title)
	result := NoteResult{Title: book.Book.Title, Path: notePath}

	existing, found, err := s.store.ReadNote(ctx, notePath)
	if err != nil {
		return result, err
	}

	var content string
	switch {
	case found && settings.AppendMode && !opts.Overwrite:
		updated, added := s.renderer.AppendToNote(existing, book, settings, table)
		if added == 0 {
			result.Action = NoteUnchanged
			return result, nil
		}
		content = updated
		result.Action = NoteUpdated
		result.NewHighlights = added
	case found:
		content = s.renderer.RenderNewNote(book, settings, table)
		result.Action = NoteOverwritten
		result.NewHighlights = book.HighlightCount()
	default:
		content = s.renderer.RenderNewNote(book, settings, table)
		result.Action = NoteCreated
		result.NewHighlights = book.HighlightCount()
	}

	if opts.DryRun {
		return result, nil
	}
	return result, s.store.WriteNote(ctx, notePath, content)
}

// Preview renders, without writing, the note of every book whose title
// contains query (case-insensitive). An empty query previews every book.
func (s *ImportService) Preview(ctx context.Context, query string) ([]NotePreview, error) {
	settings := s.settings.GetImportSettings()

	books, table, err := s.load(ctx, settings.IncludeStoreBought)
	if err != nil {
		return nil, err
	}
	if len(books) == 0 {
		return nil, ErrNoHighlights
	}

	query = strings.ToLower(strings.TrimSpace(query))
	var previews []NotePreview
	for _, book := range books {
		if query != "" && !strings.Contains(strings.ToLower(book.Book.Title), query) {
			continue
		}
		previews = append(previews, NotePreview{
			Title:      book.Book.Title,
			Path:       NotePath(settings, book.Book.Title),
			Highlights: book.HighlightCount(),
			Content:    s.renderer.RenderNewNote(book, settings, table),
		})
	}
	return previews, nil
}

// NotePath returns the note location of a book inside the output folder.
func NotePath(settings entities.ImportSettings, title string) string {
	return path.Join(settings.OutputFolder, exporters.NoteFilename(settings.FilenameTemplate, title)+noteExtension)
}

func (s *ImportService) startRun(opts RunOptions) *entities.ImportRun {
	run := &entities.ImportRun{
		ID:        uuid.NewString(),
		Trigger:   opts.Trigger,
		Status:    entities.ImportStatusRunning,
		StartedAt: time.Now().UTC(),
	}

	s.logger.Info("import started",
		zap.String("run_id", run.ID),
		zap.String("trigger", string(opts.Trigger)),
		zap.Bool("dry_run", opts.DryRun),
	)

	if s.recorder != nil && !opts.DryRun {
		if err := s.recorder.CreateImportRun(run); err != nil {
			s.logger.Warn("failed to record import run", zap.String("run_id", run.ID), zap.Error(err))
		}
	}
	return run
}

func (s *ImportService) finishRun(run *entities.ImportRun, result ImportResult, runErr error) {
	completed := time.Now().UTC()
	run.CompletedAt = &completed
	run.BooksProcessed = result.BooksProcessed
	run.NotesCreated = result.NotesCreated
	run.NotesUpdated = result.NotesUpdated
	run.NotesUnchanged = result.NotesUnchanged
	run.HighlightsWritten = result.HighlightsWritten
	run.Status = entities.ImportStatusCompleted
	if runErr != nil {
		run.Status = entities.ImportStatusFailed
		run.Error = runErr.Error()
	}

	fields := []zap.Field{
		zap.String("run_id", run.ID),
		zap.String("status", string(run.Status)),
		zap.Int("books", result.BooksProcessed),
		zap.Int("created", result.NotesCreated),
		zap.Int("updated", result.NotesUpdated),
		zap.Int("unchanged", result.NotesUnchanged),
		zap.Int("highlights_written", result.HighlightsWritten),
		zap.Duration("duration", completed.Sub(run.StartedAt)),
	}
	if runErr != nil {
		s.logger.Error("import failed", append(fields, zap.Error(runErr))...)
	} else {
		s.logger.Info("import completed", fields...)
	}

	if s.recorder != nil && !result.DryRun {
		if err := s.recorder.UpdateImportRun(run); err != nil {
			s.logger.Warn("failed to update import run", zap.String("run_id", run.ID), zap.Error(err))
		}
	}
}

// Summary formats a result as a one-line status message.
func (r ImportResult) Summary() string {
	return fmt.Sprintf("%d books: %d created, %d updated, %d unchanged, %d highlights written",
		r.BooksProcessed, r.NotesCreated, r.NotesUpdated, r.NotesUnchanged, r.HighlightsWritten)
}
