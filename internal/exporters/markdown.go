package exporters

import (
	"strings"
	"time"

	"github.com/mrlokans/kobo-highlights/internal/entities"
	"github.com/mrlokans/kobo-highlights/internal/location"
	"github.com/mrlokans/kobo-highlights/internal/templating"
	"github.com/mrlokans/kobo-highlights/internal/utils"
)

// SourceName is the value of the {{source}} template variable.
const SourceName = "kobo"

// NoteRenderer builds note text from templates. It performs no I/O; the only
// ambient input is the clock used for the {{date}} variable.
type NoteRenderer struct {
	now func() time.Time
}

// NewNoteRenderer creates a renderer that uses the wall clock.
func NewNoteRenderer() *NoteRenderer {
	return &NoteRenderer{now: time.Now}
}

// NewNoteRendererWithClock creates a renderer that reads the current time from now.
func NewNoteRendererWithClock(now func() time.Time) *NoteRenderer {
	return &NoteRenderer{now: now}
}

// BookContext returns the book-scope template variables.
func (r *NoteRenderer) BookContext(book entities.BookWithHighlights) templating.Context {
	ctx := templating.Context{
		"title":            book.Book.Title,
		"author":           book.Book.Author,
		"progress":         book.Book.Percent,
		"highlights_count": book.HighlightCount(),
		"source":           SourceName,
		"date":             r.now().Format(time.RFC3339),
		"content_id":       book.Book.ID,
	}
	if book.Book.Pages != nil {
		ctx["pages"] = *book.Book.Pages
	}
	if book.Book.DateLastRead != nil {
		ctx["date_last_read"] = book.Book.DateLastRead.Format(time.RFC3339)
	}
	return ctx
}

// HighlightContext overlays the highlight-scope variables on a book context.
// location is left unset when the position cannot be resolved.
func (r *NoteRenderer) HighlightContext(base templating.Context, h entities.ProcessedHighlight, table location.ChapterTable) templating.Context {
	ctx := templating.Context{
		"text":             h.Text,
		"annotation":       h.Annotation,
		"chapter_progress": h.ChapterProgress,
		"date_created":     h.DateCreatedRaw,
		"bookmark_id":      h.ID,
	}
	if !h.DateCreated.IsZero() {
		ctx["date_created"] = h.DateCreated.Format(time.RFC3339)
	}
	if percent, ok := location.ResolveLocation(h.ContentID, h.ChapterProgress, table); ok {
		ctx["location"] = percent
	}
	return base.Merge(ctx)
}

// RenderNewNote renders the full note for a book: frontmatter, page metadata
// and one block per highlight.
func (r *NoteRenderer) RenderNewNote(book entities.BookWithHighlights, settings entities.ImportSettings, table location.ChapterTable) string {
	base := r.BookContext(book)

	parts := []string{
		templating.Render(settings.FrontmatterTemplate, base),
		"",
		templating.Render(settings.PageMetadataTemplate, base),
		"",
	}
	for _, h := range book.Highlights {
		parts = append(parts, templating.Render(settings.HighlightTemplate, r.HighlightContext(base, h, table)))
	}

	return strings.Join(parts, "\n")
}

// AppendToNote appends the highlights not yet present in existing under a sync
// header. It returns existing unchanged and zero when nothing is new.
func (r *NoteRenderer) AppendToNote(existing string, book entities.BookWithHighlights, settings entities.ImportSettings, table location.ChapterTable) (string, int) {
	index := NewPassageIndex(existing)
	base := r.BookContext(book)

	var blocks []string
	for _, h := range book.Highlights {
		block := templating.Render(settings.HighlightTemplate, r.HighlightContext(base, h, table))
		if index.Seen(h, block) {
			continue
		}
		index.Add(h, block)
		blocks = append(blocks, block)
	}

	if len(blocks) == 0 {
		return existing, 0
	}

	parts := []string{
		"",
		templating.Render(settings.SyncHeaderTemplate, base),
		"",
	}
	parts = append(parts, blocks...)

	return existing + "\n" + strings.Join(parts, "\n"), len(blocks)
}

// NoteFilename renders the filename template for a title and sanitizes the result.
// The ".md" extension is not included.
func NoteFilename(template, title string) string {
	return utils.SanitizeFilename(templating.Render(template, templating.Context{"title": title}))
}
