// Package kobo reads highlights and book metadata from a Kobo device database
// (KoboReader.sqlite). The database is always opened read-only.
package kobo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mrlokans/kobo-highlights/internal/entities"
	"github.com/mrlokans/kobo-highlights/internal/location"
)

// ErrDatabaseNotFound is returned when no KoboReader.sqlite exists at the given path.
var ErrDatabaseNotFound = errors.New("kobo database not found")

const (
	contentTypeBook    = 6
	contentTypeChapter = 899

	// sideloadedPrefix marks volumes copied onto the device rather than bought in the store.
	sideloadedPrefix = "file://%"
)

type Reader struct {
	dbPath string
}

// DefaultDatabasePath returns the first existing KoboReader.sqlite on the usual mount points.
func DefaultDatabasePath() (string, error) {
	var candidates []string

	switch runtime.GOOS {
	case "darwin":
		candidates = append(candidates, filepath.Join("/Volumes", "KOBOeReader", ".kobo", "KoboReader.sqlite"))
	case "linux":
		if user := os.Getenv("USER"); user != "" {
			candidates = append(candidates,
				filepath.Join("/media", user, "KOBOeReader", ".kobo", "KoboReader.sqlite"),
				filepath.Join("/run/media", user, "KOBOeReader", ".kobo", "KoboReader.sqlite"),
			)
		}
		candidates = append(candidates, filepath.Join("/media", "KOBOeReader", ".kobo", "KoboReader.sqlite"))
	default:
		return "", fmt.Errorf("no default Kobo mount point on %s", runtime.GOOS)
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: is the device connected?", ErrDatabaseNotFound)
}

// NewReader creates a reader for dbPath. An empty path means DefaultDatabasePath.
func NewReader(dbPath string) (*Reader, error) {
	if dbPath == "" {
		var err error
		dbPath, err = DefaultDatabasePath()
		if err != nil {
			return nil, err
		}
	}

	info, err := os.Stat(dbPath)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrDatabaseNotFound, dbPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat kobo database: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrDatabaseNotFound, dbPath)
	}

	return &Reader{dbPath: dbPath}, nil
}

func (r *Reader) DatabasePath() string {
	return r.dbPath
}

func (r *Reader) open() (*sql.DB, error) {
	db, err := sql.Open("sqlite3", "file:"+r.dbPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open kobo database: %w", err)
	}
	return db, nil
}

// ListBooks returns the metadata of every book volume on the device.
func (r *Reader) ListBooks(ctx context.Context, includeStoreBought bool) ([]entities.RawBookMeta, error) {
	db, err := r.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	query := `
		SELECT
			ContentID,
			Title,
			BookTitle,
			Attribution,
			___NumPages,
			DateLastRead,
			___PercentRead
		FROM content
		WHERE ContentType = ?
			AND (? OR ContentID LIKE ?)
	`

	rows, err := db.QueryContext(ctx, query, contentTypeBook, includeStoreBought, sideloadedPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to query books: %w", err)
	}
	defer rows.Close()

	var books []entities.RawBookMeta
	for rows.Next() {
		var b entities.RawBookMeta
		var title, bookTitle, author, lastRead sql.NullString
		var pages sql.NullInt64
		var percent sql.NullFloat64

		if err := rows.Scan(&b.ContentID, &title, &bookTitle, &author, &pages, &lastRead, &percent); err != nil {
			return nil, fmt.Errorf("failed to scan book row: %w", err)
		}

		b.Title = title.String
		b.BookTitle = bookTitle.String
		b.Author = author.String
		b.DateLastRead = lastRead.String
		b.PercentRead = percent.Float64
		if pages.Valid && pages.Int64 > 0 {
			n := int(pages.Int64)
			b.Pages = &n
		}

		books = append(books, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating book rows: %w", err)
	}

	return books, nil
}

// ListHighlights returns bookmarks carrying text or an annotation, ordered by
// volume and then by chapter progress.
func (r *Reader) ListHighlights(ctx context.Context, includeStoreBought bool) ([]entities.RawHighlight, error) {
	db, err := r.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	query := `
		SELECT
			BookmarkID,
			VolumeID,
			Text,
			Annotation,
			DateCreated,
			ChapterProgress,
			ContentID
		FROM Bookmark
		WHERE ((Text IS NOT NULL AND Text != '') OR (Annotation IS NOT NULL AND Annotation != ''))
			AND (? OR VolumeID LIKE ?)
		ORDER BY VolumeID, ChapterProgress
	`

	rows, err := db.QueryContext(ctx, query, includeStoreBought, sideloadedPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to query highlights: %w", err)
	}
	defer rows.Close()

	var highlights []entities.RawHighlight
	for rows.Next() {
		var h entities.RawHighlight
		var text, annotation, created, contentID sql.NullString
		var progress sql.NullFloat64

		if err := rows.Scan(&h.BookmarkID, &h.VolumeID, &text, &annotation, &created, &progress, &contentID); err != nil {
			return nil, fmt.Errorf("failed to scan highlight row: %w", err)
		}

		h.Text = text.String
		h.Annotation = annotation.String
		h.DateCreated = created.String
		h.ChapterProgress = progress.Float64
		h.ContentID = contentID.String

		highlights = append(highlights, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating highlight rows: %w", err)
	}

	return highlights, nil
}

// ChapterRows returns the chapter entries used to reconstruct highlight locations.
func (r *Reader) ChapterRows(ctx context.Context) ([]location.ChapterRow, error) {
	db, err := r.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `
		SELECT ContentID, VolumeIndex
		FROM content
		WHERE ContentType = ?
	`, contentTypeChapter)
	if err != nil {
		return nil, fmt.Errorf("failed to query chapters: %w", err)
	}
	defer rows.Close()

	var chapters []location.ChapterRow
	for rows.Next() {
		var row location.ChapterRow
		var index sql.NullInt64

		if err := rows.Scan(&row.ContentID, &index); err != nil {
			return nil, fmt.Errorf("failed to scan chapter row: %w", err)
		}
		if !index.Valid {
			continue
		}
		row.VolumeIndex = int(index.Int64)

		chapters = append(chapters, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chapter rows: %w", err)
	}

	return chapters, nil
}
