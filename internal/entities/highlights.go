package entities

import "time"

// RawHighlight is one Bookmark row as read from the device database.
type RawHighlight struct {
	BookmarkID      string
	VolumeID        string
	Text            string
	Annotation      string
	DateCreated     string  // device timestamp, not guaranteed to parse
	ChapterProgress float64 // fraction of the chapter, in [0,1)
	ContentID       string  // chapter content identifier, distinct from VolumeID
}

// RawBookMeta is one volume row from the device database.
type RawBookMeta struct {
	ContentID    string
	Title        string
	BookTitle    string // fallback title
	Author       string
	Pages        *int
	DateLastRead string
	// PercentRead is stored either as a fraction (<= 1) or as a whole percentage.
	PercentRead float64
}

// ProcessedHighlight is a normalized highlight ready for rendering.
type ProcessedHighlight struct {
	ID              string
	Text            string
	Annotation      string
	DateCreated     time.Time // zero when the device timestamp could not be parsed
	DateCreatedRaw  string
	ChapterProgress float64
	ContentID       string
}

// Book is the resolved metadata of a volume.
type Book struct {
	ID           string
	Title        string
	Author       string
	Percent      int // 0-100
	Pages        *int
	DateLastRead *time.Time
}

// BookWithHighlights pairs a book with its highlights in chapter-progress order.
// Every highlight belongs to Book.ID.
type BookWithHighlights struct {
	Book       Book
	Highlights []ProcessedHighlight
}

// HighlightCount returns the number of highlights attached to the book.
func (b BookWithHighlights) HighlightCount() int {
	return len(b.Highlights)
}
