package importers

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/mrlokans/kobo-highlights/internal/dateformat"
	"github.com/mrlokans/kobo-highlights/internal/entities"
	"github.com/mrlokans/kobo-highlights/internal/utils"
)

var horizontalSpace = regexp.MustCompile(`[ \t]+`)

// BookIndex resolves volume identifiers to book metadata rows.
type BookIndex map[string]entities.RawBookMeta

// NewBookIndex indexes book rows by their content identifier.
func NewBookIndex(books []entities.RawBookMeta) BookIndex {
	index := make(BookIndex, len(books))
	for _, b := range books {
		index[b.ContentID] = b
	}
	return index
}

// Aggregate groups raw highlights by volume, attaches resolved book metadata and
// returns the books sorted by title. Highlights keep their input order, which the
// device query already sorts by chapter progress. Highlights with neither text
// nor annotation are dropped.
func Aggregate(raw []entities.RawHighlight, index BookIndex) []entities.BookWithHighlights {
	bookMap := make(map[string]*entities.BookWithHighlights)
	bookOrder := []string{}

	for _, h := range raw {
		text := NormalizeText(h.Text)
		annotation := strings.TrimSpace(h.Annotation)
		if text == "" && annotation == "" {
			continue
		}

		book, exists := bookMap[h.VolumeID]
		if !exists {
			book = &entities.BookWithHighlights{Book: resolveBook(h.VolumeID, index)}
			bookMap[h.VolumeID] = book
			bookOrder = append(bookOrder, h.VolumeID)
		}

		processed := entities.ProcessedHighlight{
			ID:              h.BookmarkID,
			Text:            text,
			Annotation:      annotation,
			DateCreatedRaw:  h.DateCreated,
			ChapterProgress: h.ChapterProgress,
			ContentID:       h.ContentID,
		}
		if created, ok := dateformat.Parse(h.DateCreated); ok {
			processed.DateCreated = created
		}

		book.Highlights = append(book.Highlights, processed)
	}

	books := make([]entities.BookWithHighlights, 0, len(bookOrder))
	for _, key := range bookOrder {
		books = append(books, *bookMap[key])
	}

	SortByTitle(books)
	return books
}

// SortByTitle orders books by title using locale-aware collation.
func SortByTitle(books []entities.BookWithHighlights) {
	collator := collate.New(language.Und)
	sort.SliceStable(books, func(i, j int) bool {
		return collator.CompareString(books[i].Book.Title, books[j].Book.Title) < 0
	})
}

func resolveBook(volumeID string, index BookIndex) entities.Book {
	book := entities.Book{ID: volumeID}

	meta, ok := index[volumeID]
	if ok {
		book.Title = strings.TrimSpace(meta.Title)
		if book.Title == "" {
			book.Title = strings.TrimSpace(meta.BookTitle)
		}
		book.Author = strings.TrimSpace(meta.Author)
		book.Percent = NormalizePercent(meta.PercentRead)
		book.Pages = meta.Pages
		if lastRead, ok := dateformat.Parse(meta.DateLastRead); ok {
			book.DateLastRead = &lastRead
		}
	}

	if book.Title == "" {
		book.Title = TitleFromVolumeID(volumeID)
	}
	return book
}

// NormalizeText trims the text and collapses runs of spaces and tabs. Newlines are kept.
func NormalizeText(text string) string {
	return strings.TrimSpace(horizontalSpace.ReplaceAllString(text, " "))
}

// NormalizePercent converts the device read percentage to a whole 0-100 value.
// Values up to 1 are fractions; larger values are already percentages.
func NormalizePercent(raw float64) int {
	if raw <= 1 {
		raw *= 100
	}
	return int(math.Round(raw))
}

// TitleFromVolumeID derives a title from the last path segment of a volume
// identifier, without its e-book extension.
func TitleFromVolumeID(volumeID string) string {
	name := volumeID
	if i := strings.LastIndex(name, "/"); i >= 0 && i < len(name)-1 {
		name = name[i+1:]
	}

	lower := strings.ToLower(name)
	for _, ext := range utils.KnownBookExtensions {
		if strings.HasSuffix(lower, ext) && len(name) > len(ext) {
			name = name[:len(name)-len(ext)]
			break
		}
	}
	return strings.TrimSpace(name)
}
