// Package location reconstructs where in a book a highlight was taken from the
// chapter markers embedded in Kobo content identifiers.
//
// A chapter content identifier looks like "file:///mnt/onboard/b.epub#(3)OEBPS/ch4.xhtml"
// for sideloaded books or "<volume>!!<chapter>" for store books. The volume part is
// everything before the earliest "#" or "!!"; the chapter index is the integer in "#(N)".
package location

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var chapterIndexPattern = regexp.MustCompile(`#\((\d+)\)`)

// ChapterRow is a chapter-type content entry: its identifier and its index in the volume.
type ChapterRow struct {
	ContentID   string
	VolumeIndex int
}

// ChapterTable maps a book identifier to its total number of chapters.
// It is built once per import run and only read afterwards.
type ChapterTable map[string]int

// BuildChapterTable derives chapter counts as one plus the highest chapter index seen per book.
func BuildChapterTable(rows []ChapterRow) ChapterTable {
	table := make(ChapterTable)
	for _, row := range rows {
		bookID := BookID(row.ContentID)
		if count := row.VolumeIndex + 1; count > table[bookID] {
			table[bookID] = count
		}
	}
	return table
}

// Chapters returns the chapter count for bookID, if known.
func (t ChapterTable) Chapters(bookID string) (int, bool) {
	n, ok := t[bookID]
	return n, ok
}

// separatorIndex returns the position of the earliest "#" or "!!", or -1.
func separatorIndex(contentID string) int {
	hash := strings.Index(contentID, "#")
	bang := strings.Index(contentID, "!!")
	switch {
	case hash < 0:
		return bang
	case bang < 0:
		return hash
	default:
		return min(hash, bang)
	}
}

// BookID returns the volume part of a content identifier. Identifiers without
// a separator are their own book id.
func BookID(contentID string) string {
	if i := separatorIndex(contentID); i >= 0 {
		return contentID[:i]
	}
	return contentID
}

// ChapterIndex extracts the "#(N)" chapter index from a content identifier.
func ChapterIndex(contentID string) (int, bool) {
	if separatorIndex(contentID) < 0 {
		return 0, false
	}
	m := chapterIndexPattern.FindStringSubmatch(contentID)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// ResolveLocation returns the highlight position as a whole percentage of the book.
// It reports false when the chapter index is missing, the book is not in the
// table, or the table holds no chapters for it. The result is not clamped:
// out-of-range inputs produce out-of-range percentages.
func ResolveLocation(contentID string, chapterProgress float64, table ChapterTable) (int, bool) {
	index, ok := ChapterIndex(contentID)
	if !ok {
		return 0, false
	}
	total, ok := table.Chapters(BookID(contentID))
	if !ok || total == 0 {
		return 0, false
	}
	percent := (float64(index) + chapterProgress) / float64(total) * 100
	return int(math.Round(percent)), true
}
