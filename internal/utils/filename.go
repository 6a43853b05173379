package utils

import (
	"regexp"
	"strings"
)

// MaxFilenameLength is the longest note filename produced, in characters.
const MaxFilenameLength = 100

var (
	// Characters invalid in filenames on most filesystems
	invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	// Runs of whitespace to collapse
	multipleSpaces = regexp.MustCompile(`\s+`)
)

// SanitizeFilename makes a rendered title safe to use as a note filename.
// Invalid characters are dropped (acting as word breaks), whitespace is
// collapsed and the result is cut to MaxFilenameLength characters.
func SanitizeFilename(filename string) string {
	filename = invalidFilenameChars.ReplaceAllString(filename, " ")
	filename = multipleSpaces.ReplaceAllString(filename, " ")
	filename = strings.TrimSpace(filename)

	if runes := []rune(filename); len(runes) > MaxFilenameLength {
		filename = strings.TrimSpace(string(runes[:MaxFilenameLength]))
	}

	if filename == "" {
		filename = "Untitled"
	}

	return filename
}

// KnownBookExtensions contains file extensions commonly used for e-books.
// Compound extensions come before their suffixes so they are stripped whole.
var KnownBookExtensions = []string{
	".kepub.epub",
	".fb2.zip",
	".fb2",
	".epub",
	".kepub",
	".pdf",
	".txt",
	".rtf",
	".html",
	".docx",
	".doc",
	".mobi",
	".azw3",
	".azw",
	".djvu",
	".cbz",
	".cbr",
}
