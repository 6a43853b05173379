// Package storage persists generated notes.
package storage

import "context"

// NoteStore reads and writes note files. Paths are slash-separated and
// relative to the store root.
type NoteStore interface {
	// ReadNote returns the note text and whether the note exists.
	ReadNote(ctx context.Context, path string) (string, bool, error)

	// WriteNote creates or replaces a note.
	WriteNote(ctx context.Context, path, text string) error

	// EnsureFolder creates a folder and its parents if missing.
	EnsureFolder(ctx context.Context, path string) error
}
