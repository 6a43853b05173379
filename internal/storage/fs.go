package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/spf13/afero"
)

const (
	notePermissions   = 0o644
	folderPermissions = 0o755
)

// FSNoteStore stores notes as plain files on an afero filesystem.
type FSNoteStore struct {
	fs afero.Fs
}

// NewFSNoteStore creates a store whose paths resolve under root on fs.
// An empty root uses fs as is.
func NewFSNoteStore(fs afero.Fs, root string) *FSNoteStore {
	if root != "" {
		fs = afero.NewBasePathFs(fs, root)
	}
	return &FSNoteStore{fs: fs}
}

// NewOsNoteStore creates a store rooted at a directory of the local filesystem.
func NewOsNoteStore(root string) *FSNoteStore {
	return NewFSNoteStore(afero.NewOsFs(), root)
}

func clean(p string) string {
	return path.Clean("/" + strings.ReplaceAll(p, "\\", "/"))
}

func (s *FSNoteStore) ReadNote(ctx context.Context, notePath string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	data, err := afero.ReadFile(s.fs, clean(notePath))
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read note %s: %w", notePath, err)
	}

	return string(data), true, nil
}

func (s *FSNoteStore) WriteNote(ctx context.Context, notePath, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p := clean(notePath)
	if err := s.fs.MkdirAll(path.Dir(p), folderPermissions); err != nil {
		return fmt.Errorf("failed to create folder for note %s: %w", notePath, err)
	}
	if err := afero.WriteFile(s.fs, p, []byte(text), notePermissions); err != nil {
		return fmt.Errorf("failed to write note %s: %w", notePath, err)
	}

	return nil
}

func (s *FSNoteStore) EnsureFolder(ctx context.Context, folder string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.fs.MkdirAll(clean(folder), folderPermissions); err != nil {
		return fmt.Errorf("failed to create folder %s: %w", folder, err)
	}

	return nil
}
