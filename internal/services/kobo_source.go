package services

import "github.com/mrlokans/kobo-highlights/internal/kobo"

// KoboSourceOpener opens the Kobo database at the path returned by path on
// every run, so a changed setting or a remounted device is picked up.
// An empty path auto-detects the mounted device.
func KoboSourceOpener(path func() string) BookSourceOpener {
	return func() (BookSource, error) {
		reader, err := kobo.NewReader(path())
		if err != nil {
			return nil, err
		}
		return reader, nil
	}
}
