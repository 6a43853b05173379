// Package watcher triggers an import when the Kobo database file changes,
// typically when the device is mounted or finishes syncing.
package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/mrlokans/kobo-highlights/internal/logging"
)

const DefaultDebounce = 5 * time.Second

// ErrNoDirectory is returned when neither the database file nor its parent
// directory exists, so there is nothing to watch.
var ErrNoDirectory = errors.New("database directory does not exist")

// DatabaseWatcher watches a single SQLite database file, including its
// -wal and -journal companions, and calls onChange once writes settle.
type DatabaseWatcher struct {
	dbPath   string
	onChange func(ctx context.Context)
	debounce time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	timer    *time.Timer
	ctx      context.Context
	started  bool
	done     chan struct{}
	stopOnce sync.Once
}

// Option configures a DatabaseWatcher.
type Option func(*DatabaseWatcher)

func WithLogger(l *zap.Logger) Option {
	return func(w *DatabaseWatcher) { w.logger = l }
}

// WithDebounce sets the quiet period after the last event before onChange fires.
func WithDebounce(d time.Duration) Option {
	return func(w *DatabaseWatcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

func New(dbPath string, onChange func(ctx context.Context), opts ...Option) *DatabaseWatcher {
	w := &DatabaseWatcher{
		dbPath:   filepath.Clean(dbPath),
		onChange: onChange,
		debounce: DefaultDebounce,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = logging.OrNop(w.logger)
	return w
}

// Start watches the database's parent directory until ctx is cancelled or
// Stop is called. The directory is watched rather than the file so that
// the file appearing on mount is noticed too.
func (w *DatabaseWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}

	dir := filepath.Dir(w.dbPath)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return ErrNoDirectory
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return err
	}

	w.watcher = fw
	w.ctx = ctx
	w.started = true
	w.logger.Info("Watching Kobo database", zap.String("path", w.dbPath), zap.Duration("debounce", w.debounce))

	go w.run(ctx, fw)
	return nil
}

func (w *DatabaseWatcher) run(ctx context.Context, fw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Warn("Database watcher error", zap.Error(err))
			}
		}
	}
}

func (w *DatabaseWatcher) handleEvent(ev fsnotify.Event) {
	if !w.matches(ev.Name) {
		return
	}
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}
	w.logger.Debug("Database file event", zap.String("op", ev.Op.String()), zap.String("path", ev.Name))
	w.schedule()
}

func (w *DatabaseWatcher) matches(name string) bool {
	clean := filepath.Clean(name)
	if clean == w.dbPath {
		return true
	}
	suffix := strings.TrimPrefix(clean, w.dbPath)
	return suffix != clean && (suffix == "-wal" || suffix == "-journal")
}

func (w *DatabaseWatcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	ctx := w.ctx
	w.timer = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		w.timer = nil
		running := w.started
		w.mu.Unlock()
		if !running || ctx.Err() != nil {
			return
		}
		w.logger.Info("Kobo database changed, triggering import", zap.String("path", w.dbPath))
		if w.onChange != nil {
			w.onChange(ctx)
		}
	})
}

// IsRunning reports whether the watcher is active.
func (w *DatabaseWatcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.started
}

// Stop releases the fsnotify watcher and drops any pending trigger.
func (w *DatabaseWatcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	_ = w.watcher.Close()
	w.watcher = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
	w.logger.Info("Stopped watching Kobo database")
}
