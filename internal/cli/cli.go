// Package cli implements the one-shot subcommands of kobo-highlights.
package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	goflags "github.com/jessevdk/go-flags"
	"go.uber.org/zap"

	"github.com/mrlokans/kobo-highlights/internal/config"
	"github.com/mrlokans/kobo-highlights/internal/database"
	"github.com/mrlokans/kobo-highlights/internal/logging"
	"github.com/mrlokans/kobo-highlights/internal/services"
	"github.com/mrlokans/kobo-highlights/internal/settingsstore"
	"github.com/mrlokans/kobo-highlights/internal/storage"
)

// IsHelp reports whether err is the result of -h/--help, which is not a failure.
func IsHelp(err error) bool {
	var flagsErr *goflags.Error
	return errors.As(err, &flagsErr) && flagsErr.Type == goflags.ErrHelp
}

// parseFlags parses args into the tagged options struct. Positional
// arguments are rejected. On -h the returned error carries the help text.
func parseFlags(name, usage string, options any, args []string) error {
	parser := goflags.NewParser(options, goflags.HelpFlag|goflags.PassDoubleDash)
	parser.Name = name
	parser.Usage = usage

	rest, err := parser.ParseArgs(args)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return fmt.Errorf("unexpected arguments: %v", rest)
	}
	return nil
}

// CommonOptions are shared by every subcommand that reads the device.
type CommonOptions struct {
	KoboDB       string `long:"kobo-db" description:"Path to KoboReader.sqlite (default: stored setting, KOBO_DATABASE_PATH or auto-detect)"`
	Output       string `long:"output" short:"o" description:"Root directory notes are written under (default: NOTES_OUTPUT_DIR)"`
	DatabasePath string `long:"db" description:"Application database holding settings and run history (default: DATABASE_PATH)"`
	Verbose      bool   `long:"verbose" short:"v" description:"Enable verbose logging"`
}

// importEnv is the application state one subcommand run needs.
type importEnv struct {
	db       *database.Database
	settings *settingsstore.SettingsStore
	service  *services.ImportService
	koboPath string
	notesDir string
	logger   *zap.Logger
}

func openImportEnv(cfg *config.Config, opts CommonOptions) (*importEnv, error) {
	level := "warn"
	if opts.Verbose {
		level = "debug"
	}
	logger, err := logging.New(level, true)
	if err != nil {
		return nil, err
	}

	dbPath := opts.DatabasePath
	if dbPath == "" {
		dbPath = cfg.Database.Path
	}
	db, err := database.NewDatabase(dbPath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	settings := settingsstore.New(db)

	koboPath := opts.KoboDB
	if koboPath == "" {
		koboPath = settings.GetKoboDatabasePath()
	}
	if koboPath == "" {
		koboPath = cfg.Kobo.DatabasePath
	}

	notesDir := opts.Output
	if notesDir == "" {
		notesDir = cfg.Notes.OutputDir
	}
	if abs, err := filepath.Abs(notesDir); err == nil {
		notesDir = abs
	}

	service := services.NewImportService(
		services.KoboSourceOpener(func() string { return koboPath }),
		settings,
		storage.NewOsNoteStore(notesDir),
		services.WithRunRecorder(db),
		services.WithLogger(logger),
	)

	return &importEnv{
		db:       db,
		settings: settings,
		service:  service,
		koboPath: koboPath,
		notesDir: notesDir,
		logger:   logger,
	}, nil
}

func (e *importEnv) Close() {
	_ = e.logger.Sync()
	e.db.Close()
}

func (e *importEnv) describeSource() string {
	if e.koboPath == "" {
		return "(auto-detect)"
	}
	return e.koboPath
}
