package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mrlokans/kobo-highlights/internal/config"
	"github.com/mrlokans/kobo-highlights/internal/entities"
	"github.com/mrlokans/kobo-highlights/internal/kobo"
	"github.com/mrlokans/kobo-highlights/internal/services"
)

// ImportCommand syncs the highlights of the connected Kobo into notes.
type ImportCommand struct {
	CommonOptions

	Overwrite          bool `long:"overwrite" description:"Regenerate existing notes instead of appending new highlights"`
	IncludeStoreBought bool `long:"include-store-bought" description:"Also import books bought from the Kobo store"`
	DryRun             bool `long:"dry-run" description:"Show what would be written without changing any note"`

	cfg *config.Config
	out io.Writer
}

func NewImportCommand(cfg *config.Config) *ImportCommand {
	return &ImportCommand{cfg: cfg, out: os.Stdout}
}

func (cmd *ImportCommand) ParseFlags(args []string) error {
	return parseFlags("kobo-highlights import", "[options]", cmd, args)
}

func (cmd *ImportCommand) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return cmd.run(ctx)
}

func (cmd *ImportCommand) run(ctx context.Context) error {
	env, err := openImportEnv(cmd.cfg, cmd.CommonOptions)
	if err != nil {
		return err
	}
	defer env.Close()

	fmt.Fprintln(cmd.out, "Kobo Import")
	fmt.Fprintln(cmd.out, "===========")
	if cmd.DryRun {
		fmt.Fprintln(cmd.out, "DRY RUN MODE - No notes will be written")
	}
	fmt.Fprintf(cmd.out, "Device database: %s\n", env.describeSource())
	fmt.Fprintf(cmd.out, "Notes directory: %s\n\n", env.notesDir)

	opts := services.RunOptions{
		Trigger:   entities.ImportTriggerCLI,
		DryRun:    cmd.DryRun,
		Overwrite: cmd.Overwrite,
	}
	if cmd.IncludeStoreBought {
		include := true
		opts.IncludeStoreBought = &include
	}

	result, err := env.service.RunWithOptions(ctx, opts)
	switch {
	case errors.Is(err, services.ErrNoHighlights):
		fmt.Fprintln(cmd.out, "No highlights found on the device")
		return nil
	case errors.Is(err, kobo.ErrDatabaseNotFound):
		return fmt.Errorf("%w (use --kobo-db to point at KoboReader.sqlite)", err)
	case err != nil:
		return err
	}

	printResult(cmd.out, result, cmd.Verbose || cmd.DryRun)
	return nil
}

func printResult(out io.Writer, result services.ImportResult, detailed bool) {
	if detailed {
		fmt.Fprintln(out, "=== Notes ===")
		for _, note := range result.Notes {
			fmt.Fprintf(out, "  [%s] %s (%d new highlights)\n", note.Action, note.Path, note.NewHighlights)
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out, "=== Import Summary ===")
	fmt.Fprintf(out, "Books processed: %d\n", result.BooksProcessed)
	fmt.Fprintf(out, "Notes created: %d\n", result.NotesCreated)
	fmt.Fprintf(out, "Notes updated: %d\n", result.NotesUpdated)
	fmt.Fprintf(out, "Notes unchanged: %d\n", result.NotesUnchanged)
	fmt.Fprintf(out, "Highlights written: %d\n", result.HighlightsWritten)
}
