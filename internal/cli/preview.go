package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mrlokans/kobo-highlights/internal/config"
	"github.com/mrlokans/kobo-highlights/internal/services"
)

// PreviewCommand prints the note an import would generate for matching books.
type PreviewCommand struct {
	CommonOptions

	Title string `long:"title" short:"t" description:"Case-insensitive substring of the book title (empty previews every book)"`

	cfg *config.Config
	out io.Writer
}

func NewPreviewCommand(cfg *config.Config) *PreviewCommand {
	return &PreviewCommand{cfg: cfg, out: os.Stdout}
}

func (cmd *PreviewCommand) ParseFlags(args []string) error {
	return parseFlags("kobo-highlights preview", "[--title <substring>] [options]", cmd, args)
}

func (cmd *PreviewCommand) Run() error {
	return cmd.run(context.Background())
}

func (cmd *PreviewCommand) run(ctx context.Context) error {
	env, err := openImportEnv(cmd.cfg, cmd.CommonOptions)
	if err != nil {
		return err
	}
	defer env.Close()

	previews, err := env.service.Preview(ctx, cmd.Title)
	if errors.Is(err, services.ErrNoHighlights) {
		fmt.Fprintln(cmd.out, "No highlights found on the device")
		return nil
	}
	if err != nil {
		return err
	}
	if len(previews) == 0 {
		return fmt.Errorf("no book title contains %q", cmd.Title)
	}

	for i, preview := range previews {
		if i > 0 {
			fmt.Fprintln(cmd.out)
		}
		fmt.Fprintf(cmd.out, "==> %s (%d highlights) <==\n", preview.Path, preview.Highlights)
		fmt.Fprintln(cmd.out, preview.Content)
	}
	return nil
}
