package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"travelnotes/internal/config"
	"travelnotes/internal/exitcode"
	"travelnotes/internal/notebook"
)

func init() {
	Register(&PhotoCmd{})
}

// PhotoCmd implements the photo command.
type PhotoCmd struct {
	output string
}

// SetOutput sets the destination file (for testing).
func (c *PhotoCmd) SetOutput(path string) {
	c.output = path
}

func (c *PhotoCmd) Name() string      { return "photo" }
func (c *PhotoCmd) Aliases() []string { return nil }
func (c *PhotoCmd) Synopsis() string  { return "Download a note's photo" }
func (c *PhotoCmd) Usage() string     { return "travelnotes photo [--output <file>] <ref>" }
func (c *PhotoCmd) NeedsAuth() bool   { return true }

func (c *PhotoCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.output, "output", "", "")
	fs.StringVar(&c.output, "o", "", "")
}

func (c *PhotoCmd) Run(ctx context.Context, cfg *config.Config, nb *notebook.Notebook, args []string, out, errOut io.Writer) int {
	note, ok := resolveNoteArg(nb.Store(), args, errOut)
	if !ok {
		return exitcode.UserError
	}
	if !note.HasImage() {
		fmt.Fprintln(errOut, "error: note has no photo")
		return exitcode.UserError
	}

	// Image names come from the backend record; only the base name is used
	// so the default destination stays in the working directory.
	dest := c.output
	if dest == "" {
		dest = filepath.Base(note.ImageName)
		if dest == "." || dest == ".." || dest == string(filepath.Separator) {
			fmt.Fprintf(errOut, "error: invalid photo name: %s (use --output)\n", note.ImageName)
			return exitcode.UserError
		}
	}

	img, err := nb.LoadImage(ctx, note)
	if err != nil {
		return reportBackendError(errOut, err)
	}
	if err := os.WriteFile(dest, img.Data, 0644); err != nil {
		fmt.Fprintf(errOut, "error: failed to write photo: %v\n", err)
		return exitcode.UserError
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, dest)
	}
	return exitcode.Success
}
