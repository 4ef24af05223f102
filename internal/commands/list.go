package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"travelnotes/internal/config"
	"travelnotes/internal/exitcode"
	"travelnotes/internal/notebook"
	"travelnotes/internal/output"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Handles both `travelnotes` (no args) and `travelnotes list`.
type ListCmd struct {
	images bool
}

// SetImages enables photo downloads (for testing).
func (c *ListCmd) SetImages(images bool) {
	c.images = images
}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List notes" }
func (c *ListCmd) Usage() string     { return "travelnotes list [--images]" }
func (c *ListCmd) NeedsAuth() bool   { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.images, "images", false, "")
}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, nb *notebook.Notebook, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	if c.images {
		nb.LoadImages(ctx)
	}

	notes := nb.Store().Notes()
	if len(notes) == 0 {
		if !cfg.Quiet {
			fmt.Fprintln(out, "no notes found")
		}
		return exitcode.Success
	}

	for i, note := range notes {
		output.FormatNote(out, i+1, note)
	}
	return exitcode.Success
}
