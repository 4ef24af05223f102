package commands

import (
	"context"
	"flag"
	"io"

	"travelnotes/internal/config"
	"travelnotes/internal/exitcode"
	"travelnotes/internal/notebook"
	"travelnotes/internal/output"
)

func init() {
	Register(&ShowCmd{})
}

// ShowCmd implements the show command.
type ShowCmd struct {
	image bool
}

func (c *ShowCmd) Name() string      { return "show" }
func (c *ShowCmd) Aliases() []string { return nil }
func (c *ShowCmd) Synopsis() string  { return "Show one note" }
func (c *ShowCmd) Usage() string     { return "travelnotes show [--image] <ref>" }
func (c *ShowCmd) NeedsAuth() bool   { return true }

func (c *ShowCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.image, "image", false, "")
}

func (c *ShowCmd) Run(ctx context.Context, cfg *config.Config, nb *notebook.Notebook, args []string, out, errOut io.Writer) int {
	note, ok := resolveNoteArg(nb.Store(), args, errOut)
	if !ok {
		return exitcode.UserError
	}

	if c.image && note.HasImage() {
		if _, err := nb.LoadImage(ctx, note); err != nil {
			return reportBackendError(errOut, err)
		}
	}

	output.FormatNoteDetail(out, note)
	return exitcode.Success
}
