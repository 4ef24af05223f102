package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"travelnotes/internal/config"
	"travelnotes/internal/exitcode"
	"travelnotes/internal/notebook"
)

func init() {
	Register(&AttachCmd{})
}

// AttachCmd implements the attach command.
type AttachCmd struct{}

func (c *AttachCmd) Name() string      { return "attach" }
func (c *AttachCmd) Aliases() []string { return nil }
func (c *AttachCmd) Synopsis() string  { return "Attach or replace a note's photo" }
func (c *AttachCmd) Usage() string     { return "travelnotes attach <ref> <file>" }
func (c *AttachCmd) NeedsAuth() bool   { return true }

func (c *AttachCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *AttachCmd) Run(ctx context.Context, cfg *config.Config, nb *notebook.Notebook, args []string, out, errOut io.Writer) int {
	if len(args) < 2 {
		fmt.Fprintln(errOut, "error: note reference and image file required")
		return exitcode.UserError
	}

	note, ok := resolveNoteArg(nb.Store(), args[:1], errOut)
	if !ok {
		return exitcode.UserError
	}
	imagePath := args[1]
	if code := checkImageFile(imagePath, errOut); code != exitcode.Success {
		return code
	}

	if err := nb.Attach(ctx, note, imagePath); err != nil {
		return reportBackendError(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
