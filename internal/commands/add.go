package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"travelnotes/internal/config"
	"travelnotes/internal/exitcode"
	"travelnotes/internal/notebook"
)

func init() {
	Register(&AddCmd{})
	Register(&CreateCmd{})
}

// noteFlags holds the flags shared by add and create.
type noteFlags struct {
	description string
	imagePath   string
}

func (f *noteFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.description, "description", "", "")
	fs.StringVar(&f.description, "d", "", "")
	fs.StringVar(&f.imagePath, "image", "", "")
	fs.StringVar(&f.imagePath, "i", "", "")
}

// AddCmd implements the add command.
type AddCmd struct {
	noteFlags
}

// SetDescription sets the description (for testing).
func (c *AddCmd) SetDescription(d string) {
	c.description = d
}

// SetImagePath sets the image file (for testing).
func (c *AddCmd) SetImagePath(p string) {
	c.imagePath = p
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return nil }
func (c *AddCmd) Synopsis() string  { return "Create a note" }
func (c *AddCmd) Usage() string {
	return "travelnotes add [--description <text>] [--image <file>] <name...>"
}
func (c *AddCmd) NeedsAuth() bool { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	c.register(fs)
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, nb *notebook.Notebook, args []string, out, errOut io.Writer) int {
	return runAdd(ctx, cfg, nb, c.noteFlags, args, out, errOut)
}

// CreateCmd is an alias for AddCmd.
type CreateCmd struct {
	noteFlags
}

func (c *CreateCmd) Name() string      { return "create" }
func (c *CreateCmd) Aliases() []string { return nil }
func (c *CreateCmd) Synopsis() string  { return "Create a note (alias for add)" }
func (c *CreateCmd) Usage() string {
	return "travelnotes create [--description <text>] [--image <file>] <name...>"
}
func (c *CreateCmd) NeedsAuth() bool { return true }

func (c *CreateCmd) RegisterFlags(fs *flag.FlagSet) {
	c.register(fs)
}

func (c *CreateCmd) Run(ctx context.Context, cfg *config.Config, nb *notebook.Notebook, args []string, out, errOut io.Writer) int {
	return runAdd(ctx, cfg, nb, c.noteFlags, args, out, errOut)
}

// runAdd is the shared implementation for add and create commands.
func runAdd(ctx context.Context, cfg *config.Config, nb *notebook.Notebook, f noteFlags, args []string, out, errOut io.Writer) int {
	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" {
		fmt.Fprintln(errOut, "error: name required")
		return exitcode.UserError
	}

	if f.imagePath != "" {
		if code := checkImageFile(f.imagePath, errOut); code != exitcode.Success {
			return code
		}
	}

	if _, err := nb.Create(ctx, name, f.description, f.imagePath); err != nil {
		if errors.Is(err, notebook.ErrNameRequired) {
			fmt.Fprintln(errOut, "error: name required")
			return exitcode.UserError
		}
		return reportBackendError(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// checkImageFile validates a local image path before anything is uploaded.
func checkImageFile(path string, errOut io.Writer) int {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		fmt.Fprintf(errOut, "error: image not readable: %s\n", path)
		return exitcode.UserError
	}
	if info.Size() == 0 {
		fmt.Fprintf(errOut, "error: image is empty: %s\n", path)
		return exitcode.UserError
	}
	return exitcode.Success
}
