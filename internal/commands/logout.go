package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"travelnotes/internal/auth"
	"travelnotes/internal/config"
	"travelnotes/internal/exitcode"
	"travelnotes/internal/notebook"
)

func init() {
	Register(&LogoutCmd{})
}

// LogoutCmd implements the logout command.
type LogoutCmd struct{}

func (c *LogoutCmd) Name() string      { return "logout" }
func (c *LogoutCmd) Aliases() []string { return []string{"signout"} }
func (c *LogoutCmd) Synopsis() string  { return "Sign out and remove stored credentials" }
func (c *LogoutCmd) Usage() string     { return "travelnotes logout [common flags]" }
func (c *LogoutCmd) NeedsAuth() bool   { return false }

func (c *LogoutCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *LogoutCmd) Run(ctx context.Context, cfg *config.Config, nb *notebook.Notebook, args []string, out, errOut io.Writer) int {
	removed, err := auth.SignOut(cfg)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	}
	nb.Close()

	if !cfg.Quiet {
		if removed {
			fmt.Fprintln(out, "ok")
		} else {
			fmt.Fprintln(out, "not logged in")
		}
	}
	return exitcode.Success
}
