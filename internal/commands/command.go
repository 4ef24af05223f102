// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"travelnotes/internal/config"
	"travelnotes/internal/exitcode"
	"travelnotes/internal/notebook"
	"travelnotes/internal/service"
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsAuth returns true if the command requires a signed-in session.
	// Commands like help, version, login, logout return false.
	NeedsAuth() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// cfg is always provided (config dir, paths).
	// If NeedsAuth() returns false, nb has no backend and only its store
	// side may be used. Otherwise nb is open and its store holds the
	// user's notes, unless the command is a SignedOutReporter.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, cfg *config.Config, nb *notebook.Notebook, args []string, out, errOut io.Writer) int
}

// SignedOutReporter is implemented by commands that report a missing
// session themselves. The dispatcher runs them with a signed-out store
// instead of failing with a login hint.
type SignedOutReporter interface {
	ReportsSignedOut() bool
}

// reportBackendError prints a backend failure and returns its exit code.
func reportBackendError(errOut io.Writer, err error) int {
	if errors.Is(err, service.ErrAuth) {
		fmt.Fprintf(errOut, "error: auth error: %v\n", err)
		return exitcode.AuthError
	}
	fmt.Fprintf(errOut, "error: backend error: %v\n", err)
	return exitcode.BackendError
}
