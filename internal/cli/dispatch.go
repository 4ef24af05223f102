// Package cli parses the command line and dispatches to commands.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"travelnotes/internal/auth"
	"travelnotes/internal/commands"
	"travelnotes/internal/config"
	"travelnotes/internal/exitcode"
	"travelnotes/internal/notebook"
	"travelnotes/internal/service"
	"travelnotes/internal/store"
)

// ServiceFactory creates a Service from config.
// Used to inject the backend during dispatch.
type ServiceFactory func(ctx context.Context, cfg *config.Config) (service.Service, error)

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  ServiceFactory
	store    *store.Store
}

// NewDispatcher creates a new dispatcher with the given registry and service
// factory. Commands share the process-wide store.
func NewDispatcher(registry *commands.Registry, factory ServiceFactory) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		factory:  factory,
		store:    store.Shared,
	}
}

// WithStore makes the dispatcher use st instead of the shared store.
func (d *Dispatcher) WithStore(st *store.Store) *Dispatcher {
	d.store = st
	return d
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	// No args -> dispatch to "list" command with no args
	if len(args) == 0 {
		return d.dispatch(ctx, "list", nil, out, errOut)
	}

	cmdName := args[0]

	// If first token starts with -, it's an error (flags require a command)
	if strings.HasPrefix(cmdName, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}

	return d.dispatch(ctx, cmdName, args[1:], out, errOut)
}

func (d *Dispatcher) dispatch(ctx context.Context, cmdName string, args []string, out, errOut io.Writer) int {
	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}
	return d.dispatchCommand(ctx, cmd, args, out, errOut)
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer) int {
	// Create flag set with custom error handling
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard) // We handle errors ourselves

	// Common flags
	var configDir string
	var quiet bool
	var debug bool

	fs.StringVar(&configDir, "config", "", "")
	fs.BoolVar(&quiet, "quiet", false, "")
	fs.BoolVar(&debug, "debug", false, "")

	// Register command-specific flags
	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", flagErrorMessage(err))
		return exitcode.UserError
	}

	// Check if first positional arg starts with - (should have been parsed as flag)
	positionalArgs := fs.Args()
	if len(positionalArgs) > 0 && strings.HasPrefix(positionalArgs[0], "-") {
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", positionalArgs[0])
		return exitcode.UserError
	}

	cfg, err := config.New(configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	cfg.Quiet = quiet
	cfg.Debug = debug

	setupLogging(errOut, debug)
	if debug {
		stop := d.logChanges()
		defer stop()
	}

	if !cmd.NeedsAuth() {
		return cmd.Run(ctx, cfg, notebook.NewOffline(d.store), positionalArgs, out, errOut)
	}
	reporter, reportsSignedOut := cmd.(commands.SignedOutReporter)
	reportsSignedOut = reportsSignedOut && reporter.ReportsSignedOut()

	// No factory - check for required auth files and report user-friendly errors
	if d.factory == nil {
		if !cfg.HasOAuthClient() {
			fmt.Fprintf(errOut, "error: oauth_client.json not found in %s\n", cfg.Dir)
			return exitcode.AuthError
		}
		if !cfg.HasToken() {
			if reportsSignedOut {
				return d.runSignedOut(ctx, cmd, cfg, positionalArgs, out, errOut)
			}
			fmt.Fprintln(errOut, "error: not logged in (run: travelnotes login)")
			return exitcode.AuthError
		}
		fmt.Fprintln(errOut, "error: no backend configured")
		return exitcode.BackendError
	}

	svc, err := d.factory(ctx, cfg)
	if err != nil {
		if reportsSignedOut && isSessionError(err) {
			return d.runSignedOut(ctx, cmd, cfg, positionalArgs, out, errOut)
		}
		if isAuthError(err) {
			fmt.Fprintf(errOut, "error: auth error: %s\n", err)
			return exitcode.AuthError
		}
		fmt.Fprintf(errOut, "error: backend error: %s\n", err)
		return exitcode.BackendError
	}

	nb := notebook.New(svc, d.store)
	if err := nb.Open(ctx); err != nil {
		if errors.Is(err, service.ErrAuth) {
			if reportsSignedOut {
				return cmd.Run(ctx, cfg, nb, positionalArgs, out, errOut)
			}
			fmt.Fprintf(errOut, "error: not logged in (run: travelnotes login): %v\n", err)
			return exitcode.AuthError
		}
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}

	return cmd.Run(ctx, cfg, nb, positionalArgs, out, errOut)
}

// runSignedOut runs cmd against a signed-out store.
func (d *Dispatcher) runSignedOut(ctx context.Context, cmd commands.Command, cfg *config.Config, args []string, out, errOut io.Writer) int {
	nb := notebook.NewOffline(d.store)
	nb.Close()
	return cmd.Run(ctx, cfg, nb, args, out, errOut)
}

// isSessionError reports whether a factory error means nobody is signed in.
func isSessionError(err error) bool {
	return errors.Is(err, service.ErrAuth) || errors.Is(err, auth.ErrNoToken)
}

// isAuthError reports whether a factory error is a sign-in or config problem.
func isAuthError(err error) bool {
	return isSessionError(err) ||
		errors.Is(err, auth.ErrNoOAuthClient) ||
		errors.Is(err, config.ErrIncompleteSettings)
}

// flagErrorMessage turns flag package errors into CLI messages.
func flagErrorMessage(err error) string {
	errStr := err.Error()

	// Missing flag value
	if strings.HasPrefix(errStr, "flag needs an argument:") {
		return errStr
	}

	// Unknown flag
	if strings.HasPrefix(errStr, "flag provided but not defined:") {
		return "unknown flag: " + strings.TrimPrefix(errStr, "flag provided but not defined: ")
	}

	return errStr
}

// setupLogging installs the default logger on errOut.
// Backend and notebook failures are logged at warn level, so they stay
// silent unless --debug is given; commands print their own error lines.
func setupLogging(errOut io.Writer, debug bool) {
	level := slog.LevelError
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// logChanges logs every store change until the returned func is called.
func (d *Dispatcher) logChanges() func() {
	changes, cancel := d.store.Subscribe(64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for c := range changes {
			slog.Debug("store changed", "kind", c.Kind, "note", c.NoteID, "notes", c.Count)
		}
	}()
	return func() {
		cancel()
		<-done
	}
}
