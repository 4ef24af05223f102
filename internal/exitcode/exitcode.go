// Package exitcode defines exit codes for the CLI.
package exitcode

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, unknown note, ambiguous reference).
	UserError = 1

	// AuthError indicates a sign-in or config error.
	AuthError = 2

	// BackendError indicates a backend/API/network error.
	BackendError = 3
)
