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
	Register(&LoginCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct{}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return []string{"signin"} }
func (c *LoginCmd) Synopsis() string  { return "Sign in with Google" }
func (c *LoginCmd) Usage() string     { return "travelnotes login [common flags]" }
func (c *LoginCmd) NeedsAuth() bool   { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, nb *notebook.Notebook, args []string, out, errOut io.Writer) int {
	if !cfg.HasOAuthClient() {
		printOAuthSetup(cfg, errOut)
		return exitcode.AuthError
	}

	if cfg.HasToken() && auth.TokenValid(ctx, cfg) {
		if !cfg.Quiet {
			fmt.Fprintln(out, "already logged in")
		}
		return exitcode.Success
	}

	if _, err := auth.SignIn(ctx, cfg, errOut); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

func printOAuthSetup(cfg *config.Config, errOut io.Writer) {
	fmt.Fprintf(errOut, "error: oauth_client.json not found in %s\n\n", cfg.Dir)
	fmt.Fprintln(errOut, "To sign in to Travel notes, you need OAuth credentials:")
	fmt.Fprintln(errOut, "")
	fmt.Fprintln(errOut, "1. Go to https://console.cloud.google.com/apis/credentials")
	fmt.Fprintln(errOut, "2. Create a project (or select an existing one)")
	fmt.Fprintln(errOut, "3. Enable the Cloud Firestore and Cloud Storage APIs")
	fmt.Fprintln(errOut, "4. Create OAuth 2.0 credentials:")
	fmt.Fprintln(errOut, "   - Click 'Create Credentials' > 'OAuth client ID'")
	fmt.Fprintln(errOut, "   - Choose 'Desktop app' as application type")
	fmt.Fprintln(errOut, "   - Download the JSON file")
	fmt.Fprintln(errOut, "5. Save it as:")
	fmt.Fprintf(errOut, "   %s\n", cfg.OAuthClientPath())
	fmt.Fprintln(errOut, "6. Put the project and bucket names in:")
	fmt.Fprintf(errOut, "   %s\n", cfg.SettingsPath())
	fmt.Fprintln(errOut, "")
	fmt.Fprintln(errOut, "Then run 'travelnotes login' again.")
}
