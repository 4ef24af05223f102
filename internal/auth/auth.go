// Package auth implements hosted Google sign-in and token storage.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"travelnotes/internal/config"
)

// Scopes requested at sign-in.
var Scopes = []string{
	"openid",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/datastore",
	"https://www.googleapis.com/auth/devstorage.read_write",
}

const (
	// OAuth callback timeout
	callbackTimeout = 5 * time.Minute

	// Token exchange timeout
	exchangeTimeout = 30 * time.Second

	// Token refresh check timeout
	validateTimeout = 10 * time.Second

	// Starting port for OAuth callback server
	startPort = 8085

	// Max port attempts
	maxPortAttempts = 5
)

var (
	// ErrNoOAuthClient is returned when oauth_client.json is missing.
	ErrNoOAuthClient = errors.New("oauth_client.json not found")

	// ErrNoToken is returned when token.json is missing or unreadable.
	ErrNoToken = errors.New("no stored token")

	// ErrCallbackTimeout is returned when the browser never redirects back.
	ErrCallbackTimeout = errors.New("oauth callback timed out")
)

// OAuthConfig loads the OAuth client credentials with the app's scopes.
func OAuthConfig(cfg *config.Config) (*oauth2.Config, error) {
	clientJSON, err := os.ReadFile(cfg.OAuthClientPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoOAuthClient
		}
		return nil, fmt.Errorf("failed to read oauth_client.json: %w", err)
	}
	oauthConfig, err := google.ConfigFromJSON(clientJSON, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("invalid oauth_client.json: %w", err)
	}
	return oauthConfig, nil
}

// LoadToken reads the stored token.
func LoadToken(cfg *config.Config) (*oauth2.Token, error) {
	data, err := os.ReadFile(cfg.TokenPath())
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read token.json: %w", ErrNoToken, err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("%w: invalid token.json: %w", ErrNoToken, err)
	}
	return &token, nil
}

// SaveToken saves an OAuth token to a file with mode 0600.
func SaveToken(cfg *config.Config, token *oauth2.Token) error {
	if err := cfg.EnsureDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(cfg.TokenPath(), data, 0600)
}

// TokenValid reports whether the stored token is usable.
// Valid means: parseable, contains a non-empty refresh token, and can be
// refreshed against the OAuth provider.
func TokenValid(ctx context.Context, cfg *config.Config) bool {
	token, err := LoadToken(cfg)
	if err != nil || token.RefreshToken == "" {
		return false
	}
	oauthConfig, err := OAuthConfig(cfg)
	if err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, validateTimeout)
	defer cancel()

	_, err = oauthConfig.TokenSource(ctx, token).Token()
	return err == nil
}

// SignOut removes the stored token. The OAuth client file is kept.
// Returns false if there was no token to remove.
func SignOut(cfg *config.Config) (bool, error) {
	if !cfg.HasToken() {
		return false, nil
	}
	if err := cfg.RemoveToken(); err != nil {
		return false, fmt.Errorf("failed to remove token: %w", err)
	}
	return true, nil
}

// SignIn runs the hosted sign-in flow: it prints the authorization URL to
// prompt, waits for the loopback redirect, exchanges the code (PKCE) and
// stores the resulting token.
func SignIn(ctx context.Context, cfg *config.Config, prompt io.Writer) (*oauth2.Token, error) {
	oauthConfig, err := OAuthConfig(cfg)
	if err != nil {
		return nil, err
	}

	port, listener, err := findAvailablePort()
	if err != nil {
		return nil, fmt.Errorf("could not bind to local port for OAuth callback")
	}
	defer listener.Close()

	oauthConfig.RedirectURL = fmt.Sprintf("http://localhost:%d/callback", port)

	verifier := oauth2.GenerateVerifier()
	state := uuid.NewString()
	authURL := oauthConfig.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.S256ChallengeOption(verifier),
	)

	fmt.Fprintln(prompt, "Open this URL in your browser:")
	fmt.Fprintln(prompt, authURL)

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	server := &http.Server{Handler: callbackHandler(state, codeCh, errCh)}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	var code string
	select {
	case code = <-codeCh:
	case err := <-errCh:
		return nil, err
	case <-time.After(callbackTimeout):
		return nil, ErrCallbackTimeout
	case <-ctx.Done():
		return nil, fmt.Errorf("cancelled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	server.Shutdown(shutdownCtx)

	exchangeCtx, cancelExchange := context.WithTimeout(ctx, exchangeTimeout)
	defer cancelExchange()

	token, err := oauthConfig.Exchange(exchangeCtx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code for token: %w", err)
	}
	if err := SaveToken(cfg, token); err != nil {
		return nil, fmt.Errorf("failed to save token: %w", err)
	}
	return token, nil
}

// callbackHandler serves the OAuth redirect and forwards the code.
func callbackHandler(state string, codeCh chan<- string, errCh chan<- error) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "State mismatch", http.StatusBadRequest)
			sendErr(errCh, fmt.Errorf("state mismatch in callback"))
			return
		}
		if e := q.Get("error"); e != "" {
			http.Error(w, "Sign-in was not completed", http.StatusBadRequest)
			sendErr(errCh, fmt.Errorf("sign-in denied: %s", e))
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "No code in callback", http.StatusBadRequest)
			sendErr(errCh, fmt.Errorf("no code in callback"))
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body><h1>Signed in to Travel notes</h1><p>You may close this window.</p></body></html>")
		select {
		case codeCh <- code:
		default:
		}
	})
	return mux
}

func sendErr(errCh chan<- error, err error) {
	select {
	case errCh <- err:
	default:
	}
}

// findAvailablePort tries to find an available port starting from startPort.
func findAvailablePort() (int, net.Listener, error) {
	for i := 0; i < maxPortAttempts; i++ {
		port := startPort + i
		listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", port))
		if err == nil {
			return port, listener, nil
		}
	}
	return 0, nil, fmt.Errorf("no available port found")
}
