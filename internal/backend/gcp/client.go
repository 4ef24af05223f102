// Package gcp implements the service.Service interface on Google Cloud:
// Firestore holds note records and Cloud Storage holds their images.
package gcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	firestore "google.golang.org/api/firestore/v1"
	"google.golang.org/api/googleapi"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
	storage "google.golang.org/api/storage/v1"

	"travelnotes/internal/auth"
	"travelnotes/internal/config"
	"travelnotes/internal/service"
)

const (
	// PageSize is the number of records fetched per Firestore page.
	PageSize = 100

	// APITimeout is the timeout for API calls.
	APITimeout = 10 * time.Second

	// usersCollection scopes note records per signed-in user.
	usersCollection = "users"
)

// Client implements service.Service using Firestore and Cloud Storage.
type Client struct {
	docs     *firestore.ProjectsDatabasesDocumentsService
	objects  *storage.ObjectsService
	userinfo *oauth2api.UserinfoService
	settings config.Settings
	log      *slog.Logger

	mu   sync.Mutex
	user *service.User
}

// New creates a client from the stored OAuth credentials and settings.
// Requires oauth_client.json, token.json and a complete settings file.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	settings, err := cfg.LoadSettings()
	if err != nil {
		return nil, err
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	oauthConfig, err := auth.OAuthConfig(cfg)
	if err != nil {
		return nil, err
	}
	token, err := auth.LoadToken(cfg)
	if err != nil {
		return nil, err
	}

	// Create token source that auto-refreshes
	tokenSource := oauthConfig.TokenSource(ctx, token)
	httpClient := oauth2.NewClient(ctx, tokenSource)

	return newClient(ctx, httpClient, settings, "")
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
// A non-empty endpoint redirects all three APIs to that base URL.
func NewWithHTTPClient(ctx context.Context, httpClient *http.Client, settings config.Settings, endpoint string) (*Client, error) {
	return newClient(ctx, httpClient, settings, endpoint)
}

func newClient(ctx context.Context, httpClient *http.Client, settings config.Settings, endpoint string) (*Client, error) {
	withEndpoint := func(suffix string) []option.ClientOption {
		opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
		if endpoint != "" {
			opts = append(opts, option.WithEndpoint(strings.TrimSuffix(endpoint, "/")+"/"+suffix))
		}
		return opts
	}

	fs, err := firestore.NewService(ctx, withEndpoint("")...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore service: %w", err)
	}
	st, err := storage.NewService(ctx, withEndpoint("storage/v1/")...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage service: %w", err)
	}
	ui, err := oauth2api.NewService(ctx, withEndpoint("")...)
	if err != nil {
		return nil, fmt.Errorf("failed to create userinfo service: %w", err)
	}

	slog.Debug("initialized backend", "project", settings.Project, "bucket", settings.Bucket)
	return &Client{
		docs:     fs.Projects.Databases.Documents,
		objects:  st.Objects,
		userinfo: ui.Userinfo,
		settings: settings,
		log:      slog.Default().With("component", "backend"),
	}, nil
}

// CurrentUser returns the identity behind the stored credentials.
func (c *Client) CurrentUser(ctx context.Context) (service.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user != nil {
		return *c.user, nil
	}

	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	info, err := c.userinfo.Get().Context(ctx).Do()
	if err != nil {
		c.log.Warn("session check failed", "error", err)
		return service.User{}, wrapError(err)
	}
	if info.Id == "" {
		return service.User{}, fmt.Errorf("%w: userinfo has no subject", service.ErrAuth)
	}

	c.user = &service.User{ID: info.Id, Email: info.Email, Name: info.Name}
	return *c.user, nil
}

// QueryNotes returns all note records of the signed-in user.
func (c *Client) QueryNotes(ctx context.Context) ([]service.NoteData, error) {
	parent, err := c.userParent(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	var result []service.NoteData
	err = c.docs.List(parent, c.settings.Collection).
		PageSize(PageSize).
		Pages(ctx, func(resp *firestore.ListDocumentsResponse) error {
			for _, doc := range resp.Documents {
				result = append(result, fromDocument(doc))
			}
			return nil
		})
	if err != nil {
		c.log.Warn("query notes failed", "error", err)
		return nil, wrapError(err)
	}

	c.log.Debug("queried notes", "count", len(result))
	return result, nil
}

// CreateNote stores a new note record under its client-generated ID.
func (c *Client) CreateNote(ctx context.Context, note service.NoteData) error {
	parent, err := c.userParent(ctx)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	_, err = c.docs.CreateDocument(parent, c.settings.Collection, toDocument(note)).
		DocumentId(note.ID).
		Context(ctx).
		Do()
	if err != nil {
		c.log.Warn("create note failed", "id", note.ID, "error", err)
		return wrapError(err)
	}
	c.log.Debug("created note", "id", note.ID)
	return nil
}

// UpdateNote overwrites an existing record. Fields absent from note are
// removed from the record.
func (c *Client) UpdateNote(ctx context.Context, note service.NoteData) error {
	name, err := c.documentName(ctx, note.ID)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	_, err = c.docs.Patch(name, toDocument(note)).
		CurrentDocumentExists(true).
		Context(ctx).
		Do()
	if err != nil {
		c.log.Warn("update note failed", "id", note.ID, "error", err)
		return wrapError(err)
	}
	c.log.Debug("updated note", "id", note.ID)
	return nil
}

// DeleteNote deletes a note record.
func (c *Client) DeleteNote(ctx context.Context, id string) error {
	name, err := c.documentName(ctx, id)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	if _, err := c.docs.Delete(name).Context(ctx).Do(); err != nil {
		c.log.Warn("delete note failed", "id", id, "error", err)
		return wrapError(err)
	}
	c.log.Debug("deleted note", "id", id)
	return nil
}

// UploadImage stores image bytes under the user's prefix.
func (c *Client) UploadImage(ctx context.Context, name string, data []byte) error {
	object, err := c.objectName(ctx, name)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	contentType := http.DetectContentType(data)
	_, err = c.objects.Insert(c.settings.Bucket, &storage.Object{Name: object, ContentType: contentType}).
		Media(bytes.NewReader(data), googleapi.ContentType(contentType)).
		Context(ctx).
		Do()
	if err != nil {
		c.log.Warn("upload image failed", "image", name, "error", err)
		return wrapError(err)
	}
	c.log.Debug("uploaded image", "image", name, "bytes", len(data))
	return nil
}

// DownloadImage fetches an image stored under the user's prefix.
func (c *Client) DownloadImage(ctx context.Context, name string) (service.Image, error) {
	object, err := c.objectName(ctx, name)
	if err != nil {
		return service.Image{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	resp, err := c.objects.Get(c.settings.Bucket, object).Context(ctx).Download()
	if err != nil {
		c.log.Warn("download image failed", "image", name, "error", err)
		return service.Image{}, wrapError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return service.Image{}, wrapError(err)
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	c.log.Debug("downloaded image", "image", name, "bytes", len(data))
	return service.Image{Data: data, ContentType: contentType}, nil
}

// DeleteImage removes an image stored under the user's prefix.
func (c *Client) DeleteImage(ctx context.Context, name string) error {
	object, err := c.objectName(ctx, name)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	if err := c.objects.Delete(c.settings.Bucket, object).Context(ctx).Do(); err != nil {
		c.log.Warn("delete image failed", "image", name, "error", err)
		return wrapError(err)
	}
	c.log.Debug("deleted image", "image", name)
	return nil
}

// userParent returns the Firestore parent path owning the user's notes.
func (c *Client) userParent(ctx context.Context) (string, error) {
	user, err := c.CurrentUser(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("projects/%s/databases/%s/documents/%s/%s",
		c.settings.Project, c.settings.Database, usersCollection, user.ID), nil
}

// documentName returns the full resource name of a note record.
func (c *Client) documentName(ctx context.Context, id string) (string, error) {
	parent, err := c.userParent(ctx)
	if err != nil {
		return "", err
	}
	return parent + "/" + c.settings.Collection + "/" + id, nil
}

// objectName returns the bucket object holding an image.
func (c *Client) objectName(ctx context.Context, name string) (string, error) {
	user, err := c.CurrentUser(ctx)
	if err != nil {
		return "", err
	}
	return usersCollection + "/" + user.ID + "/" + name, nil
}

// wrapError maps API errors onto the service sentinel errors with
// user-friendly messages.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "context deadline exceeded") {
		return fmt.Errorf("request timed out")
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return fmt.Errorf("%w: token expired or revoked (run: travelnotes login)", service.ErrAuth)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: token expired or revoked (run: travelnotes login)", service.ErrAuth)
		case http.StatusNotFound:
			return service.ErrNotFound
		}
	}

	return err
}
