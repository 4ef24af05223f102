// Package notebook coordinates user actions: each action calls the
// backend and applies the result to the store.
package notebook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"travelnotes/internal/service"
	"travelnotes/internal/store"
)

// MaxConcurrentDownloads bounds LoadImages.
const MaxConcurrentDownloads = 4

// ErrNameRequired is returned when a note is created without a name.
var ErrNameRequired = errors.New("name required")

// Notebook binds a backend to the store.
type Notebook struct {
	svc   service.Service
	store *store.Store
	log   *slog.Logger
}

// New creates a Notebook.
func New(svc service.Service, st *store.Store) *Notebook {
	return &Notebook{
		svc:   svc,
		store: st,
		log:   slog.Default().With("component", "notebook"),
	}
}

// NewOffline creates a Notebook with no backend, for commands that run
// without a session. Every backend call fails with service.ErrAuth; only
// the store side (Store, Close) is useful.
func NewOffline(st *store.Store) *Notebook {
	return New(offline{}, st)
}

// offline is the backend of a notebook that has no session.
type offline struct{}

func (offline) CurrentUser(context.Context) (service.User, error)      { return service.User{}, service.ErrAuth }
func (offline) QueryNotes(context.Context) ([]service.NoteData, error) { return nil, service.ErrAuth }
func (offline) CreateNote(context.Context, service.NoteData) error     { return service.ErrAuth }
func (offline) UpdateNote(context.Context, service.NoteData) error     { return service.ErrAuth }
func (offline) DeleteNote(context.Context, string) error               { return service.ErrAuth }
func (offline) UploadImage(context.Context, string, []byte) error      { return service.ErrAuth }
func (offline) DeleteImage(context.Context, string) error              { return service.ErrAuth }
func (offline) DownloadImage(context.Context, string) (service.Image, error) {
	return service.Image{}, service.ErrAuth
}

// Store returns the store the notebook mutates.
func (nb *Notebook) Store() *store.Store {
	return nb.store
}

// Open checks the session and, when signed in, rebuilds the notes list.
func (nb *Notebook) Open(ctx context.Context) error {
	user, err := nb.svc.CurrentUser(ctx)
	if err != nil {
		nb.log.Warn("session check failed", "error", err)
		nb.store.SetSignedOut()
		return err
	}
	nb.store.SetSignedIn(user)
	return nb.Refresh(ctx)
}

// Refresh queries the backend and replaces the notes list.
func (nb *Notebook) Refresh(ctx context.Context) error {
	records, err := nb.svc.QueryNotes(ctx)
	if err != nil {
		nb.log.Warn("query notes failed", "error", err)
		return err
	}
	notes := make([]*service.Note, 0, len(records))
	for _, r := range records {
		notes = append(notes, service.NoteFromData(r))
	}
	nb.store.ReplaceNotes(notes)
	return nil
}

// Close clears the signed-in state.
func (nb *Notebook) Close() {
	nb.store.SetSignedOut()
}

// Create stores a new note. imagePath is optional; when set the image is
// uploaded first and creation is aborted if the upload fails.
func (nb *Notebook) Create(ctx context.Context, name, description, imagePath string) (*service.Note, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	var imageName string
	if imagePath != "" {
		var err error
		imageName, err = nb.upload(ctx, imagePath)
		if err != nil {
			return nil, err
		}
	}

	note := service.NewNote(uuid.NewString(), name, strings.TrimSpace(description), imageName)
	if err := nb.svc.CreateNote(ctx, note.Data()); err != nil {
		nb.log.Warn("create note failed", "id", note.ID, "error", err)
		if imageName != "" {
			nb.discardImage(ctx, imageName)
		}
		return nil, err
	}

	nb.store.AppendNote(note)
	return note, nil
}

// Attach uploads a new image for note and replaces any previous one.
func (nb *Notebook) Attach(ctx context.Context, note *service.Note, imagePath string) error {
	imageName, err := nb.upload(ctx, imagePath)
	if err != nil {
		return err
	}

	record := note.Data()
	previous := record.Image
	record.Image = imageName
	if err := nb.svc.UpdateNote(ctx, record); err != nil {
		nb.log.Warn("update note failed", "id", note.ID, "error", err)
		nb.discardImage(ctx, imageName)
		return err
	}

	updated := service.NoteFromData(record)
	nb.store.UpdateNote(updated)
	if previous != "" {
		nb.discardImage(ctx, previous)
	}
	return nil
}

// Delete removes the note record, then its image. Image removal failures
// are logged only.
func (nb *Notebook) Delete(ctx context.Context, note *service.Note) error {
	if err := nb.svc.DeleteNote(ctx, note.ID); err != nil {
		nb.log.Warn("delete note failed", "id", note.ID, "error", err)
		return err
	}
	if note.HasImage() {
		nb.discardImage(ctx, note.ImageName)
	}
	nb.store.RemoveNote(note.ID)
	return nil
}

// LoadImage downloads the image of one note into the store.
func (nb *Notebook) LoadImage(ctx context.Context, note *service.Note) (*service.Image, error) {
	if !note.HasImage() {
		return nil, service.ErrNotFound
	}
	img, err := nb.svc.DownloadImage(ctx, note.ImageName)
	if err != nil {
		nb.log.Warn("download image failed", "id", note.ID, "image", note.ImageName, "error", err)
		return nil, err
	}
	note.SetImage(&img)
	nb.store.SetImage(note.ID, &img)
	return &img, nil
}

// LoadImages downloads the images of all notes in the store.
// Individual failures are logged and skipped; it returns the number of
// images loaded.
func (nb *Notebook) LoadImages(ctx context.Context) int {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(MaxConcurrentDownloads)

	notes := nb.store.Notes()
	loaded := make(chan struct{}, len(notes))
	for _, note := range notes {
		if !note.HasImage() {
			continue
		}
		g.Go(func() error {
			if _, err := nb.LoadImage(ctx, note); err == nil {
				loaded <- struct{}{}
			}
			return nil
		})
	}
	g.Wait()
	close(loaded)
	return len(loaded)
}

// upload reads a local image and stores it under a generated name.
func (nb *Notebook) upload(ctx context.Context, imagePath string) (string, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("image is empty: %s", imagePath)
	}

	imageName := uuid.NewString() + strings.ToLower(filepath.Ext(imagePath))
	if err := nb.svc.UploadImage(ctx, imageName, data); err != nil {
		nb.log.Warn("upload image failed", "image", imageName, "error", err)
		return "", err
	}
	return imageName, nil
}

func (nb *Notebook) discardImage(ctx context.Context, imageName string) {
	if err := nb.svc.DeleteImage(ctx, imageName); err != nil {
		nb.log.Warn("delete image failed", "image", imageName, "error", err)
	}
}
