// Package service defines the backend-agnostic interface for note operations.
package service

import "context"

// Service defines the interface for the managed backend.
// All Firestore and Cloud Storage calls go through this interface.
// Commands never import Google SDK directly.
type Service interface {
	// CurrentUser returns the identity behind the stored credentials.
	// Returns an error wrapping ErrAuth if the session is not valid.
	CurrentUser(ctx context.Context) (User, error)

	// QueryNotes returns every note record of the signed-in user.
	QueryNotes(ctx context.Context) ([]NoteData, error)

	// CreateNote stores a new note record.
	CreateNote(ctx context.Context, note NoteData) error

	// UpdateNote overwrites an existing note record.
	UpdateNote(ctx context.Context, note NoteData) error

	// DeleteNote deletes a note record by ID.
	DeleteNote(ctx context.Context, id string) error

	// UploadImage stores image bytes under name.
	UploadImage(ctx context.Context, name string, data []byte) error

	// DownloadImage fetches the image stored under name.
	DownloadImage(ctx context.Context, name string) (Image, error)

	// DeleteImage removes the image stored under name.
	DeleteImage(ctx context.Context, name string) error
}
