// Package service defines the backend-agnostic interface for note operations.
package service

import (
	"bytes"
	"errors"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"sync"
)

// Sentinel errors shared by backends and commands.
var (
	ErrNotFound  = errors.New("not found")
	ErrAuth      = errors.New("not authorized")
	ErrAmbiguous = errors.New("ambiguous")
)

// NoteData is the note record as stored by the backend.
// Empty Description and Image mean the field is absent.
type NoteData struct {
	ID          string
	Name        string
	Description string
	Image       string
}

// User is the signed-in identity.
type User struct {
	ID    string
	Email string
	Name  string
}

// Image is a downloaded photo.
type Image struct {
	Data        []byte
	ContentType string
}

// Bounds returns the pixel dimensions of the image.
// ok is false when the format can't be decoded.
func (img Image) Bounds() (width, height int, ok bool) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(img.Data))
	if err != nil {
		return 0, 0, false
	}
	return cfg.Width, cfg.Height, true
}

// Note is the client-side view of a note.
type Note struct {
	ID          string
	Name        string
	Description string
	ImageName   string

	mu    sync.Mutex
	image *Image
	data  *NoteData
}

// NewNote creates a note that has no cached backend record yet.
func NewNote(id, name, description, imageName string) *Note {
	return &Note{
		ID:          id,
		Name:        name,
		Description: description,
		ImageName:   imageName,
	}
}

// NoteFromData creates a note from a backend record and keeps the record
// for later mutating calls.
func NoteFromData(d NoteData) *Note {
	n := NewNote(d.ID, d.Name, d.Description, d.Image)
	n.data = &d
	return n
}

// Data returns the backend record for the note, building it on first use.
func (n *Note) Data() NoteData {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.data == nil {
		n.data = &NoteData{
			ID:          n.ID,
			Name:        n.Name,
			Description: n.Description,
			Image:       n.ImageName,
		}
	}
	return *n.data
}

// HasImage reports whether the note references an image.
func (n *Note) HasImage() bool {
	return n.ImageName != ""
}

// Image returns the loaded image, or nil if none has been loaded.
func (n *Note) Image() *Image {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.image
}

// SetImage records a loaded image.
func (n *Note) SetImage(img *Image) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.image = img
}
