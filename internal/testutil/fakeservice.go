// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"sync"

	"travelnotes/internal/service"
)

// FakeService is an in-memory implementation of service.Service for testing.
type FakeService struct {
	mu     sync.RWMutex
	user   service.User
	notes  []service.NoteData
	images map[string][]byte

	// Error injection for testing
	CurrentUserErr   error
	QueryNotesErr    error
	CreateNoteErr    error
	UpdateNoteErr    error
	DeleteNoteErr    error
	UploadImageErr   error
	DownloadImageErr map[string]error // image name -> error
	DeleteImageErr   error

	// Calls records method names in call order.
	Calls []string
}

// NewFakeService creates a new FakeService with a signed-in user.
func NewFakeService() *FakeService {
	return &FakeService{
		user:             service.User{ID: "user-1", Email: "traveler@example.com", Name: "Traveler"},
		images:           make(map[string][]byte),
		DownloadImageErr: make(map[string]error),
	}
}

// AddNote adds a note record to the fake backend.
func (f *FakeService) AddNote(id, name, description, image string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes = append(f.notes, service.NoteData{ID: id, Name: name, Description: description, Image: image})
}

// AddImage stores image bytes in the fake backend.
func (f *FakeService) AddImage(name string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.images[name] = data
}

// NoteRecords returns a copy of the stored records.
func (f *FakeService) NoteRecords() []service.NoteData {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]service.NoteData(nil), f.notes...)
}

// Images returns a copy of the stored images by name.
func (f *FakeService) Images() map[string][]byte {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make(map[string][]byte, len(f.images))
	for k, v := range f.images {
		out[k] = v
	}
	return out
}

func (f *FakeService) record(call string) {
	f.mu.Lock()
	f.Calls = append(f.Calls, call)
	f.mu.Unlock()
}

// CurrentUser implements service.Service.
func (f *FakeService) CurrentUser(ctx context.Context) (service.User, error) {
	f.record("CurrentUser")
	if f.CurrentUserErr != nil {
		return service.User{}, f.CurrentUserErr
	}
	return f.user, nil
}

// QueryNotes implements service.Service.
func (f *FakeService) QueryNotes(ctx context.Context) ([]service.NoteData, error) {
	f.record("QueryNotes")
	if f.QueryNotesErr != nil {
		return nil, f.QueryNotesErr
	}
	return f.NoteRecords(), nil
}

// CreateNote implements service.Service.
func (f *FakeService) CreateNote(ctx context.Context, note service.NoteData) error {
	f.record("CreateNote")
	if f.CreateNoteErr != nil {
		return f.CreateNoteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes = append(f.notes, note)
	return nil
}

// UpdateNote implements service.Service.
func (f *FakeService) UpdateNote(ctx context.Context, note service.NoteData) error {
	f.record("UpdateNote")
	if f.UpdateNoteErr != nil {
		return f.UpdateNoteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, n := range f.notes {
		if n.ID == note.ID {
			f.notes[i] = note
			return nil
		}
	}
	return service.ErrNotFound
}

// DeleteNote implements service.Service.
func (f *FakeService) DeleteNote(ctx context.Context, id string) error {
	f.record("DeleteNote")
	if f.DeleteNoteErr != nil {
		return f.DeleteNoteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, n := range f.notes {
		if n.ID == id {
			f.notes = append(f.notes[:i], f.notes[i+1:]...)
			return nil
		}
	}
	return service.ErrNotFound
}

// UploadImage implements service.Service.
func (f *FakeService) UploadImage(ctx context.Context, name string, data []byte) error {
	f.record("UploadImage")
	if f.UploadImageErr != nil {
		return f.UploadImageErr
	}
	f.AddImage(name, data)
	return nil
}

// DownloadImage implements service.Service.
func (f *FakeService) DownloadImage(ctx context.Context, name string) (service.Image, error) {
	f.record("DownloadImage")
	f.mu.RLock()
	defer f.mu.RUnlock()
	if err := f.DownloadImageErr[name]; err != nil {
		return service.Image{}, err
	}
	data, ok := f.images[name]
	if !ok {
		return service.Image{}, service.ErrNotFound
	}
	return service.Image{Data: data, ContentType: "application/octet-stream"}, nil
}

// DeleteImage implements service.Service.
func (f *FakeService) DeleteImage(ctx context.Context, name string) error {
	f.record("DeleteImage")
	if f.DeleteImageErr != nil {
		return f.DeleteImageErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.images[name]; !ok {
		return service.ErrNotFound
	}
	delete(f.images, name)
	return nil
}
