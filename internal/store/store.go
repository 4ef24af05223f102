// Package store holds the in-memory state shared by all views.
//
// Mutations are applied one at a time and each one is published as a
// Change to every subscriber.
package store

import (
	"sync"

	"travelnotes/internal/service"
)

// ChangeKind identifies what a mutation did.
type ChangeKind string

const (
	SignedIn      ChangeKind = "SIGNED_IN"
	SignedOut     ChangeKind = "SIGNED_OUT"
	NotesReplaced ChangeKind = "NOTES_REPLACED"
	NoteAdded     ChangeKind = "NOTE_ADDED"
	NoteUpdated   ChangeKind = "NOTE_UPDATED"
	NoteRemoved   ChangeKind = "NOTE_REMOVED"
	ImageLoaded   ChangeKind = "IMAGE_LOADED"
)

// Change describes one applied mutation.
type Change struct {
	Kind   ChangeKind
	NoteID string // empty for session and bulk changes
	Count  int    // list length after the change
}

// Store is the observable user state: the notes list and the session flag.
type Store struct {
	mu       sync.RWMutex
	notes    []*service.Note
	signedIn bool
	user     service.User

	subMu   sync.Mutex
	subs    map[int]chan Change
	nextSub int
}

// Shared is the process-wide store.
var Shared = New()

// New creates an empty, signed-out store.
func New() *Store {
	return &Store{subs: make(map[int]chan Change)}
}

// Subscribe registers a listener. The returned func unsubscribes and closes
// the channel. Changes are dropped for a subscriber whose buffer is full.
func (s *Store) Subscribe(buffer int) (<-chan Change, func()) {
	ch := make(chan Change, buffer)

	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
}

func (s *Store) publish(c Change) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- c:
		default:
		}
	}
}

// update runs fn under the write lock and publishes the change it returns.
// Publishing happens before the lock is released so subscribers observe
// changes in the order they were applied.
func (s *Store) update(fn func() (Change, bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := fn()
	if !ok {
		return
	}
	c.Count = len(s.notes)
	s.publish(c)
}

// SetSignedIn marks the session as signed in.
func (s *Store) SetSignedIn(user service.User) {
	s.update(func() (Change, bool) {
		s.signedIn = true
		s.user = user
		return Change{Kind: SignedIn}, true
	})
}

// SetSignedOut marks the session as signed out and clears the notes list.
func (s *Store) SetSignedOut() {
	s.update(func() (Change, bool) {
		s.signedIn = false
		s.user = service.User{}
		s.notes = nil
		return Change{Kind: SignedOut}, true
	})
}

// ReplaceNotes rebuilds the notes list wholesale.
func (s *Store) ReplaceNotes(notes []*service.Note) {
	s.update(func() (Change, bool) {
		s.notes = append([]*service.Note(nil), notes...)
		return Change{Kind: NotesReplaced}, true
	})
}

// AppendNote adds a note at the end of the list.
func (s *Store) AppendNote(n *service.Note) {
	s.update(func() (Change, bool) {
		s.notes = append(s.notes, n)
		return Change{Kind: NoteAdded, NoteID: n.ID}, true
	})
}

// UpdateNote replaces the note with the same ID. Unknown IDs are ignored.
func (s *Store) UpdateNote(n *service.Note) {
	s.update(func() (Change, bool) {
		i := s.indexOf(n.ID)
		if i < 0 {
			return Change{}, false
		}
		s.notes[i] = n
		return Change{Kind: NoteUpdated, NoteID: n.ID}, true
	})
}

// RemoveNote drops the note with the given ID. Unknown IDs are ignored.
func (s *Store) RemoveNote(id string) {
	s.update(func() (Change, bool) {
		i := s.indexOf(id)
		if i < 0 {
			return Change{}, false
		}
		notes := make([]*service.Note, 0, len(s.notes)-1)
		notes = append(notes, s.notes[:i]...)
		s.notes = append(notes, s.notes[i+1:]...)
		return Change{Kind: NoteRemoved, NoteID: id}, true
	})
}

// SetImage attaches a loaded image to the note with the given ID.
func (s *Store) SetImage(id string, img *service.Image) {
	s.update(func() (Change, bool) {
		i := s.indexOf(id)
		if i < 0 {
			return Change{}, false
		}
		s.notes[i].SetImage(img)
		return Change{Kind: ImageLoaded, NoteID: id}, true
	})
}

// Notes returns a snapshot of the notes list.
func (s *Store) Notes() []*service.Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*service.Note(nil), s.notes...)
}

// Note returns the note with the given ID.
func (s *Store) Note(id string) (*service.Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return nil, false
	}
	return s.notes[i], true
}

// SignedIn reports whether a user is signed in.
func (s *Store) SignedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.signedIn
}

// User returns the signed-in identity.
func (s *Store) User() service.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// indexOf must be called with mu held.
func (s *Store) indexOf(id string) int {
	for i, n := range s.notes {
		if n.ID == id {
			return i
		}
	}
	return -1
}
