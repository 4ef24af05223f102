package store_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelnotes/internal/service"
	"travelnotes/internal/store"
)

func note(id string) *service.Note {
	return service.NewNote(id, "note "+id, "", "")
}

func ids(notes []*service.Note) []string {
	var out []string
	for _, n := range notes {
		out = append(out, n.ID)
	}
	return out
}

func TestStore_SignInAndOut(t *testing.T) {
	s := store.New()
	assert.False(t, s.SignedIn())

	s.SetSignedIn(service.User{ID: "u1", Email: "a@example.com"})
	s.ReplaceNotes([]*service.Note{note("1"), note("2")})
	assert.True(t, s.SignedIn())
	assert.Equal(t, "a@example.com", s.User().Email)
	assert.Len(t, s.Notes(), 2)

	s.SetSignedOut()
	assert.False(t, s.SignedIn())
	assert.Empty(t, s.Notes())
	assert.Equal(t, service.User{}, s.User())
}

func TestStore_ReplaceIsWholesale(t *testing.T) {
	s := store.New()
	s.ReplaceNotes([]*service.Note{note("1"), note("2")})
	s.ReplaceNotes([]*service.Note{note("3")})

	assert.Equal(t, []string{"3"}, ids(s.Notes()))
}

func TestStore_AppendUpdateRemove(t *testing.T) {
	s := store.New()
	s.AppendNote(note("1"))
	s.AppendNote(note("2"))
	s.AppendNote(note("3"))

	updated := service.NewNote("2", "renamed", "", "")
	s.UpdateNote(updated)
	got, ok := s.Note("2")
	require.True(t, ok)
	assert.Equal(t, "renamed", got.Name)

	s.RemoveNote("2")
	assert.Equal(t, []string{"1", "3"}, ids(s.Notes()))

	// Unknown IDs are no-ops.
	s.RemoveNote("missing")
	s.UpdateNote(note("missing"))
	assert.Equal(t, []string{"1", "3"}, ids(s.Notes()))
}

func TestStore_SnapshotIsolation(t *testing.T) {
	s := store.New()
	s.AppendNote(note("1"))

	snap := s.Notes()
	s.AppendNote(note("2"))

	assert.Len(t, snap, 1)
	assert.Len(t, s.Notes(), 2)
}

func TestStore_SetImage(t *testing.T) {
	s := store.New()
	n := note("1")
	s.AppendNote(n)

	s.SetImage("1", &service.Image{Data: []byte("jpg")})
	require.NotNil(t, n.Image())
	assert.Equal(t, []byte("jpg"), n.Image().Data)
}

func TestStore_SubscribeReceivesChanges(t *testing.T) {
	s := store.New()
	ch, cancel := s.Subscribe(8)
	defer cancel()

	s.SetSignedIn(service.User{ID: "u1"})
	s.AppendNote(note("1"))
	s.RemoveNote("1")
	s.RemoveNote("1") // no-op, not published

	want := []store.Change{
		{Kind: store.SignedIn, Count: 0},
		{Kind: store.NoteAdded, NoteID: "1", Count: 1},
		{Kind: store.NoteRemoved, NoteID: "1", Count: 0},
	}
	for _, w := range want {
		select {
		case got := <-ch:
			assert.Equal(t, w, got)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %v", w.Kind)
		}
	}
	select {
	case extra := <-ch:
		t.Fatalf("unexpected change %v", extra)
	default:
	}
}

func TestStore_SlowSubscriberDoesNotBlock(t *testing.T) {
	s := store.New()
	_, cancel := s.Subscribe(1)
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			s.AppendNote(note("x"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("mutations blocked on a full subscriber")
	}
}

func TestStore_CancelClosesChannel(t *testing.T) {
	s := store.New()
	ch, cancel := s.Subscribe(1)
	cancel()
	cancel()

	_, open := <-ch
	assert.False(t, open)

	// Publishing after cancel must not panic.
	s.AppendNote(note("1"))
}

func TestStore_ConcurrentMutations(t *testing.T) {
	s := store.New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.AppendNote(note("n"))
			_ = s.Notes()
		}()
	}
	wg.Wait()
	assert.Len(t, s.Notes(), 50)
}
