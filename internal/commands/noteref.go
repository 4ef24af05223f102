package commands

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"travelnotes/internal/service"
	"travelnotes/internal/store"
)

// MinIDPrefix is the shortest ID prefix accepted as a note reference.
const MinIDPrefix = 4

// ErrNoteRefRequired indicates no note reference was provided.
var ErrNoteRefRequired = errors.New("note reference required")

// NoteRef is a parsed note reference: a 1-based list number, an ID (or ID
// prefix), or both when a number is long enough to be an ID prefix.
type NoteRef struct {
	Num int    // 0 if the reference is not a number
	ID  string // empty if the reference is too short to be an ID prefix
}

// ParseNoteRef parses the first positional argument as a note reference.
//
// Parsing rules:
// 1. All digits → list number, and also an ID prefix if at least MinIDPrefix long
// 2. At least MinIDPrefix characters of letters, digits and dashes → ID or ID prefix
// 3. Otherwise → error: invalid note reference: <ref>
func ParseNoteRef(args []string) (NoteRef, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return NoteRef{}, ErrNoteRefRequired
	}
	arg := strings.TrimSpace(args[0])

	if isAllDigits(arg) {
		num, err := strconv.Atoi(arg)
		if len(arg) < MinIDPrefix {
			return NoteRef{Num: num}, nil
		}
		if err != nil {
			num = 0
		}
		return NoteRef{Num: num, ID: arg}, nil
	}

	if len(arg) >= MinIDPrefix && isIDChars(arg) {
		return NoteRef{ID: strings.ToLower(arg)}, nil
	}
	return NoteRef{}, fmt.Errorf("invalid note reference: %s", arg)
}

// ResolveNote finds the note a reference points to in the store.
// Numbers index the list as rendered by the list command. A number that is
// out of range but long enough is matched as an ID prefix instead.
func ResolveNote(st *store.Store, ref NoteRef) (*service.Note, error) {
	notes := st.Notes()

	if ref.Num >= 1 && ref.Num <= len(notes) {
		return notes[ref.Num-1], nil
	}
	outOfRange := fmt.Errorf("note number out of range: %d", ref.Num)
	if ref.ID == "" {
		return nil, outOfRange
	}

	var matches []*service.Note
	for _, n := range notes {
		id := strings.ToLower(n.ID)
		if id == ref.ID {
			return n, nil
		}
		if strings.HasPrefix(id, ref.ID) {
			matches = append(matches, n)
		}
	}
	switch len(matches) {
	case 0:
		if ref.Num > 0 {
			return nil, outOfRange
		}
		return nil, fmt.Errorf("note %w: %s", service.ErrNotFound, ref.ID)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%w note reference: %s", service.ErrAmbiguous, ref.ID)
	}
}

// resolveNoteArg parses and resolves a reference, printing user errors.
// ok is false when the caller should exit with exitcode.UserError.
func resolveNoteArg(st *store.Store, args []string, errOut io.Writer) (*service.Note, bool) {
	ref, err := ParseNoteRef(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return nil, false
	}
	note, err := ResolveNote(st, ref)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return nil, false
	}
	return note, true
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isIDChars(s string) bool {
	for _, r := range s {
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-') {
			return false
		}
	}
	return true
}
