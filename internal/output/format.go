// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"travelnotes/internal/service"
)

const (
	// Separator is the rule printed around a note's title in detail view.
	Separator = "------------"

	// indent aligns continuation lines under the note name.
	indent = "      "
)

// FormatNote formats a list row.
// Format: "{N:>4}  {NAME}\n", then the description and photo marker
// indented under the name.
func FormatNote(w io.Writer, num int, note *service.Note) {
	fmt.Fprintf(w, "%4d  %s\n", num, normalizeLine(note.Name))
	if desc := strings.TrimSpace(note.Description); desc != "" {
		for _, line := range strings.Split(desc, "\n") {
			fmt.Fprintf(w, "%s%s\n", indent, strings.TrimRight(line, "\r"))
		}
	}
	if note.HasImage() {
		fmt.Fprintf(w, "%s%s\n", indent, PhotoMarker(note))
	}
}

// FormatNoteDetail formats a single note with its identifier.
func FormatNoteDetail(w io.Writer, note *service.Note) {
	fmt.Fprintln(w, Separator)
	fmt.Fprintln(w, normalizeLine(note.Name))
	fmt.Fprintln(w, Separator)
	fmt.Fprintf(w, "id:    %s\n", note.ID)
	if note.HasImage() {
		fmt.Fprintf(w, "photo: %s\n", PhotoMarker(note))
	}
	if desc := strings.TrimSpace(note.Description); desc != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, desc)
	}
}

// FormatUser formats the signed-in identity.
func FormatUser(w io.Writer, user service.User) {
	if user.Name != "" {
		fmt.Fprintf(w, "%s <%s>\n", user.Name, user.Email)
		return
	}
	fmt.Fprintln(w, user.Email)
}

// PhotoMarker describes a note's photo, including its dimensions and size
// once it has been downloaded.
func PhotoMarker(note *service.Note) string {
	img := note.Image()
	if img == nil {
		return fmt.Sprintf("[photo: %s]", note.ImageName)
	}
	if w, h, ok := img.Bounds(); ok {
		return fmt.Sprintf("[photo: %s %dx%d, %s]", note.ImageName, w, h, humanSize(len(img.Data)))
	}
	return fmt.Sprintf("[photo: %s %s]", note.ImageName, humanSize(len(img.Data)))
}

// normalizeLine normalizes a single-line field for display.
// - Empty or whitespace-only values become "(untitled)"
// - Newlines are replaced with spaces
func normalizeLine(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	if strings.TrimSpace(s) == "" {
		return "(untitled)"
	}
	return s
}

func humanSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
