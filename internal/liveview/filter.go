package liveview

import (
	"strings"

	"github.com/ahsanfayaz52/notespark/internal/models"
)

// Filter returns the notes whose title or any tag contains q, ignoring case.
// An empty q matches everything; whitespace in q is matched literally. The
// input is not modified.
func Filter(notes []models.Note, q string) []models.Note {
	q = strings.ToLower(q)
	out := make([]models.Note, 0, len(notes))
	for _, n := range notes {
		if q == "" || matches(n, q) {
			out = append(out, n)
		}
	}
	return out
}

func matches(n models.Note, q string) bool {
	if strings.Contains(strings.ToLower(n.Title), q) {
		return true
	}
	for _, tag := range n.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}
