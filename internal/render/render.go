// Package render turns note content, written as Markdown, into HTML.
package render

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"

	"github.com/ahsanfayaz52/notespark/internal/models"
)

type Renderer struct {
	md goldmark.Markdown
}

func New() *Renderer {
	return &Renderer{md: goldmark.New()}
}

// HTML renders content. Raw HTML in the input is not passed through.
func (r *Renderer) HTML(content string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(content), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// Note is a note prepared for display.
type Note struct {
	models.Note
	HTML    template.HTML `json:"html"`
	TagLine string        `json:"tag_line"`
}

func (r *Renderer) Note(n models.Note) (Note, error) {
	html, err := r.HTML(n.Content)
	if err != nil {
		return Note{}, err
	}
	return Note{Note: n, HTML: html, TagLine: models.JoinTags(n.Tags)}, nil
}

func (r *Renderer) Notes(notes []models.Note) ([]Note, error) {
	out := make([]Note, 0, len(notes))
	for _, n := range notes {
		rn, err := r.Note(n)
		if err != nil {
			return nil, fmt.Errorf("render note %s: %w", n.ID, err)
		}
		out = append(out, rn)
	}
	return out, nil
}
