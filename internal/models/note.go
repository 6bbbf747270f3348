package models

import (
	"strings"
	"time"
)

type Note struct {
	ID        string     `json:"id" bson:"_id"`
	UserID    string     `json:"user_id" bson:"user_id"`
	Title     string     `json:"title" bson:"title"`
	Content   string     `json:"content" bson:"content"`
	Tags      []string   `json:"tags" bson:"tags"`
	CreatedAt time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" bson:"updated_at,omitempty"`
}

// NoteUpdate carries the fields an edit overwrites. Owner and creation time never change.
type NoteUpdate struct {
	Title     string
	Content   string
	Tags      []string
	UpdatedAt time.Time
}

// Draft is the unsaved input of one editor.
type Draft struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Tags    string `json:"tags"`
}

func (d Draft) Empty() bool {
	return d.Title == "" && d.Content == "" && d.Tags == ""
}

// ParseTags splits comma-separated input into trimmed tags, dropping empty entries.
func ParseTags(s string) []string {
	tags := []string{}
	for _, t := range strings.Split(s, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// JoinTags is the inverse of ParseTags used to fill an edit form.
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}
