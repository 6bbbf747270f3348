package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahsanfayaz52/notespark/internal/db"
	"github.com/ahsanfayaz52/notespark/internal/models"
)

func newSQLBackend(t *testing.T) *SQLBackend {
	t.Helper()
	conn, err := db.Open(context.Background(), "sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewSQLBackend(conn)
}

func TestSQLBackendRoundTrip(t *testing.T) {
	ctx := context.Background()
	b := newSQLBackend(t)

	n := models.Note{ID: "n1", UserID: "u1", Title: "Work plan", Content: "ship it", Tags: []string{"work", "q2"}, CreatedAt: t0}
	require.NoError(t, b.Insert(ctx, n))

	got, err := b.FindByID(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, n.Title, got.Title)
	assert.Equal(t, n.Content, got.Content)
	assert.Equal(t, n.Tags, got.Tags)
	assert.True(t, t0.Equal(got.CreatedAt))
	assert.Nil(t, got.UpdatedAt)

	edited := t0.Add(time.Hour)
	require.NoError(t, b.Update(ctx, "n1", models.NoteUpdate{Title: "Work plan v2", Tags: []string{}, UpdatedAt: edited}))

	got, err = b.FindByID(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, "Work plan v2", got.Title)
	assert.Equal(t, []string{}, got.Tags)
	require.NotNil(t, got.UpdatedAt)
	assert.True(t, edited.Equal(*got.UpdatedAt))

	require.NoError(t, b.Delete(ctx, "n1"))
	_, err = b.FindByID(ctx, "n1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLBackendMissingRows(t *testing.T) {
	ctx := context.Background()
	b := newSQLBackend(t)

	assert.ErrorIs(t, b.Update(ctx, "nope", models.NoteUpdate{UpdatedAt: t0}), ErrNotFound)
	assert.ErrorIs(t, b.Delete(ctx, "nope"), ErrNotFound)
}

func TestSQLBackendListByOwner(t *testing.T) {
	ctx := context.Background()
	b := newSQLBackend(t)

	require.NoError(t, b.Insert(ctx, models.Note{ID: "1", UserID: "u1", Title: "first", CreatedAt: t0}))
	require.NoError(t, b.Insert(ctx, models.Note{ID: "2", UserID: "u1", Title: "third", CreatedAt: t0.Add(2 * time.Hour)}))
	require.NoError(t, b.Insert(ctx, models.Note{ID: "3", UserID: "u1", Title: "second", CreatedAt: t0.Add(time.Hour)}))
	require.NoError(t, b.Insert(ctx, models.Note{ID: "4", UserID: "u2", Title: "other", CreatedAt: t0}))

	notes, err := b.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"third", "second", "first"}, titles(notes))

	empty, err := b.ListByOwner(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
