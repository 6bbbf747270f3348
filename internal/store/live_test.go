package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahsanfayaz52/notespark/internal/db"
	"github.com/ahsanfayaz52/notespark/internal/models"
)

func newLive(t *testing.T) (*Live, *Hub) {
	t.Helper()
	conn, err := db.Open(context.Background(), "sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	hub := NewHub()
	return NewLive(NewSQLBackend(conn), hub), hub
}

// next waits for the next snapshot on sub.
func next(t *testing.T, sub *Subscription) Snapshot {
	t.Helper()
	select {
	case s, ok := <-sub.C:
		require.True(t, ok, "subscription closed")
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot delivered")
		return Snapshot{}
	}
}

func titles(notes []models.Note) []string {
	out := make([]string, 0, len(notes))
	for _, n := range notes {
		out = append(out, n.Title)
	}
	return out
}

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func TestLiveCreateAndGet(t *testing.T) {
	ctx := context.Background()
	live, _ := newLive(t)

	id, err := live.Create(ctx, models.Note{
		UserID:  "u1",
		Title:   "Groceries",
		Content: "milk",
		Tags:    models.ParseTags("a, b ,c"),
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := live.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Groceries", got.Title)
	assert.Equal(t, []string{"a", "b", "c"}, got.Tags)
	assert.Equal(t, "u1", got.UserID)
	assert.False(t, got.CreatedAt.IsZero())
	assert.Nil(t, got.UpdatedAt)
}

func TestLiveCreateRequiresOwner(t *testing.T) {
	live, _ := newLive(t)
	_, err := live.Create(context.Background(), models.Note{Title: "orphan"})
	var se *Error
	assert.True(t, errors.As(err, &se))
}

func TestLiveGetNotFound(t *testing.T) {
	live, _ := newLive(t)
	_, err := live.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	var se *Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "get", se.Op)
}

func TestLiveUpdateAndDeleteMissing(t *testing.T) {
	ctx := context.Background()
	live, _ := newLive(t)

	assert.ErrorIs(t, live.Update(ctx, "missing", models.NoteUpdate{Title: "x"}), ErrNotFound)
	assert.ErrorIs(t, live.Delete(ctx, "missing"), ErrNotFound)
}

func TestSubscribeDeliversOwnersNotesNewestFirst(t *testing.T) {
	ctx := context.Background()
	live, _ := newLive(t)

	_, err := live.Create(ctx, models.Note{UserID: "u1", Title: "old", CreatedAt: t0})
	require.NoError(t, err)
	_, err = live.Create(ctx, models.Note{UserID: "u2", Title: "foreign", CreatedAt: t0.Add(time.Minute)})
	require.NoError(t, err)
	_, err = live.Create(ctx, models.Note{UserID: "u1", Title: "new", CreatedAt: t0.Add(2 * time.Minute)})
	require.NoError(t, err)

	sub, err := live.Subscribe(ctx, Query{OwnerID: "u1"})
	require.NoError(t, err)
	defer sub.Stop()

	s := next(t, sub)
	require.NoError(t, s.Err)
	assert.Equal(t, []string{"new", "old"}, titles(s.Notes))
}

func TestSubscribeRedeliversAfterEveryWrite(t *testing.T) {
	ctx := context.Background()
	live, _ := newLive(t)

	sub, err := live.Subscribe(ctx, Query{OwnerID: "u1"})
	require.NoError(t, err)
	defer sub.Stop()

	s := next(t, sub)
	assert.Empty(t, s.Notes)
	assert.NotNil(t, s.Notes)

	id, err := live.Create(ctx, models.Note{UserID: "u1", Title: "Groceries", Tags: []string{"home"}, CreatedAt: t0})
	require.NoError(t, err)
	assert.Equal(t, []string{"Groceries"}, titles(next(t, sub).Notes))

	require.NoError(t, live.Update(ctx, id, models.NoteUpdate{Title: "Shopping", Tags: []string{"home"}}))
	s = next(t, sub)
	require.Len(t, s.Notes, 1)
	assert.Equal(t, "Shopping", s.Notes[0].Title)
	assert.NotNil(t, s.Notes[0].UpdatedAt)
	assert.True(t, t0.Equal(s.Notes[0].CreatedAt), "update keeps creation time")

	require.NoError(t, live.Delete(ctx, id))
	assert.Empty(t, next(t, sub).Notes)
}

func TestSubscribeIgnoresOtherOwners(t *testing.T) {
	ctx := context.Background()
	live, _ := newLive(t)

	sub, err := live.Subscribe(ctx, Query{OwnerID: "u1"})
	require.NoError(t, err)
	defer sub.Stop()
	next(t, sub)

	_, err = live.Create(ctx, models.Note{UserID: "u2", Title: "foreign"})
	require.NoError(t, err)

	select {
	case s := <-sub.C:
		t.Fatalf("unexpected snapshot %v", titles(s.Notes))
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSubscribeRequiresOwner(t *testing.T) {
	live, _ := newLive(t)
	_, err := live.Subscribe(context.Background(), Query{})
	assert.Error(t, err)
}

func TestSubscriptionStop(t *testing.T) {
	ctx := context.Background()
	live, hub := newLive(t)

	sub, err := live.Subscribe(ctx, Query{OwnerID: "u1"})
	require.NoError(t, err)
	next(t, sub)
	assert.Equal(t, 1, hub.Subscribers("u1"))

	sub.Stop()
	sub.Stop() // idempotent

	_, ok := <-sub.C
	assert.False(t, ok, "C is closed after Stop")
	assert.Equal(t, 0, hub.Subscribers("u1"))

	_, err = live.Create(ctx, models.Note{UserID: "u1", Title: "after"})
	require.NoError(t, err)
}

func TestSubscriptionEndsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	live, _ := newLive(t)

	sub, err := live.Subscribe(ctx, Query{OwnerID: "u1"})
	require.NoError(t, err)
	next(t, sub)

	cancel()
	select {
	case _, ok := <-sub.C:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not end")
	}
}

func TestSubscriptionCoalescesForSlowConsumer(t *testing.T) {
	ctx := context.Background()
	live, _ := newLive(t)

	sub, err := live.Subscribe(ctx, Query{OwnerID: "u1"})
	require.NoError(t, err)
	defer sub.Stop()
	next(t, sub)

	for i := 0; i < 5; i++ {
		_, err := live.Create(ctx, models.Note{UserID: "u1", Title: "n", CreatedAt: t0.Add(time.Duration(i) * time.Second)})
		require.NoError(t, err)
	}

	// only complete states are delivered, so the list eventually has all five
	require.Eventually(t, func() bool {
		select {
		case s := <-sub.C:
			return len(s.Notes) == 5
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

type failingBackend struct {
	Backend
	listErr error
}

func (f *failingBackend) ListByOwner(ctx context.Context, owner string) ([]models.Note, error) {
	return nil, f.listErr
}

func TestSubscriptionTerminalError(t *testing.T) {
	boom := errors.New("disk on fire")
	live := NewLive(&failingBackend{listErr: boom}, NewHub())

	sub, err := live.Subscribe(context.Background(), Query{OwnerID: "u1"})
	require.NoError(t, err)
	defer sub.Stop()

	s := next(t, sub)
	require.Error(t, s.Err)
	assert.ErrorIs(t, s.Err, boom)

	_, ok := <-sub.C
	assert.False(t, ok, "C is closed after an error snapshot")
}

type brokenBus struct{ *Hub }

func (b *brokenBus) Publish(context.Context, string) error {
	return errors.New("bus down")
}

func TestWriteSucceedsWhenPublishFails(t *testing.T) {
	conn, err := db.Open(context.Background(), "sqlite3", ":memory:")
	require.NoError(t, err)
	defer conn.Close()

	live := NewLive(NewSQLBackend(conn), &brokenBus{Hub: NewHub()})
	id, err := live.Create(context.Background(), models.Note{UserID: "u1", Title: "kept"})
	require.NoError(t, err)

	got, err := live.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "kept", got.Title)
}
