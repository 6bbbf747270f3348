// Package store is the note document store: CRUD plus push-based
// subscriptions that redeliver an owner's complete note list after every
// change to it.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/ahsanfayaz52/notespark/internal/models"
)

var ErrNotFound = errors.New("note not found")

// Error reports a failed storage operation.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Store is the document store contract used by the application.
type Store interface {
	Writer
	Reader
	Subscribe(ctx context.Context, q Query) (*Subscription, error)
}

type Writer interface {
	Create(ctx context.Context, n models.Note) (string, error)
	Update(ctx context.Context, id string, u models.NoteUpdate) error
	Delete(ctx context.Context, id string) error
}

type Reader interface {
	Get(ctx context.Context, id string) (models.Note, error)
}

// Query selects the notes of one owner, newest first.
type Query struct {
	OwnerID string
}

// Snapshot is the complete result set of a Query at one point in time.
// A Snapshot with Err set is the last one on its subscription.
type Snapshot struct {
	Notes []models.Note
	Err   error
}

type Subscription struct {
	// C is closed after Stop, after a terminal error, or when the
	// subscribing context ends.
	C <-chan Snapshot

	cancel context.CancelFunc
	done   chan struct{}
}

// Stop ends the subscription and waits for its goroutine to exit. No
// snapshot is sent on C after Stop returns.
func (s *Subscription) Stop() {
	s.cancel()
	<-s.done
}

// offer replaces any undelivered snapshot with s; snapshots are complete
// states so only the newest matters.
func offer(out chan Snapshot, s Snapshot) {
	for {
		select {
		case out <- s:
			return
		default:
		}
		select {
		case <-out:
		default:
		}
	}
}

// NewSubscription adapts a snapshot channel fed by another source. stop, when
// not nil, runs once as the subscription ends.
func NewSubscription(src <-chan Snapshot, stop func()) *Subscription {
	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan Snapshot, 1)
	sub := &Subscription{C: out, cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(sub.done)
		defer close(out)
		if stop != nil {
			defer stop()
		}
		for {
			select {
			case <-ctx.Done():
				return
			case s, ok := <-src:
				if !ok {
					return
				}
				offer(out, s)
				if s.Err != nil {
					return
				}
			}
		}
	}()
	return sub
}
