package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ahsanfayaz52/notespark/internal/models"
)

// Backend persists notes. Implementations return ErrNotFound for missing ids.
type Backend interface {
	Insert(ctx context.Context, n models.Note) error
	FindByID(ctx context.Context, id string) (models.Note, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Note, error)
	Update(ctx context.Context, id string, u models.NoteUpdate) error
	Delete(ctx context.Context, id string) error
}

// Live is a Store that announces every write on a Bus and re-queries the
// Backend for each subscriber of the written owner.
type Live struct {
	backend Backend
	bus     Bus
	log     zerolog.Logger
	now     func() time.Time
}

type Option func(*Live)

func WithLogger(log zerolog.Logger) Option {
	return func(l *Live) { l.log = log }
}

func NewLive(backend Backend, bus Bus, opts ...Option) *Live {
	l := &Live{
		backend: backend,
		bus:     bus,
		log:     zerolog.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Live) Create(ctx context.Context, n models.Note) (string, error) {
	if n.UserID == "" {
		return "", &Error{Op: "create", Err: errors.New("note has no owner")}
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = l.now()
	}
	n.CreatedAt = n.CreatedAt.UTC()
	if n.Tags == nil {
		n.Tags = []string{}
	}

	if err := l.backend.Insert(ctx, n); err != nil {
		return "", &Error{Op: "create", Err: err}
	}
	l.publish(ctx, n.UserID)
	return n.ID, nil
}

func (l *Live) Update(ctx context.Context, id string, u models.NoteUpdate) error {
	n, err := l.backend.FindByID(ctx, id)
	if err != nil {
		return &Error{Op: "update", Err: err}
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = l.now()
	}
	u.UpdatedAt = u.UpdatedAt.UTC()
	if u.Tags == nil {
		u.Tags = []string{}
	}

	if err := l.backend.Update(ctx, id, u); err != nil {
		return &Error{Op: "update", Err: err}
	}
	l.publish(ctx, n.UserID)
	return nil
}

func (l *Live) Delete(ctx context.Context, id string) error {
	n, err := l.backend.FindByID(ctx, id)
	if err != nil {
		return &Error{Op: "delete", Err: err}
	}
	if err := l.backend.Delete(ctx, id); err != nil {
		return &Error{Op: "delete", Err: err}
	}
	l.publish(ctx, n.UserID)
	return nil
}

func (l *Live) Get(ctx context.Context, id string) (models.Note, error) {
	n, err := l.backend.FindByID(ctx, id)
	if err != nil {
		return models.Note{}, &Error{Op: "get", Err: err}
	}
	return n, nil
}

// Subscribe starts delivering snapshots of q. The first snapshot is the
// current state; a new one follows every write to the owner's notes.
func (l *Live) Subscribe(ctx context.Context, q Query) (*Subscription, error) {
	if q.OwnerID == "" {
		return nil, &Error{Op: "subscribe", Err: errors.New("query has no owner")}
	}

	ctx, cancel := context.WithCancel(ctx)
	// listen before the first read so no write slips between the two
	changes, unsubscribe, err := l.bus.Subscribe(ctx, q.OwnerID)
	if err != nil {
		cancel()
		return nil, &Error{Op: "subscribe", Err: err}
	}

	out := make(chan Snapshot, 1)
	sub := &Subscription{C: out, cancel: cancel, done: make(chan struct{})}
	go l.run(ctx, q, changes, unsubscribe, out, sub.done)
	return sub, nil
}

func (l *Live) run(ctx context.Context, q Query, changes <-chan struct{}, unsubscribe func(), out chan Snapshot, done chan struct{}) {
	defer close(done)
	defer close(out)
	defer unsubscribe()

	log := l.log.With().Str("owner", q.OwnerID).Logger()
	for {
		notes, err := l.backend.ListByOwner(ctx, q.OwnerID)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			log.Warn().Err(err).Msg("subscription query failed")
			offer(out, Snapshot{Err: &Error{Op: "subscribe", Err: err}})
			return
		}
		offer(out, Snapshot{Notes: notes})

		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				offer(out, Snapshot{Err: &Error{Op: "subscribe", Err: errors.New("change feed closed")}})
				return
			}
		}
	}
}

func (l *Live) publish(ctx context.Context, owner string) {
	if err := l.bus.Publish(ctx, owner); err != nil {
		// the write itself succeeded; subscribers catch up on the next change
		l.log.Warn().Err(err).Str("owner", owner).Msg("publish change failed")
	}
}
