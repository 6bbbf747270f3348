// Package liveview keeps one owner's notes in sync with the store through a
// snapshot subscription.
package liveview

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ahsanfayaz52/notespark/internal/models"
	"github.com/ahsanfayaz52/notespark/internal/notify"
	"github.com/ahsanfayaz52/notespark/internal/store"
)

type State int

const (
	Unsubscribed State = iota
	Subscribing
	Live
	Error
)

func (s State) String() string {
	switch s {
	case Subscribing:
		return "subscribing"
	case Live:
		return "live"
	case Error:
		return "error"
	default:
		return "unsubscribed"
	}
}

var (
	ErrStopped = errors.New("view stopped")
	// ErrEnded is returned by Fetch when the subscription closed before
	// delivering a snapshot.
	ErrEnded = errors.New("subscription ended")
)

const (
	msgDeleted      = "Note deleted successfully!"
	msgDeleteFailed = "Failed to delete note"
	msgLoadFailed   = "Failed to load notes"
)

// NoteStore is what the view needs from store.Store.
type NoteStore interface {
	Subscribe(ctx context.Context, q store.Query) (*store.Subscription, error)
	Delete(ctx context.Context, id string) error
}

// Model is a point-in-time copy of the view.
type Model struct {
	State   State
	Owner   string
	Notes   []models.Note // every note of the owner, newest first
	Visible []models.Note // Notes filtered by Search
	Search  string
	Editing string
	Loading bool
	Err     error
}

type View struct {
	store    NoteStore
	notifier notify.Notifier
	log      zerolog.Logger

	mu      sync.Mutex
	state   State
	owner   string
	notes   []models.Note
	err     error
	search  string
	editing string
	stopped bool
	// gen identifies the current subscription; deliveries carrying an
	// older generation are dropped.
	gen     uint64
	sub     *store.Subscription
	changed chan struct{}
	updates chan struct{}
}

type Option func(*View)

func WithNotifier(n notify.Notifier) Option {
	return func(v *View) { v.notifier = n }
}

func WithLogger(log zerolog.Logger) Option {
	return func(v *View) { v.log = log }
}

func New(s NoteStore, opts ...Option) *View {
	v := &View{
		store:    s,
		notifier: notify.Nop{},
		log:      zerolog.Nop(),
		notes:    []models.Note{},
		changed:  make(chan struct{}),
		updates:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// SetOwner subscribes to owner's notes, replacing any previous subscription.
// An empty owner unsubscribes. Setting the current owner again is a no-op
// while subscribing or live; after an error or an ended subscription it
// resubscribes.
func (v *View) SetOwner(ctx context.Context, owner string) error {
	v.mu.Lock()
	if v.stopped {
		v.mu.Unlock()
		return ErrStopped
	}
	if owner == v.owner && owner != "" && (v.state == Subscribing || v.state == Live) {
		v.mu.Unlock()
		return nil
	}

	old := v.sub
	v.sub = nil
	v.gen++
	gen := v.gen
	if owner != v.owner {
		v.notes = []models.Note{}
		v.editing = ""
	}
	v.owner = owner
	v.err = nil
	if owner == "" {
		v.setState(Unsubscribed)
	} else {
		v.setState(Subscribing)
	}
	v.mu.Unlock()

	if old != nil {
		old.Stop()
	}
	if owner == "" {
		return nil
	}

	sub, err := v.store.Subscribe(ctx, store.Query{OwnerID: owner})

	v.mu.Lock()
	if gen != v.gen {
		v.mu.Unlock()
		if sub != nil {
			sub.Stop()
		}
		return nil
	}
	if err != nil {
		v.fail(err)
		v.mu.Unlock()
		return err
	}
	v.sub = sub
	v.mu.Unlock()

	go v.consume(gen, sub)
	return nil
}

func (v *View) consume(gen uint64, sub *store.Subscription) {
	for snap := range sub.C {
		v.apply(gen, snap)
	}

	// C closed without a terminal error: the subscribing context ended.
	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.gen || v.state == Error {
		return
	}
	v.log.Debug().Str("owner", v.owner).Msg("note subscription ended")
	v.sub = nil
	v.setState(Unsubscribed)
}

func (v *View) apply(gen uint64, snap store.Snapshot) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.gen {
		return
	}
	if snap.Err != nil {
		v.fail(snap.Err)
		return
	}
	v.notes = snap.Notes
	if v.notes == nil {
		v.notes = []models.Note{}
	}
	v.setState(Live)
}

// fail freezes the list at its last value. Callers hold v.mu.
func (v *View) fail(err error) {
	v.err = err
	v.log.Warn().Err(err).Str("owner", v.owner).Msg("note subscription failed")
	v.notifier.Error(msgLoadFailed)
	v.setState(Error)
}

// setState records s and wakes waiters. Callers hold v.mu.
func (v *View) setState(s State) {
	if s != v.state {
		v.state = s
		close(v.changed)
		v.changed = make(chan struct{})
	}
	v.signal()
}

func (v *View) signal() {
	select {
	case v.updates <- struct{}{}:
	default:
	}
}

// Updates receives a value whenever the state, list, search or edit
// selection changed. Signals coalesce.
func (v *View) Updates() <-chan struct{} {
	return v.updates
}

// Wait blocks until the view is no longer subscribing.
func (v *View) Wait(ctx context.Context) error {
	for {
		v.mu.Lock()
		state, changed := v.state, v.changed
		v.mu.Unlock()
		if state != Subscribing {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
		}
	}
}

func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

func (v *View) Loading() bool {
	return v.State() == Subscribing
}

func (v *View) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

// Notes returns the owner's complete list as last delivered.
func (v *View) Notes() []models.Note {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]models.Note(nil), v.notes...)
}

// Visible returns the list filtered by the current search.
func (v *View) Visible() []models.Note {
	v.mu.Lock()
	defer v.mu.Unlock()
	return Filter(v.notes, v.search)
}

func (v *View) Search(q string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.search = q
	v.signal()
}

// ToggleEdit puts note id into edit mode, or takes it out if it already is.
// At most one note is in edit mode.
func (v *View) ToggleEdit(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.editing == id {
		v.editing = ""
	} else {
		v.editing = id
	}
	v.signal()
}

func (v *View) Editing() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.editing
}

func (v *View) Current() Model {
	v.mu.Lock()
	defer v.mu.Unlock()
	return Model{
		State:   v.state,
		Owner:   v.owner,
		Notes:   append([]models.Note(nil), v.notes...),
		Visible: Filter(v.notes, v.search),
		Search:  v.search,
		Editing: v.editing,
		Loading: v.state == Subscribing,
		Err:     v.err,
	}
}

// Delete asks the store to remove note id. The list only changes when the
// store delivers the next snapshot.
func (v *View) Delete(ctx context.Context, id string) error {
	err := v.store.Delete(ctx, id)
	if err != nil {
		var se *store.Error
		if !errors.As(err, &se) {
			err = &store.Error{Op: "delete", Err: err}
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.stopped {
		return err
	}
	if err != nil {
		v.log.Warn().Err(err).Str("note_id", id).Msg("delete note failed")
		v.notifier.Error(msgDeleteFailed)
		return err
	}
	if v.editing == id {
		v.editing = ""
		v.signal()
	}
	v.notifier.Success(msgDeleted)
	return nil
}

// Stop ends the subscription. No state changes happen after Stop returns.
func (v *View) Stop() {
	v.mu.Lock()
	if v.stopped {
		v.mu.Unlock()
		return
	}
	v.stopped = true
	v.gen++
	sub := v.sub
	v.sub = nil
	v.setState(Unsubscribed)
	v.mu.Unlock()

	if sub != nil {
		sub.Stop()
	}
}

// Fetch returns owner's notes from the first snapshot of a short-lived view.
func Fetch(ctx context.Context, s NoteStore, owner string) ([]models.Note, error) {
	v := New(s)
	defer v.Stop()

	if err := v.SetOwner(ctx, owner); err != nil {
		return nil, err
	}
	if err := v.Wait(ctx); err != nil {
		return nil, err
	}
	m := v.Current()
	switch m.State {
	case Live:
		return m.Notes, nil
	case Error:
		return nil, m.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, ErrEnded
}
