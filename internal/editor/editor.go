// Package editor captures a note draft and submits it as a create or, after
// Load, as an update.
package editor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ahsanfayaz52/notespark/internal/models"
	"github.com/ahsanfayaz52/notespark/internal/notify"
	"github.com/ahsanfayaz52/notespark/internal/session"
	"github.com/ahsanfayaz52/notespark/internal/store"
)

var (
	ErrNotAuthenticated = errors.New("user is not authenticated")
	ErrSubmitInFlight   = errors.New("submission already in progress")
	ErrClosed           = errors.New("editor closed")
)

const (
	msgNotAuthenticated = "User is not authenticated."
	msgSaved            = "Note saved successfully!"
	msgSaveFailed       = "Failed to save note"
	msgUpdated          = "Note updated successfully!"
	msgUpdateFailed     = "Failed to update note"
	msgNotFound         = "Note not found."
	msgFetchFailed      = "Failed to fetch note"
)

// NoteStore is the part of store.Store the editor writes through.
type NoteStore interface {
	store.Writer
	store.Reader
}

type Editor struct {
	store    NoteStore
	source   session.Source
	notifier notify.Notifier
	log      zerolog.Logger
	now      func() time.Time

	mu      sync.Mutex
	draft   models.Draft
	editing string
	// owner of the note being edited; an update is only sent for this user
	owner      string
	submitting bool
	closed     bool
}

type Option func(*Editor)

func WithNotifier(n notify.Notifier) Option {
	return func(e *Editor) { e.notifier = n }
}

func WithLogger(log zerolog.Logger) Option {
	return func(e *Editor) { e.log = log }
}

func WithClock(now func() time.Time) Option {
	return func(e *Editor) { e.now = now }
}

func New(s NoteStore, source session.Source, opts ...Option) *Editor {
	e := &Editor{
		store:    s,
		source:   source,
		notifier: notify.Nop{},
		log:      zerolog.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Editor) SetDraft(d models.Draft) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.draft = d
}

func (e *Editor) Draft() models.Draft {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft
}

// Editing returns the id of the note being edited, empty in create mode.
func (e *Editor) Editing() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.editing
}

func (e *Editor) Submitting() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.submitting
}

// Cancel discards the draft and leaves edit mode.
func (e *Editor) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.draft = models.Draft{}
	e.editing = ""
	e.owner = ""
}

// Load switches the editor to editing note id, filling the draft from storage.
func (e *Editor) Load(ctx context.Context, id string) error {
	user, ok := e.source.Current().User()
	if !ok {
		e.notifier.Error(msgNotAuthenticated)
		return ErrNotAuthenticated
	}

	n, err := e.store.Get(ctx, id)
	if err == nil && n.UserID != user.ID {
		err = &store.Error{Op: "get", Err: store.ErrNotFound}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			e.notifier.Error(msgNotFound)
		} else {
			e.log.Warn().Err(err).Str("note_id", id).Msg("fetch note failed")
			e.notifier.Error(msgFetchFailed)
		}
		return err
	}

	e.editing = n.ID
	e.owner = n.UserID
	e.draft = models.Draft{
		Title:   n.Title,
		Content: n.Content,
		Tags:    models.JoinTags(n.Tags),
	}
	return nil
}

// Submit writes the draft: a new note in create mode, an update after Load.
// It returns the id of the written note.
func (e *Editor) Submit(ctx context.Context) (string, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return "", ErrClosed
	}
	if e.submitting {
		e.mu.Unlock()
		return "", ErrSubmitInFlight
	}
	user, ok := e.source.Current().User()
	if !ok || (e.editing != "" && e.owner != user.ID) {
		e.mu.Unlock()
		e.notifier.Error(msgNotAuthenticated)
		return "", ErrNotAuthenticated
	}
	draft, editing := e.draft, e.editing
	e.submitting = true
	e.mu.Unlock()

	var (
		id  = editing
		op  = "update"
		err error
	)
	if editing == "" {
		op = "create"
		id, err = e.store.Create(ctx, models.Note{
			UserID:    user.ID,
			Title:     draft.Title,
			Content:   draft.Content,
			Tags:      models.ParseTags(draft.Tags),
			CreatedAt: e.now(),
		})
	} else {
		err = e.store.Update(ctx, editing, models.NoteUpdate{
			Title:     draft.Title,
			Content:   draft.Content,
			Tags:      models.ParseTags(draft.Tags),
			UpdatedAt: e.now(),
		})
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.submitting = false
	if err != nil {
		var se *store.Error
		if !errors.As(err, &se) {
			err = &store.Error{Op: op, Err: err}
		}
	}
	if e.closed {
		// the result belongs to a disposed editor
		return id, err
	}

	if err != nil {
		e.log.Warn().Err(err).Str("op", op).Msg("submit note failed")
		if op == "create" {
			e.notifier.Error(msgSaveFailed)
		} else {
			e.notifier.Error(msgUpdateFailed)
		}
		return "", err
	}

	e.draft = models.Draft{}
	e.editing = ""
	e.owner = ""
	if op == "create" {
		e.notifier.Success(msgSaved)
	} else {
		e.notifier.Success(msgUpdated)
	}
	return id, nil
}

// Close disposes the editor. Writes still in flight complete, but their
// results no longer change the draft or notify.
func (e *Editor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
}
