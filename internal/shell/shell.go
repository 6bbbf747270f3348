// Package shell wires the session, editor and live list together and
// derives what the user should see.
package shell

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ahsanfayaz52/notespark/internal/editor"
	"github.com/ahsanfayaz52/notespark/internal/identity"
	"github.com/ahsanfayaz52/notespark/internal/liveview"
	"github.com/ahsanfayaz52/notespark/internal/notify"
	"github.com/ahsanfayaz52/notespark/internal/render"
	"github.com/ahsanfayaz52/notespark/internal/session"
	"github.com/ahsanfayaz52/notespark/internal/store"
)

type Screen int

const (
	ScreenLoading Screen = iota
	ScreenLoggedOut
	ScreenNotes
)

func (s Screen) String() string {
	switch s {
	case ScreenLoggedOut:
		return "logged-out"
	case ScreenNotes:
		return "notes"
	default:
		return "loading"
	}
}

// Model is everything a front end needs to draw the current screen.
type Model struct {
	Screen  Screen
	Email   string
	List    liveview.State
	Loading bool
	Search  string
	Editing string
	Notes   []render.Note
	Err     error
}

type Shell struct {
	session  *session.Provider
	editor   *editor.Editor
	list     *liveview.View
	renderer *render.Renderer
	log      zerolog.Logger

	closeOnce sync.Once
}

type options struct {
	notifier notify.Notifier
	log      zerolog.Logger
}

type Option func(*options)

func WithNotifier(n notify.Notifier) Option {
	return func(o *options) { o.notifier = n }
}

func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.log = log }
}

func New(svc identity.Service, s store.Store, opts ...Option) *Shell {
	o := options{notifier: notify.Nop{}, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	provider := session.NewProvider(svc,
		session.WithNotifier(o.notifier),
		session.WithLogger(o.log.With().Str("component", "session").Logger()))
	return &Shell{
		session: provider,
		editor: editor.New(s, provider,
			editor.WithNotifier(o.notifier),
			editor.WithLogger(o.log.With().Str("component", "editor").Logger())),
		list: liveview.New(s,
			liveview.WithNotifier(o.notifier),
			liveview.WithLogger(o.log.With().Str("component", "list").Logger())),
		renderer: render.New(),
		log:      o.log,
	}
}

func (s *Shell) Session() *session.Provider { return s.session }
func (s *Shell) Editor() *editor.Editor     { return s.editor }
func (s *Shell) List() *liveview.View       { return s.list }

// Run points the list at the signed-in user until ctx ends, then closes the
// shell. A change of user discards the editor's draft.
func (s *Shell) Run(ctx context.Context) error {
	defer s.Close()
	current := ""
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case st := <-s.session.Changes():
			owner := ""
			if user, ok := st.User(); ok {
				owner = user.ID
			}
			if owner != current {
				s.editor.Cancel()
				current = owner
			}
			if err := s.list.SetOwner(ctx, owner); err != nil {
				// the list reports the failure itself; a later change retries
				s.log.Debug().Err(err).Msg("set list owner")
			}
		}
	}
}

// Screen describes what to show right now.
func (s *Shell) Screen() Model {
	st := s.session.Current()
	switch st.Status {
	case session.Unresolved:
		return Model{Screen: ScreenLoading, Loading: true}
	case session.Anonymous:
		return Model{Screen: ScreenLoggedOut}
	}

	lm := s.list.Current()
	m := Model{
		Screen:  ScreenNotes,
		List:    lm.State,
		Loading: lm.Loading,
		Search:  lm.Search,
		Editing: lm.Editing,
		Err:     lm.Err,
	}
	if user, ok := st.User(); ok {
		m.Email = user.Email
	}
	notes, err := s.renderer.Notes(lm.Visible)
	if err != nil {
		s.log.Warn().Err(err).Msg("render notes")
		m.Err = err
	}
	m.Notes = notes
	return m
}

// Close tears down the list, editor and session, in that order.
func (s *Shell) Close() {
	s.closeOnce.Do(func() {
		s.list.Stop()
		s.editor.Close()
		s.session.Close()
	})
}
