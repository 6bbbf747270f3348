// Package session tracks who is signed in. The session is a value handed to
// the components that need it, never a global.
package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ahsanfayaz52/notespark/internal/identity"
	"github.com/ahsanfayaz52/notespark/internal/models"
	"github.com/ahsanfayaz52/notespark/internal/notify"
)

type Status int

const (
	Unresolved Status = iota
	Authenticated
	Anonymous
)

func (s Status) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	default:
		return "unresolved"
	}
}

type State struct {
	Status   Status
	Identity *models.Identity
}

func (s State) Resolved() bool { return s.Status != Unresolved }

// User returns the signed-in identity, if any.
func (s State) User() (models.Identity, bool) {
	if s.Status != Authenticated || s.Identity == nil {
		return models.Identity{}, false
	}
	return *s.Identity, true
}

// Source supplies the current session to a component.
type Source interface {
	Current() State
}

type staticSource State

func (s staticSource) Current() State { return State(s) }

// Static returns a Source fixed to id, or to an anonymous session when id is nil.
func Static(id *models.Identity) Source {
	if id == nil {
		return staticSource{Status: Anonymous}
	}
	cp := *id
	return staticSource{Status: Authenticated, Identity: &cp}
}

const (
	msgSignedIn     = "Successfully signed in!"
	msgSignInFailed = "Failed to sign in. Please check your credentials."
	msgSignedUp     = "Account created successfully!"
	msgSignUpFailed = "Failed to sign up. The email may already be in use."
	msgSignedOut    = "Logged out successfully!"
	msgSignOutFail  = "Failed to log out."
)

// Provider follows the identity service and exposes the resulting session.
type Provider struct {
	svc      identity.Service
	notifier notify.Notifier
	log      zerolog.Logger

	mu          sync.Mutex
	state       State
	closed      bool
	unsubscribe func()
	changes     chan State
}

type Option func(*Provider)

func WithNotifier(n notify.Notifier) Option {
	return func(p *Provider) { p.notifier = n }
}

func WithLogger(log zerolog.Logger) Option {
	return func(p *Provider) { p.log = log }
}

// NewProvider registers the provider's single identity listener.
func NewProvider(svc identity.Service, opts ...Option) *Provider {
	p := &Provider{
		svc:      svc,
		notifier: notify.Nop{},
		log:      zerolog.Nop(),
		changes:  make(chan State, 1),
	}
	for _, opt := range opts {
		opt(p)
	}

	unsubscribe := svc.OnIdentityChange(p.onChange)

	p.mu.Lock()
	p.unsubscribe = unsubscribe
	p.mu.Unlock()
	return p
}

func (p *Provider) onChange(id *models.Identity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}

	if id == nil {
		p.state = State{Status: Anonymous}
	} else {
		cp := *id
		p.state = State{Status: Authenticated, Identity: &cp}
	}
	p.log.Debug().Stringer("status", p.state.Status).Msg("session changed")

	// latest wins
	select {
	case <-p.changes:
	default:
	}
	p.changes <- p.state
}

func (p *Provider) Current() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Changes delivers the newest session after every identity notification.
// Only the latest undelivered value is kept.
func (p *Provider) Changes() <-chan State {
	return p.changes
}

func (p *Provider) SignIn(ctx context.Context, email, password string) error {
	if _, err := p.svc.SignInWithPassword(ctx, email, password); err != nil {
		p.log.Info().Err(err).Msg("sign in failed")
		p.notifier.Error(msgSignInFailed)
		return err
	}
	p.notifier.Success(msgSignedIn)
	return nil
}

func (p *Provider) SignUp(ctx context.Context, email, password string) error {
	if _, err := p.svc.CreateAccount(ctx, email, password); err != nil {
		p.log.Info().Err(err).Msg("sign up failed")
		p.notifier.Error(msgSignUpFailed)
		return err
	}
	p.notifier.Success(msgSignedUp)
	return nil
}

func (p *Provider) SignOut(ctx context.Context) error {
	if err := p.svc.SignOut(ctx); err != nil {
		p.log.Warn().Err(err).Msg("sign out failed")
		p.notifier.Error(msgSignOutFail)
		return err
	}
	p.notifier.Success(msgSignedOut)
	return nil
}

// Close unregisters the identity listener. Later notifications are ignored.
func (p *Provider) Close() {
	p.mu.Lock()
	p.closed = true
	unsubscribe := p.unsubscribe
	p.unsubscribe = nil
	p.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}
