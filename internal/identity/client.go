package identity

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ahsanfayaz52/notespark/internal/auth"
	"github.com/ahsanfayaz52/notespark/internal/models"
)

// Service is the identity contract the application depends on.
type Service interface {
	SignInWithPassword(ctx context.Context, email, password string) (models.Identity, error)
	CreateAccount(ctx context.Context, email, password string) (models.Identity, error)
	SignOut(ctx context.Context) error
	// OnIdentityChange calls fn with the current identity right away and
	// again on every change. fn must not call back into the Service.
	OnIdentityChange(fn func(*models.Identity)) (unsubscribe func())
}

// Client holds the signed-in identity of one application instance.
type Client struct {
	accounts *Accounts
	tokens   *auth.JWTService
	store    TokenStore
	log      zerolog.Logger

	// notifyMu orders deliveries; mu guards the fields below.
	notifyMu  sync.Mutex
	mu        sync.Mutex
	current   *models.Identity
	token     string
	listeners map[int]func(*models.Identity)
	nextID    int
}

type Option func(*Client)

func WithTokenStore(s TokenStore) Option {
	return func(c *Client) { c.store = s }
}

func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

func NewClient(accounts *Accounts, tokens *auth.JWTService, opts ...Option) *Client {
	c := &Client{
		accounts:  accounts,
		tokens:    tokens,
		log:       zerolog.Nop(),
		listeners: make(map[int]func(*models.Identity)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Restore signs in from a persisted token, if there is a valid one.
func (c *Client) Restore(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	token, err := c.store.Load()
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if token == "" {
		return nil
	}

	id, err := c.tokens.ValidateToken(token)
	if err != nil {
		c.log.Info().Msg("stored session expired")
		return c.store.Clear()
	}
	c.set(&id, token)
	return nil
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (models.Identity, error) {
	id, err := c.accounts.Authenticate(ctx, email, password)
	if err != nil {
		return models.Identity{}, err
	}
	if err := c.signIn(id); err != nil {
		return models.Identity{}, err
	}
	return id, nil
}

// CreateAccount registers the user and signs them in.
func (c *Client) CreateAccount(ctx context.Context, email, password string) (models.Identity, error) {
	id, err := c.accounts.Register(ctx, email, password)
	if err != nil {
		return models.Identity{}, err
	}
	if err := c.signIn(id); err != nil {
		return models.Identity{}, err
	}
	return id, nil
}

func (c *Client) SignOut(ctx context.Context) error {
	if c.store != nil {
		if err := c.store.Clear(); err != nil {
			return authErr(AuthUnavailable, fmt.Errorf("clear session: %w", err))
		}
	}
	c.set(nil, "")
	return nil
}

func (c *Client) OnIdentityChange(fn func(*models.Identity)) func() {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	key := c.nextID
	c.nextID++
	c.listeners[key] = fn
	cur := clone(c.current)
	c.mu.Unlock()

	fn(cur)

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, key)
			c.mu.Unlock()
		})
	}
}

// Token returns the token of the signed-in user, empty when signed out.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Client) Current() *models.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return clone(c.current)
}

func (c *Client) signIn(id models.Identity) error {
	token, err := c.tokens.GenerateToken(id)
	if err != nil {
		return authErr(AuthUnavailable, err)
	}
	if c.store != nil {
		if err := c.store.Save(token); err != nil {
			return authErr(AuthUnavailable, fmt.Errorf("save session: %w", err))
		}
	}
	c.set(&id, token)
	return nil
}

func (c *Client) set(id *models.Identity, token string) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	c.current = clone(id)
	c.token = token
	fns := make([]func(*models.Identity), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	if id != nil {
		c.log.Debug().Str("user_id", id.ID).Msg("identity changed")
	} else {
		c.log.Debug().Msg("identity cleared")
	}
	for _, fn := range fns {
		fn(clone(id))
	}
}

func clone(id *models.Identity) *models.Identity {
	if id == nil {
		return nil
	}
	cp := *id
	return &cp
}
