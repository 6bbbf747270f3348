package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ahsanfayaz52/notespark/internal/models"
)

const minPasswordLen = 6

// Accounts registers and authenticates users against a Directory.
type Accounts struct {
	dir     Directory
	cost    int
	now     func() time.Time
	compare func(hash, password []byte) error

	// hash checked for unknown emails so they take as long as known ones
	dummyOnce sync.Once
	dummy     []byte
}

type AccountsOption func(*Accounts)

// WithHashCost sets the bcrypt cost of new password hashes.
func WithHashCost(cost int) AccountsOption {
	return func(a *Accounts) { a.cost = cost }
}

func NewAccounts(dir Directory, opts ...AccountsOption) *Accounts {
	a := &Accounts{
		dir:     dir,
		cost:    bcrypt.DefaultCost,
		now:     time.Now,
		compare: bcrypt.CompareHashAndPassword,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Accounts) Register(ctx context.Context, email, password string) (models.Identity, error) {
	email, err := normalize(email, password)
	if err != nil {
		return models.Identity{}, err
	}

	hashedPass, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return models.Identity{}, authErr(AuthUnavailable, fmt.Errorf("hash password: %w", err))
	}

	u := models.User{
		ID:        uuid.NewString(),
		Email:     email,
		Password:  string(hashedPass),
		CreatedAt: a.now(),
	}
	if err := a.dir.CreateUser(ctx, u); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return models.Identity{}, authErr(AuthEmailInUse, err)
		}
		return models.Identity{}, authErr(AuthUnavailable, err)
	}
	return u.Identity(), nil
}

func (a *Accounts) Authenticate(ctx context.Context, email, password string) (models.Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return models.Identity{}, authErr(AuthInvalidCredentials, nil)
	}

	u, err := a.dir.FindByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		a.compare(a.dummyHash(), []byte(password))
		return models.Identity{}, authErr(AuthInvalidCredentials, nil)
	}
	if err != nil {
		return models.Identity{}, authErr(AuthUnavailable, err)
	}

	if err := a.compare([]byte(u.Password), []byte(password)); err != nil {
		return models.Identity{}, authErr(AuthInvalidCredentials, nil)
	}
	return u.Identity(), nil
}

func (a *Accounts) dummyHash() []byte {
	a.dummyOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte("notespark-unknown-user"), a.cost)
		if err != nil {
			h, _ = bcrypt.GenerateFromPassword([]byte("notespark-unknown-user"), bcrypt.DefaultCost)
		}
		a.dummy = h
	})
	return a.dummy
}

func normalize(email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return "", authErr(AuthInvalidInput, fmt.Errorf("invalid email %q", email))
	}
	if len(password) < minPasswordLen {
		return "", authErr(AuthInvalidInput, fmt.Errorf("password must be at least %d characters", minPasswordLen))
	}
	return email, nil
}
