// Package auth checks the admin password and issues session tokens.
package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/folio/internal/session"
	"github.com/dmitrymomot/folio/pkg/logger"
	"github.com/dmitrymomot/folio/pkg/validator"
)

// Password length bounds. bcrypt ignores bytes past 72.
const (
	MinPasswordLen = 8
	MaxPasswordLen = 72
)

// Token is an issued session token.
type Token struct {
	Value     string
	ExpiresIn time.Duration
}

// Authenticator ties the credential store to the session store.
type Authenticator struct {
	creds    Credentials
	sessions session.Store
	ttl      time.Duration
	log      *slog.Logger
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithTTL sets the session lifetime.
// Default: session.DefaultTTL
func WithTTL(d time.Duration) Option {
	return func(a *Authenticator) {
		if d > 0 {
			a.ttl = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Authenticator) {
		if l != nil {
			a.log = l
		}
	}
}

// New returns an authenticator.
func New(creds Credentials, sessions session.Store, opts ...Option) *Authenticator {
	a := &Authenticator{
		creds:    creds,
		sessions: sessions,
		ttl:      session.DefaultTTL,
		log:      logger.NewNope(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Login checks password and, on a match, issues a new session token.
func (a *Authenticator) Login(ctx context.Context, password string) (Token, error) {
	if password == "" {
		return Token{}, ErrInvalidCredentials
	}
	ok, err := a.creds.Verify(ctx, password)
	if err != nil {
		return Token{}, err
	}
	if !ok {
		a.log.WarnContext(ctx, "login rejected")
		return Token{}, ErrInvalidCredentials
	}

	token := uuid.NewString()
	if err := a.sessions.Put(ctx, token, a.ttl); err != nil {
		return Token{}, err
	}
	a.log.InfoContext(ctx, "admin logged in")
	return Token{Value: token, ExpiresIn: a.ttl}, nil
}

// IsAuthenticated reports whether token is a live session. Store failures
// are logged and count as unauthenticated.
func (a *Authenticator) IsAuthenticated(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}
	ok, err := a.sessions.IsValid(ctx, token)
	if err != nil {
		a.log.ErrorContext(ctx, "session lookup failed", slog.Any("error", err))
		return false
	}
	return ok
}

// ChangePassword replaces the admin password. Issued sessions stay valid
// until they expire.
func (a *Authenticator) ChangePassword(ctx context.Context, password string) error {
	if err := validator.Apply(
		validator.MinLenString("newPassword", password, MinPasswordLen),
		validator.Custom("newPassword", len(password) <= MaxPasswordLen,
			"must be at most 72 bytes long", "validation.max_bytes"),
	); err != nil {
		return err
	}
	if err := a.creds.Set(ctx, password); err != nil {
		return err
	}
	a.log.InfoContext(ctx, "admin password changed")
	return nil
}
