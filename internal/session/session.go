// Package session tracks who the user is: nobody yet, a guest, or an
// authenticated account, and tells subscribers when that changes.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Mode is the kind of session in effect.
type Mode int

const (
	// ModeUnset means neither logged in nor guest.
	ModeUnset Mode = iota
	ModeGuest
	ModeAuthenticated
)

func (m Mode) String() string {
	switch m {
	case ModeGuest:
		return "guest"
	case ModeAuthenticated:
		return "authenticated"
	}
	return "unset"
}

// Identity is the authenticated user behind a session.
type Identity struct {
	UserID      string
	Email       string
	AccessToken string
	ExpiresAt   time.Time
}

// Expired reports whether the token has expired at now. A token without
// an expiry never expires.
func (i Identity) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

// State is a snapshot of the session. Epoch increases on every transition
// so consumers can detect one they missed.
type State struct {
	Mode     Mode
	Identity *Identity
	Epoch    uint64
}

// Listener is notified of every transition with the new state.
type Listener func(ctx context.Context, s State) error

// TokenStore persists the access token between runs.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// Authenticator exchanges credentials for an access token.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (string, error)
	SignUp(ctx context.Context, email, password string) (string, error)
}

type subscription struct {
	id int
	fn Listener
}

// Provider owns the current session.
type Provider struct {
	auth   Authenticator
	tokens TokenStore
	now    func() time.Time
	log    *slog.Logger

	mu        sync.Mutex
	state     State
	listeners []subscription
	nextID    int
}

// Option customizes a Provider.
type Option func(*Provider)

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

// WithLogger sets the logger for non-fatal token store failures.
func WithLogger(l *slog.Logger) Option {
	return func(p *Provider) { p.log = l }
}

// NewProvider returns a provider in ModeUnset.
func NewProvider(auth Authenticator, tokens TokenStore, opts ...Option) *Provider {
	p := &Provider{
		auth:   auth,
		tokens: tokens,
		now:    time.Now,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Current returns the current state.
func (p *Provider) Current() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// CurrentMode returns the current mode.
func (p *Provider) CurrentMode() Mode {
	return p.Current().Mode
}

// CurrentIdentity returns the authenticated identity, or nil.
func (p *Provider) CurrentIdentity() *Identity {
	return p.Current().Identity
}

// Subscribe registers fn for future transitions and returns a function
// that removes it.
func (p *Provider) Subscribe(fn Listener) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	id := p.nextID
	p.listeners = append(p.listeners, subscription{id: id, fn: fn})
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		for i, s := range p.listeners {
			if s.id == id {
				p.listeners = append(p.listeners[:i], p.listeners[i+1:]...)
				return
			}
		}
	}
}

// Restore resumes a session from the persisted token. A missing, unreadable
// or expired token leaves the session unset and is not an error.
func (p *Provider) Restore(ctx context.Context) (State, error) {
	token, err := p.tokens.Load()
	if err != nil || token == "" {
		return p.Current(), nil
	}

	id, err := DecodeToken(token)
	if err != nil || id.Expired(p.now()) {
		if err != nil {
			p.log.Warn("discarding unreadable session token", "err", err)
		}
		p.clearToken()
		return p.Current(), nil
	}

	return p.transition(ctx, ModeAuthenticated, &id)
}

// Login authenticates with email and password.
func (p *Provider) Login(ctx context.Context, email, password string) (State, error) {
	token, err := p.auth.SignIn(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return p.Current(), fmt.Errorf("signing in: %w", err)
	}
	return p.adopt(ctx, token)
}

// SignUp registers a new account and starts a session for it.
func (p *Provider) SignUp(ctx context.Context, email, password string) (State, error) {
	token, err := p.auth.SignUp(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return p.Current(), fmt.Errorf("signing up: %w", err)
	}
	return p.adopt(ctx, token)
}

// SkipAuth continues without an account.
func (p *Provider) SkipAuth(ctx context.Context) (State, error) {
	return p.transition(ctx, ModeGuest, nil)
}

// Logout ends the session and forgets the persisted token.
func (p *Provider) Logout(ctx context.Context) (State, error) {
	p.clearToken()
	return p.transition(ctx, ModeUnset, nil)
}

func (p *Provider) adopt(ctx context.Context, token string) (State, error) {
	id, err := DecodeToken(token)
	if err != nil {
		return p.Current(), fmt.Errorf("reading access token: %w", err)
	}
	if err := p.tokens.Save(token); err != nil {
		p.log.Warn("session token not persisted", "err", err)
	}
	return p.transition(ctx, ModeAuthenticated, &id)
}

func (p *Provider) clearToken() {
	if err := p.tokens.Clear(); err != nil {
		p.log.Warn("clearing session token", "err", err)
	}
}

// transition installs the new state and calls every listener in
// registration order. All listeners run; the first error is returned.
func (p *Provider) transition(ctx context.Context, mode Mode, id *Identity) (State, error) {
	p.mu.Lock()
	p.state = State{Mode: mode, Identity: id, Epoch: p.state.Epoch + 1}
	state := p.state
	listeners := make([]Listener, len(p.listeners))
	for i, s := range p.listeners {
		listeners[i] = s.fn
	}
	p.mu.Unlock()

	var first error
	for _, fn := range listeners {
		if err := fn(ctx, state); err != nil && first == nil {
			first = err
		}
	}
	return state, first
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// DecodeToken reads the identity claims of an access token. The signature
// is not checked here; the service verifies it on every request.
func DecodeToken(token string) (Identity, error) {
	claims := &tokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Identity{}, fmt.Errorf("parsing token: %w", err)
	}
	if claims.Subject == "" {
		return Identity{}, errors.New("token has no subject")
	}

	id := Identity{
		UserID:      claims.Subject,
		Email:       claims.Email,
		AccessToken: token,
	}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id, nil
}
