// Package session carries the signed-in user's token and the router through
// every workflow call.
package session

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/five82/shelf/internal/apperr"
)

// Session is the explicit context object passed to workflows in place of
// process-wide token and navigation state.
type Session struct {
	tokens TokenStore
	router Router
	now    func() time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithClock overrides the time source used for token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// New builds a session. A nil router discards navigation.
func New(tokens TokenStore, router Router, opts ...Option) *Session {
	if router == nil {
		router = Discard{}
	}
	if tokens == nil {
		tokens = NewMemoryStore("")
	}
	s := &Session{tokens: tokens, router: router, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Token returns the bearer token for the current user. It fails with an
// auth error when no token is stored or a JWT token has expired. Tokens that
// are not JWTs are passed through unchecked.
func (s *Session) Token() (string, error) {
	tok, err := s.tokens.Load()
	if err != nil {
		return "", apperr.Auth("load token", err)
	}
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return "", apperr.Auth("not signed in", nil)
	}
	if exp, ok := Expiry(tok); ok && !s.now().Before(exp) {
		return "", apperr.Auth("session expired", nil)
	}
	return tok, nil
}

// SignedIn reports whether Token would succeed.
func (s *Session) SignedIn() bool {
	_, err := s.Token()
	return err == nil
}

// SignIn stores token for later calls.
func (s *Session) SignIn(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return apperr.Auth("empty token", nil)
	}
	return s.tokens.Save(token)
}

// SignOut forgets the stored token.
func (s *Session) SignOut() error {
	return s.tokens.Clear()
}

func (s *Session) GoTo(r Route) { s.router.GoTo(r) }
func (s *Session) GoBack()      { s.router.GoBack() }

// Expiry extracts the exp claim of a JWT without verifying its signature.
// ok is false for opaque tokens and JWTs without exp.
func Expiry(token string) (time.Time, bool) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
