// Package session carries the explicit authentication context handed to
// backend clients at construction time. There is no ambient current user.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is the caller identity used to talk to the backend.
type Session struct {
	Token     string
	Subject   string
	ExpiresAt time.Time
}

// ErrMissingToken is returned when no bearer token is configured.
var ErrMissingToken = errors.New("session: missing token")

// Parse reads subject and expiry from a backend-issued JWT. The signature is
// not verified: the backend is the verifier, the client only needs the claims
// to fail fast on expiry.
func Parse(token string) (Session, error) {
	if token == "" {
		return Session{}, ErrMissingToken
	}
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Session{}, fmt.Errorf("session: parse token: %w", err)
	}
	s := Session{Token: token, Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

// Opaque wraps a non-JWT token. It never expires client side.
func Opaque(token string) Session {
	return Session{Token: token}
}

// Expired reports whether the session has a known expiry at or before now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// IsZero reports whether no token is present.
func (s Session) IsZero() bool {
	return s.Token == ""
}

// Authorization is the header value for bearer authentication.
func (s Session) Authorization() string {
	if s.Token == "" {
		return ""
	}
	return "Bearer " + s.Token
}
