// Package token issues and verifies signed session tokens (HS256 JWT).
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/proyectoveris/clinic-api/internal/core/domain"
)

const DefaultIssuer = "clinic-api"

// Claims is the session claim set carried by a token.
type Claims struct {
	UserID    string      `json:"uid"`
	LoginName string      `json:"login"`
	Role      domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Identity returns the caller identity encoded in the claims.
func (c *Claims) Identity() domain.Identity {
	return domain.Identity{UserID: c.UserID, LoginName: c.LoginName, Role: c.Role}
}

// Manager signs and verifies tokens with a process-wide secret.
type Manager struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

type Option func(*Manager)

// WithIssuer sets the iss claim written and required on verification.
func WithIssuer(issuer string) Option {
	return func(m *Manager) { m.issuer = issuer }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(secret string, ttl time.Duration, opts ...Option) (*Manager, error) {
	if secret == "" {
		return nil, errors.New("token: secret is empty")
	}
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	m := &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: DefaultIssuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// TTL is the lifetime of issued tokens.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Issue signs a claim set for identity expiring after the configured TTL.
func (m *Manager) Issue(identity domain.Identity) (string, error) {
	now := m.now()
	claims := Claims{
		UserID:    identity.UserID,
		LoginName: identity.LoginName,
		Role:      identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   identity.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Verify checks signature, algorithm, issuer and expiry. Segments must be
// canonical base64url, so no bit of the token can change without rejection.
// Every failure
// matches domain.ErrInvalidToken under errors.Is; the wrapped cause is meant
// for server-side logs only.
func (m *Manager) Verify(raw string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(m.issuer),
		jwt.WithTimeFunc(m.now),
		jwt.WithStrictDecoding(),
	)

	claims := &Claims{}
	tkn, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	if !tkn.Valid || claims.UserID == "" {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, jwt.ErrTokenInvalidClaims)
	}
	if _, err := domain.ParseRole(string(claims.Role)); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	return claims, nil
}
