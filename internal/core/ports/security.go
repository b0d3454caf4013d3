package ports

import (
	"context"
	"time"

	"github.com/proyectoveris/clinic-api/internal/core/domain"
)

// PasswordHasher produces and checks salted one-way password hashes.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	// Verify fails closed: a malformed hash yields false.
	Verify(plaintext, hash string) bool
}

// TokenIssuer signs session claims for an authenticated user.
type TokenIssuer interface {
	Issue(identity domain.Identity) (string, error)
}

// RateDecision is the outcome of a single rate limiter check.
type RateDecision struct {
	Allowed   bool
	Count     int
	Remaining int
	ResetAt   time.Time
}

// RateLimiter counts attempts per key inside a fixed window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (RateDecision, error)
}
