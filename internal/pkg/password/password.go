// Package password hashes and verifies account passwords.
//
// New hashes use bcrypt by default or argon2id when configured. Verify
// recognises both formats so the algorithm can be switched without
// invalidating stored credentials.
package password

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"
)

type Algorithm string

const (
	Bcrypt   Algorithm = "bcrypt"
	Argon2id Algorithm = "argon2id"
)

// MaxLength is the longest plaintext accepted. bcrypt ignores input past 72
// bytes, so longer passwords are rejected instead of silently truncated.
const MaxLength = 72

var ErrTooLong = errors.New("password exceeds 72 bytes")

const argon2idPrefix = "$argon2id$"

// Hasher implements ports.PasswordHasher.
type Hasher struct {
	algorithm Algorithm
	cost      int
	params    *argon2id.Params
	observe   func(op string, d time.Duration)
}

type Option func(*Hasher)

// WithAlgorithm selects the algorithm used for new hashes.
func WithAlgorithm(a Algorithm) Option {
	return func(h *Hasher) { h.algorithm = a }
}

// WithBcryptCost overrides bcrypt.DefaultCost. Out of range values are ignored.
func WithBcryptCost(cost int) Option {
	return func(h *Hasher) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			h.cost = cost
		}
	}
}

// WithArgon2idParams overrides argon2id.DefaultParams.
func WithArgon2idParams(p *argon2id.Params) Option {
	return func(h *Hasher) { h.params = p }
}

// WithObserver reports the duration of every hash and verify call.
func WithObserver(fn func(op string, d time.Duration)) Option {
	return func(h *Hasher) { h.observe = fn }
}

func New(opts ...Option) *Hasher {
	h := &Hasher{
		algorithm: Bcrypt,
		cost:      bcrypt.DefaultCost,
		params:    argon2id.DefaultParams,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ParseAlgorithm maps a configuration value to an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(strings.ToLower(strings.TrimSpace(s))) {
	case Bcrypt, "":
		return Bcrypt, nil
	case Argon2id:
		return Argon2id, nil
	}
	return "", fmt.Errorf("password: unknown algorithm %q", s)
}

// Hash returns a salted hash of plaintext in the configured algorithm.
func (h *Hasher) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxLength {
		return "", ErrTooLong
	}
	defer h.track("hash", time.Now())

	if h.algorithm == Argon2id {
		hash, err := argon2id.CreateHash(plaintext, h.params)
		if err != nil {
			return "", fmt.Errorf("argon2id hash: %w", err)
		}
		return hash, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt hash: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether plaintext matches hash. Comparison is constant time
// in both algorithms; any decoding error is a mismatch.
func (h *Hasher) Verify(plaintext, hash string) bool {
	if hash == "" {
		return false
	}
	defer h.track("verify", time.Now())

	if strings.HasPrefix(hash, argon2idPrefix) {
		match, err := argon2id.ComparePasswordAndHash(plaintext, hash)
		return err == nil && match
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

func (h *Hasher) track(op string, start time.Time) {
	if h.observe != nil {
		h.observe(op, time.Since(start))
	}
}
