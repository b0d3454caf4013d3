package domain

import (
	"errors"
	"fmt"
)

// Validation.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidRole  = errors.New("invalid role")
	ErrMissingField = errors.New("missing required field")
)

// Duplicate resources.
var (
	ErrLoginTaken      = errors.New("login name already taken")
	ErrNationalIDTaken = errors.New("national id already registered")
	ErrSpecialtyExists = errors.New("specialty already exists")
)

// Authentication.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("unauthorized, invalid or expired token")
)

// Authorization.
var (
	ErrMissingToken     = errors.New("forbidden, token missing")
	ErrInsufficientRole = errors.New("forbidden, insufficient role")
	ErrForbidden        = errors.New("access forbidden")
)

// Not found.
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrSpecialtyNotFound = errors.New("specialty not found")
)

// ErrProtectedAccount is returned for destructive operations against the
// bootstrap administrator.
var ErrProtectedAccount = errors.New("the bootstrap administrator account is protected")

// ErrRateLimited is returned when a caller exceeds the login attempt budget.
var ErrRateLimited = errors.New("too many attempts, try again later")

// MissingFieldError names the required field that was absent.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

func (e *MissingFieldError) Unwrap() error { return ErrMissingField }
