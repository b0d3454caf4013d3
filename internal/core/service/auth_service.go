package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/proyectoveris/clinic-api/internal/core/domain"
	"github.com/proyectoveris/clinic-api/internal/core/ports"
	"github.com/proyectoveris/clinic-api/internal/pkg/password"
)

// AuthService implements registration, login and session verification.
type AuthService struct {
	repo             ports.UserRepository
	hasher           ports.PasswordHasher
	tokens           ports.TokenIssuer
	allowAdminSignup bool
	log              zerolog.Logger
	now              func() time.Time

	// dummyHash is verified against when the login name does not exist so
	// both failure paths cost one hash comparison.
	dummyOnce sync.Once
	dummyHash string
}

// AuthOption customises an AuthService.
type AuthOption func(*AuthService)

// WithAdminSignup lets anonymous callers register ADMIN accounts.
func WithAdminSignup(allow bool) AuthOption {
	return func(s *AuthService) { s.allowAdminSignup = allow }
}

func NewAuthService(repo ports.UserRepository, hasher ports.PasswordHasher, tokens ports.TokenIssuer, log zerolog.Logger, opts ...AuthOption) *AuthService {
	s := &AuthService{
		repo:   repo,
		hasher: hasher,
		tokens: tokens,
		log:    log,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	loginName := strings.TrimSpace(in.LoginName)
	if loginName == "" {
		return nil, &domain.MissingFieldError{Field: "loginName"}
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	role, err := domain.ParseRole(in.Role)
	if err != nil {
		return nil, err
	}
	if role == domain.RoleAdmin && !s.allowAdminSignup {
		if in.Actor == nil || in.Actor.Role != domain.RoleAdmin {
			return nil, domain.ErrInsufficientRole
		}
	}

	profile, err := domain.NewProfile(role, in.ProfileFields)
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := &domain.User{
		LoginName:    loginName,
		PasswordHash: hash,
		Role:         role,
		Profile:      profile,
		AvatarPath:   domain.NoAvatar,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}

	created, err := s.repo.CreateWithProfile(ctx, user)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("user_id", created.ID).
		Str("login_name", created.LoginName).
		Str("role", string(created.Role)).
		Msg("user registered")
	return created, nil
}

// Login verifies credentials and issues a session token. Unknown login
// names and wrong passwords both return domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, loginName, password string) (string, *domain.User, error) {
	loginName = strings.TrimSpace(loginName)
	if loginName == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByLoginName(ctx, loginName)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, err
		}
		s.hasher.Verify(password, s.placeholderHash())
		s.log.Debug().Msg("login rejected: unknown login name")
		return "", nil, domain.ErrInvalidCredentials
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.log.Debug().Str("user_id", user.ID).Msg("login rejected: password mismatch")
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(domain.Identity{
		UserID:    user.ID,
		LoginName: user.LoginName,
		Role:      user.Role,
	})
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("user logged in")
	return token, user, nil
}

// VerifySession reloads the account behind an already validated token. A
// deleted account matches both domain.ErrInvalidToken and
// domain.ErrUserNotFound; it is an authentication failure, not a 404.
func (s *AuthService) VerifySession(ctx context.Context, identity domain.Identity) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidToken, err)
		}
		return nil, err
	}
	return user, nil
}

// validatePassword rejects empty passwords and ones the hasher would
// truncate.
func validatePassword(p string) error {
	if p == "" {
		return &domain.MissingFieldError{Field: "password"}
	}
	if len(p) > password.MaxLength {
		return fmt.Errorf("%w: password exceeds %d bytes", domain.ErrInvalidInput, password.MaxLength)
	}
	return nil
}

func (s *AuthService) placeholderHash() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("clinic-api-placeholder")
		if err != nil {
			s.log.Warn().Err(err).Msg("failed to build placeholder hash")
			return
		}
		s.dummyHash = h
	})
	return s.dummyHash
}
