package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/proyectoveris/clinic-api/internal/core/domain"
	"github.com/proyectoveris/clinic-api/internal/core/ports"
)

// DefaultBootstrapPassword is the documented initial password of the
// bootstrap administrator when none is configured.
const DefaultBootstrapPassword = "admin"

// BootstrapAdmin describes the administrator created on first run.
type BootstrapAdmin struct {
	Password string
	Name     string
	Email    string
}

// EnsureBootstrapAdmin creates the "admin" account if it does not exist.
// Concurrent instances may race; the store's uniqueness constraint decides
// and a duplicate is treated as already present.
func EnsureBootstrapAdmin(ctx context.Context, repo ports.UserRepository, hasher ports.PasswordHasher, admin BootstrapAdmin, log zerolog.Logger) error {
	_, err := repo.FindByLoginName(ctx, domain.BootstrapLoginName)
	if err == nil {
		log.Debug().Msg("bootstrap administrator present")
		return nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return fmt.Errorf("lookup bootstrap administrator: %w", err)
	}

	if admin.Password == "" {
		admin.Password = DefaultBootstrapPassword
	}
	hash, err := hasher.Hash(admin.Password)
	if err != nil {
		return fmt.Errorf("hash bootstrap password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		LoginName:    domain.BootstrapLoginName,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		Profile:      &domain.AdminProfile{Name: admin.Name, Email: admin.Email},
		AvatarPath:   domain.NoAvatar,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := user.Validate(); err != nil {
		return fmt.Errorf("bootstrap administrator: %w", err)
	}

	created, err := repo.CreateWithProfile(ctx, user)
	if err != nil {
		if errors.Is(err, domain.ErrLoginTaken) {
			log.Info().Msg("bootstrap administrator created by another instance")
			return nil
		}
		return fmt.Errorf("create bootstrap administrator: %w", err)
	}

	if admin.Password == DefaultBootstrapPassword {
		log.Warn().Str("user_id", created.ID).Msg("bootstrap administrator created with the default password, change it")
		return nil
	}
	log.Info().Str("user_id", created.ID).Msg("bootstrap administrator created")
	return nil
}
