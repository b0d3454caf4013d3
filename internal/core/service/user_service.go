package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/proyectoveris/clinic-api/internal/core/domain"
	"github.com/proyectoveris/clinic-api/internal/core/ports"
)

// UserService manages existing accounts on behalf of an authenticated actor.
type UserService struct {
	repo   ports.UserRepository
	hasher ports.PasswordHasher
	log    zerolog.Logger
}

func NewUserService(repo ports.UserRepository, hasher ports.PasswordHasher, log zerolog.Logger) *UserService {
	return &UserService{repo: repo, hasher: hasher, log: log}
}

func (s *UserService) List(ctx context.Context, actor domain.Identity, filter ports.UserFilter) ([]*domain.User, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, domain.ErrInsufficientRole
	}
	if filter.Role != "" {
		if _, err := domain.ParseRole(string(filter.Role)); err != nil {
			return nil, err
		}
	}
	return s.repo.List(ctx, filter)
}

// Get returns an account. Non-admins may only read their own.
func (s *UserService) Get(ctx context.Context, actor domain.Identity, id string) (*domain.User, error) {
	if actor.Role != domain.RoleAdmin && actor.UserID != id {
		return nil, domain.ErrForbidden
	}
	return s.repo.FindByID(ctx, id)
}

// Delete removes an account and its profile. The bootstrap administrator is
// rejected before any role rule is considered.
func (s *UserService) Delete(ctx context.Context, actor domain.Identity, id string) error {
	target, err := s.loadTarget(ctx, actor, id)
	if err != nil {
		return err
	}
	if target.IsBootstrap() {
		s.log.Warn().
			Str("actor_id", actor.UserID).
			Str("actor_role", string(actor.Role)).
			Msg("attempt to delete the bootstrap administrator")
		return domain.ErrProtectedAccount
	}
	if actor.Role != domain.RoleAdmin && actor.UserID != target.ID {
		return domain.ErrForbidden
	}

	if err := s.repo.Delete(ctx, target.ID); err != nil {
		return err
	}
	s.log.Info().Str("user_id", target.ID).Str("actor_id", actor.UserID).Msg("user deleted")
	return nil
}

// ChangePassword sets a new password. Users changing their own password must
// present the current one; administrators may reset other accounts except
// the bootstrap administrator.
func (s *UserService) ChangePassword(ctx context.Context, actor domain.Identity, id, currentPassword, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	target, err := s.loadTarget(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := authorizeMutation(actor, target); err != nil {
		return err
	}
	if actor.UserID == target.ID && !s.hasher.Verify(currentPassword, target.PasswordHash) {
		return domain.ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, target.ID, hash); err != nil {
		return err
	}
	s.log.Info().Str("user_id", target.ID).Str("actor_id", actor.UserID).Msg("password changed")
	return nil
}

// Rename changes the login name of an account.
func (s *UserService) Rename(ctx context.Context, actor domain.Identity, id, newLoginName string) (*domain.User, error) {
	newLoginName = strings.TrimSpace(newLoginName)
	if newLoginName == "" {
		return nil, &domain.MissingFieldError{Field: "loginName"}
	}

	target, err := s.loadTarget(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeMutation(actor, target); err != nil {
		return nil, err
	}
	if target.IsBootstrap() {
		// the distinguished name must always resolve to the bootstrap account
		return nil, domain.ErrProtectedAccount
	}
	if newLoginName == domain.BootstrapLoginName {
		return nil, domain.ErrLoginTaken
	}
	if newLoginName == target.LoginName {
		return target, nil
	}

	if err := s.repo.UpdateLoginName(ctx, target.ID, newLoginName); err != nil {
		return nil, err
	}
	s.log.Info().
		Str("user_id", target.ID).
		Str("from", target.LoginName).
		Str("to", newLoginName).
		Msg("login name changed")
	return s.repo.FindByID(ctx, target.ID)
}

// UpdateAvatar sets the actor's own avatar path. An empty path restores the
// "no photo" placeholder.
func (s *UserService) UpdateAvatar(ctx context.Context, actor domain.Identity, avatarPath string) (*domain.User, error) {
	avatarPath = strings.TrimSpace(avatarPath)
	if avatarPath == "" {
		avatarPath = domain.NoAvatar
	}
	if strings.Contains(avatarPath, "..") {
		return nil, fmt.Errorf("%w: avatar path must not traverse directories", domain.ErrInvalidInput)
	}
	if err := s.repo.UpdateAvatar(ctx, actor.UserID, avatarPath); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, actor.UserID)
}

// loadTarget fetches the account an actor wants to change. A missing account
// reads as ErrForbidden to anyone who could not act on it anyway, so only
// administrators learn which ids exist.
func (s *UserService) loadTarget(ctx context.Context, actor domain.Identity, id string) (*domain.User, error) {
	target, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) && actor.Role != domain.RoleAdmin && actor.UserID != id {
			return nil, domain.ErrForbidden
		}
		return nil, err
	}
	return target, nil
}

// authorizeMutation applies the shared rule for destructive account changes:
// the bootstrap administrator only accepts changes from itself, every other
// account from itself or an administrator.
func authorizeMutation(actor domain.Identity, target *domain.User) error {
	if actor.UserID == target.ID {
		return nil
	}
	if target.IsBootstrap() {
		return domain.ErrProtectedAccount
	}
	if actor.Role != domain.RoleAdmin {
		return domain.ErrForbidden
	}
	return nil
}
