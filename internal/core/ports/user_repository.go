package ports

import (
	"context"

	"github.com/proyectoveris/clinic-api/internal/core/domain"
)

// UserRepository is the credential store. Implementations enforce login name
// uniqueness and create/delete a user together with its role-profile.
type UserRepository interface {
	// CreateWithProfile persists the profile and the user referencing it as
	// one unit. Returns domain.ErrLoginTaken on a login name collision.
	CreateWithProfile(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByLoginName(ctx context.Context, loginName string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]*domain.User, error)
	// Delete removes the user and its role-profile.
	Delete(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateAvatar(ctx context.Context, id, avatarPath string) error
	UpdateLoginName(ctx context.Context, id, loginName string) error
	Ping(ctx context.Context) error
}

// UserFilter narrows List results. A zero value matches every user.
type UserFilter struct {
	Role domain.Role
}

// SpecialtyRepository persists the specialty catalogue doctors reference.
type SpecialtyRepository interface {
	List(ctx context.Context) ([]domain.Specialty, error)
	Create(ctx context.Context, name string) (*domain.Specialty, error)
}
