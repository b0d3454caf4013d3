package ports

import (
	"context"

	"github.com/proyectoveris/clinic-api/internal/core/domain"
)

// RegisterInput carries everything needed to create an account.
// Actor is the authenticated caller, nil for anonymous registration.
type RegisterInput struct {
	LoginName     string
	Password      string
	Role          string
	ProfileFields domain.ProfileFields
	Actor         *domain.Identity
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, loginName, password string) (string, *domain.User, error)
	VerifySession(ctx context.Context, identity domain.Identity) (*domain.User, error)
}

type UserService interface {
	List(ctx context.Context, actor domain.Identity, filter UserFilter) ([]*domain.User, error)
	Get(ctx context.Context, actor domain.Identity, id string) (*domain.User, error)
	Delete(ctx context.Context, actor domain.Identity, id string) error
	ChangePassword(ctx context.Context, actor domain.Identity, id, currentPassword, newPassword string) error
	Rename(ctx context.Context, actor domain.Identity, id, newLoginName string) (*domain.User, error)
	UpdateAvatar(ctx context.Context, actor domain.Identity, avatarPath string) (*domain.User, error)
}

type SpecialtyService interface {
	List(ctx context.Context) ([]domain.Specialty, error)
	Create(ctx context.Context, name string) (*domain.Specialty, error)
}
