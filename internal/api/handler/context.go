package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/proyectoveris/clinic-api/internal/api/middleware"
	"github.com/proyectoveris/clinic-api/internal/core/domain"
)

// currentIdentity returns the caller attached by the Auth middleware. Its
// absence means the route was registered without Auth, which is reported as
// a missing token rather than a server error.
func currentIdentity(c echo.Context) (domain.Identity, error) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return domain.Identity{}, domain.ErrMissingToken
	}
	return id, nil
}

// optionalIdentity returns the caller when the request carried a token.
func optionalIdentity(c echo.Context) *domain.Identity {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return nil
	}
	return &id
}
