package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/proyectoveris/clinic-api/internal/api/metrics"
	"github.com/proyectoveris/clinic-api/internal/core/domain"
)

// RBAC enforces role-based access control. It must run after Auth.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok {
				metrics.AccessDeniedTotal.WithLabelValues("missing_token").Inc()
				return domain.ErrMissingToken
			}
			if _, ok := allowed[id.Role]; !ok {
				metrics.AccessDeniedTotal.WithLabelValues("insufficient_role").Inc()
				return domain.ErrInsufficientRole
			}
			return next(c)
		}
	}
}
