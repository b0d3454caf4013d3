package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/proyectoveris/clinic-api/internal/api/metrics"
	"github.com/proyectoveris/clinic-api/internal/core/domain"
	"github.com/proyectoveris/clinic-api/internal/pkg/token"
)

const identityKey = "identity"

// TokenVerifier checks a raw bearer token and returns its claims.
type TokenVerifier interface {
	Verify(raw string) (*token.Claims, error)
}

// Auth validates the bearer token and attaches the caller's identity to the
// context. A missing or malformed header is rejected with
// domain.ErrMissingToken, a token failing verification with
// domain.ErrInvalidToken.
func Auth(verifier TokenVerifier, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c)
			if !ok {
				metrics.AccessDeniedTotal.WithLabelValues("missing_token").Inc()
				return domain.ErrMissingToken
			}

			claims, err := verifier.Verify(raw)
			if err != nil {
				metrics.AccessDeniedTotal.WithLabelValues("invalid_token").Inc()
				log.Debug().Err(err).Str("path", c.Path()).Msg("token rejected")
				return domain.ErrInvalidToken
			}

			c.Set(identityKey, claims.Identity())
			return next(c)
		}
	}
}

// OptionalAuth attaches an identity when a bearer token is sent and passes
// anonymous requests through. A token that is sent but invalid is still
// rejected.
func OptionalAuth(verifier TokenVerifier, log zerolog.Logger) echo.MiddlewareFunc {
	required := Auth(verifier, log)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		withAuth := required(next)
		return func(c echo.Context) error {
			if c.Request().Header.Get(echo.HeaderAuthorization) == "" {
				return next(c)
			}
			return withAuth(c)
		}
	}
}

// IdentityFrom returns the identity attached by Auth.
func IdentityFrom(c echo.Context) (domain.Identity, bool) {
	id, ok := c.Get(identityKey).(domain.Identity)
	return id, ok && id.UserID != ""
}

// SetIdentity attaches id to the request context.
func SetIdentity(c echo.Context, id domain.Identity) {
	c.Set(identityKey, id)
}

func bearerToken(c echo.Context) (string, bool) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	raw := strings.TrimSpace(parts[1])
	return raw, raw != ""
}
