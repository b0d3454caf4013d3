package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/proyectoveris/clinic-api/internal/api/metrics"
	"github.com/proyectoveris/clinic-api/internal/core/domain"
	"github.com/proyectoveris/clinic-api/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	tokenTTL    time.Duration
}

// NewAuthHandler builds the auth endpoints. tokenTTL is only used to report
// expiresAt in the login response; zero omits it.
func NewAuthHandler(authService ports.AuthService, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{authService: authService, tokenTTL: tokenTTL}
}

// Register creates a new user account together with its role profile.
//
// @Summary      Register a new user
// @Description  Registering an ADMIN requires an ADMIN bearer token unless admin signup is enabled.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  registerResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		LoginName:     req.LoginName,
		Password:      req.Password,
		Role:          req.Role,
		ProfileFields: toProfileFields(req.ProfileFields),
		Actor:         optionalIdentity(c),
	})
	if err != nil {
		return err
	}

	metrics.AuthRegistrationsTotal.WithLabelValues(string(user.Role)).Inc()
	return c.JSON(http.StatusCreated, registerResponse{
		LoginName: user.LoginName,
		Role:      string(user.Role),
	})
}

// Login authenticates a user and returns a signed session token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	token, user, err := h.authService.Login(c.Request().Context(), req.LoginName, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.AuthLoginsTotal.WithLabelValues("failure").Inc()
		}
		return err
	}
	metrics.AuthLoginsTotal.WithLabelValues("success").Inc()

	resp := loginResponse{Token: token, Profile: toProfileResponse(user)}
	if h.tokenTTL > 0 {
		exp := time.Now().Add(h.tokenTTL).UTC().Truncate(time.Second)
		resp.ExpiresAt = &exp
	}
	return c.JSON(http.StatusOK, resp)
}

// Verify returns the current profile of the caller's session.
//
// @Summary      Verify session
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  sessionResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /api/auth/verify [get]
func (h *AuthHandler) Verify(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return err
	}

	user, err := h.authService.VerifySession(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessionResponse{Profile: toProfileResponse(user)})
}

// Me returns the caller's own profile. It backs the role-specific
// /doctors/me and /patients/me routes.
//
// @Summary      Own profile
// @Tags         profiles
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  sessionResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /api/doctors/me [get]
// @Router       /api/patients/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	return h.Verify(c)
}
