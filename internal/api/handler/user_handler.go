package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/proyectoveris/clinic-api/internal/core/domain"
	"github.com/proyectoveris/clinic-api/internal/core/ports"
)

// UserHandler handles HTTP requests for account management.
type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// List returns every account, optionally filtered by role.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        role  query     string  false  "Role filter"  Enums(ADMIN, DOCTOR, PATIENT)
// @Success      200   {object}  listUsersResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /api/users [get]
func (h *UserHandler) List(c echo.Context) error {
	actor, err := currentIdentity(c)
	if err != nil {
		return err
	}

	filter := ports.UserFilter{Role: domain.Role(c.QueryParam("role"))}
	users, err := h.service.List(c.Request().Context(), actor, filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listUsersResponse{Users: toProfileResponses(users)})
}

// Get returns a single account.
//
// @Summary      Get user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  profileResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	actor, err := currentIdentity(c)
	if err != nil {
		return err
	}

	user, err := h.service.Get(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProfileResponse(user))
}

// Delete removes an account and its profile.
//
// @Summary      Delete user
// @Description  The bootstrap administrator can never be deleted.
// @Tags         users
// @Security     BearerAuth
// @Param        id   path  string  true  "User ID"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	actor, err := currentIdentity(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ChangePassword sets a new password.
//
// @Summary      Change password
// @Tags         users
// @Accept       json
// @Security     BearerAuth
// @Param        id    path  string                 true  "User ID"
// @Param        body  body  changePasswordRequest  true  "Passwords"
// @Success      204
// @Failure      400  {object}  errorResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /api/users/{id}/password [put]
func (h *UserHandler) ChangePassword(c echo.Context) error {
	actor, err := currentIdentity(c)
	if err != nil {
		return err
	}
	var req changePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.service.ChangePassword(c.Request().Context(), actor, c.Param("id"), req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Rename changes an account's login name.
//
// @Summary      Rename user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string         true  "User ID"
// @Param        body  body      renameRequest  true  "New login name"
// @Success      200   {object}  profileResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /api/users/{id}/login-name [put]
func (h *UserHandler) Rename(c echo.Context) error {
	actor, err := currentIdentity(c)
	if err != nil {
		return err
	}
	var req renameRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.service.Rename(c.Request().Context(), actor, c.Param("id"), req.LoginName)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProfileResponse(user))
}

// UpdateAvatar sets the caller's avatar path.
//
// @Summary      Update own avatar
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      avatarRequest  true  "Avatar path, empty to reset"
// @Success      200   {object}  profileResponse
// @Failure      400   {object}  errorResponse
// @Router       /api/users/me/avatar [put]
func (h *UserHandler) UpdateAvatar(c echo.Context) error {
	actor, err := currentIdentity(c)
	if err != nil {
		return err
	}
	var req avatarRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.service.UpdateAvatar(c.Request().Context(), actor, req.AvatarPath)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProfileResponse(user))
}
