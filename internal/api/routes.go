package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/proyectoveris/clinic-api/internal/api/handler"
	"github.com/proyectoveris/clinic-api/internal/core/domain"
)

// access describes how a route is guarded.
type access int

const (
	// accessProtected requires a valid token and a role from the allow-list.
	accessProtected access = iota
	// accessPublic skips authentication entirely.
	accessPublic
	// accessOptional attaches an identity when a token is sent.
	accessOptional
)

var anyRole = []domain.Role{domain.RoleAdmin, domain.RoleDoctor, domain.RolePatient}

// route is one entry of the static API table. Allow-lists are fixed here at
// startup; nothing computes them per request.
type route struct {
	method  string
	path    string
	access  access
	roles   []domain.Role
	handler echo.HandlerFunc
	extra   []echo.MiddlewareFunc
}

type routeHandlers struct {
	auth        *handler.AuthHandler
	users       *handler.UserHandler
	specialties *handler.SpecialtyHandler
}

func apiRoutes(h routeHandlers, loginLimit echo.MiddlewareFunc) []route {
	return []route{
		{method: http.MethodPost, path: "/api/auth/register", access: accessOptional, handler: h.auth.Register},
		{method: http.MethodPost, path: "/api/auth/login", access: accessPublic, handler: h.auth.Login, extra: []echo.MiddlewareFunc{loginLimit}},
		{method: http.MethodGet, path: "/api/auth/verify", roles: anyRole, handler: h.auth.Verify},

		{method: http.MethodGet, path: "/api/users", roles: []domain.Role{domain.RoleAdmin}, handler: h.users.List},
		{method: http.MethodPut, path: "/api/users/me/avatar", roles: anyRole, handler: h.users.UpdateAvatar},
		{method: http.MethodGet, path: "/api/users/:id", roles: anyRole, handler: h.users.Get},
		{method: http.MethodDelete, path: "/api/users/:id", roles: anyRole, handler: h.users.Delete},
		{method: http.MethodPut, path: "/api/users/:id/password", roles: anyRole, handler: h.users.ChangePassword},
		{method: http.MethodPut, path: "/api/users/:id/login-name", roles: anyRole, handler: h.users.Rename},

		{method: http.MethodGet, path: "/api/specialties", roles: anyRole, handler: h.specialties.List},
		{method: http.MethodPost, path: "/api/specialties", roles: []domain.Role{domain.RoleAdmin}, handler: h.specialties.Create},

		{method: http.MethodGet, path: "/api/doctors/me", roles: []domain.Role{domain.RoleDoctor}, handler: h.auth.Me},
		{method: http.MethodGet, path: "/api/patients/me", roles: []domain.Role{domain.RolePatient}, handler: h.auth.Me},
	}
}
