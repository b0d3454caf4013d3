package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/proyectoveris/clinic-api/internal/core/domain"
	"github.com/proyectoveris/clinic-api/internal/pkg/token"
)

const testSecret = "middleware-test-secret"

func newManager(t *testing.T) *token.Manager {
	t.Helper()
	m, err := token.NewManager(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func issue(t *testing.T, m *token.Manager, id domain.Identity) string {
	t.Helper()
	signed, err := m.Issue(id)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return signed
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	e := echo.New()
	m := newManager(t)
	want := domain.Identity{UserID: "u-1", LoginName: "doc1", Role: domain.RoleDoctor}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+issue(t, m, want))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Auth(m, zerolog.Nop())(func(c echo.Context) error {
		called = true
		got, ok := IdentityFrom(c)
		if !ok || got != want {
			t.Fatalf("unexpected identity: %+v (ok=%v)", got, ok)
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	m := newManager(t)
	foreign, _ := token.NewManager("some-other-secret", time.Hour)
	valid := issue(t, m, domain.Identity{UserID: "u-1", LoginName: "doc1", Role: domain.RoleDoctor})
	forged := issue(t, foreign, domain.Identity{UserID: "u-1", LoginName: "doc1", Role: domain.RoleAdmin})

	tests := []struct {
		name   string
		header string
		want   error
	}{
		{"missing header", "", domain.ErrMissingToken},
		{"wrong scheme", "Token " + valid, domain.ErrMissingToken},
		{"bearer without token", "Bearer ", domain.ErrMissingToken},
		{"no separator", "Bearer" + valid, domain.ErrMissingToken},
		{"garbage token", "Bearer not.a.jwt", domain.ErrInvalidToken},
		{"foreign signature", "Bearer " + forged, domain.ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			c := e.NewContext(req, httptest.NewRecorder())

			handler := Auth(m, zerolog.Nop())(func(c echo.Context) error {
				t.Fatalf("should not reach next")
				return nil
			})

			if err := handler(c); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestAuthMiddleware_LowercaseScheme(t *testing.T) {
	e := echo.New()
	m := newManager(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer "+issue(t, m, domain.Identity{UserID: "u-1", LoginName: "p", Role: domain.RolePatient}))
	c := e.NewContext(req, httptest.NewRecorder())

	handler := Auth(m, zerolog.Nop())(func(c echo.Context) error { return nil })
	if err := handler(c); err != nil {
		t.Fatalf("expected lowercase scheme to be accepted, got %v", err)
	}
}

func TestOptionalAuth(t *testing.T) {
	m := newManager(t)

	t.Run("anonymous passes", func(t *testing.T) {
		e := echo.New()
		c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), httptest.NewRecorder())
		handler := OptionalAuth(m, zerolog.Nop())(func(c echo.Context) error {
			if _, ok := IdentityFrom(c); ok {
				t.Fatalf("anonymous request must not carry an identity")
			}
			return nil
		})
		if err := handler(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("token attaches identity", func(t *testing.T) {
		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer "+issue(t, m, domain.Identity{UserID: "a-1", LoginName: "admin", Role: domain.RoleAdmin}))
		c := e.NewContext(req, httptest.NewRecorder())
		handler := OptionalAuth(m, zerolog.Nop())(func(c echo.Context) error {
			if id, ok := IdentityFrom(c); !ok || id.Role != domain.RoleAdmin {
				t.Fatalf("expected admin identity, got %+v", id)
			}
			return nil
		})
		if err := handler(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("invalid token rejected", func(t *testing.T) {
		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer broken")
		c := e.NewContext(req, httptest.NewRecorder())
		handler := OptionalAuth(m, zerolog.Nop())(func(c echo.Context) error {
			t.Fatalf("should not reach next")
			return nil
		})
		if err := handler(c); !errors.Is(err, domain.ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})
}
