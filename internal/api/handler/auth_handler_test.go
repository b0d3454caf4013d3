package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/proyectoveris/clinic-api/internal/api/middleware"
	"github.com/proyectoveris/clinic-api/internal/core/domain"
	"github.com/proyectoveris/clinic-api/internal/core/ports"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
	loginFn    func(ctx context.Context, loginName, password string) (string, *domain.User, error)
	verifyFn   func(ctx context.Context, id domain.Identity) (*domain.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, loginName, password string) (string, *domain.User, error) {
	return s.loginFn(ctx, loginName, password)
}

func (s *stubAuthService) VerifySession(ctx context.Context, id domain.Identity) (*domain.User, error) {
	return s.verifyFn(ctx, id)
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func doctorUser() *domain.User {
	return &domain.User{
		ID:         "u-1",
		LoginName:  "doc1",
		Role:       domain.RoleDoctor,
		AvatarPath: domain.NoAvatar,
		Profile:    &domain.DoctorProfile{ID: "d-1", Name: "Dr. X", SpecialtyID: 3, SpecialtyName: "Cardiología"},
	}
}

func TestAuthHandler_Register_Success(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
			if in.LoginName != "doc1" || in.Role != "DOCTOR" || in.Password != "abc" {
				t.Fatalf("unexpected input: %+v", in)
			}
			if in.ProfileFields.Name != "Dr. X" || in.ProfileFields.SpecialtyID != 3 {
				t.Fatalf("legacy aliases not mapped: %+v", in.ProfileFields)
			}
			if in.Actor != nil {
				t.Fatalf("anonymous request must not carry an actor")
			}
			return doctorUser(), nil
		},
	}
	handler := NewAuthHandler(stub, time.Hour)

	body := `{"loginName":"doc1","password":"abc","role":"DOCTOR","profileFields":{"nombre":"Dr. X","idEspecialidad":3}}`
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/auth/register", body), rec)

	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["loginName"] != "doc1" || resp["role"] != "DOCTOR" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if _, ok := resp["passwordHash"]; ok {
		t.Fatalf("password hash leaked: %+v", resp)
	}
}

func TestAuthHandler_Register_PassesActor(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
			if in.Actor == nil || in.Actor.Role != domain.RoleAdmin {
				t.Fatalf("expected admin actor, got %+v", in.Actor)
			}
			return &domain.User{LoginName: in.LoginName, Role: domain.RoleAdmin, Profile: &domain.AdminProfile{Name: "B"}}, nil
		},
	}

	body := `{"loginName":"boss","password":"pw","role":"ADMIN","profileFields":{"name":"B","email":"b@clinic.local"}}`
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/auth/register", body), rec)
	middleware.SetIdentity(c, domain.Identity{UserID: "a-1", LoginName: "admin", Role: domain.RoleAdmin})

	if err := NewAuthHandler(stub, 0).Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
}

func TestAuthHandler_Register_ServiceError(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
			return nil, domain.ErrLoginTaken
		},
	}

	body := `{"loginName":"doc1","password":"abc","role":"DOCTOR"}`
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/auth/register", body), httptest.NewRecorder())

	if err := NewAuthHandler(stub, 0).Register(c); !errors.Is(err, domain.ErrLoginTaken) {
		t.Fatalf("expected ErrLoginTaken, got %v", err)
	}
}

func TestAuthHandler_Register_InvalidPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "not-json"},
		{"missing login", `{"password":"abc","role":"DOCTOR"}`},
		{"unknown role", `{"loginName":"x","password":"abc","role":"NURSE"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEcho()
			stub := &stubAuthService{
				registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
					t.Fatalf("should not be called")
					return nil, nil
				},
			}
			c := e.NewContext(jsonRequest(http.MethodPost, "/api/auth/register", tt.body), httptest.NewRecorder())

			err := NewAuthHandler(stub, 0).Register(c)
			var he *echo.HTTPError
			if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
				t.Fatalf("expected 400 HTTPError, got %v", err)
			}
		})
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, loginName, password string) (string, *domain.User, error) {
			if loginName != "doc1" || password != "abc" {
				t.Fatalf("unexpected args: %s %s", loginName, password)
			}
			return "token123", doctorUser(), nil
		},
	}
	handler := NewAuthHandler(stub, time.Hour)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/auth/login", `{"loginName":"doc1","password":"abc"}`), rec)

	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["token"] != "token123" {
		t.Fatalf("expected token, got %v", resp["token"])
	}
	if resp["expiresAt"] == nil {
		t.Fatalf("expected expiresAt")
	}
	profile, ok := resp["profile"].(map[string]any)
	if !ok {
		t.Fatalf("expected profile in response")
	}
	if profile["role"] != "DOCTOR" || profile["displayName"] != "Dr. X" || profile["specialtyName"] != "Cardiología" {
		t.Fatalf("unexpected profile payload: %+v", profile)
	}
	if _, ok := profile["nationalId"]; ok {
		t.Fatalf("patient field on doctor profile: %+v", profile)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, loginName, password string) (string, *domain.User, error) {
			return "", nil, domain.ErrInvalidCredentials
		},
	}

	c := e.NewContext(jsonRequest(http.MethodPost, "/api/auth/login", `{"loginName":"doc1","password":"bad"}`), httptest.NewRecorder())

	if err := NewAuthHandler(stub, 0).Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthHandler_Login_InvalidPayload(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, loginName, password string) (string, *domain.User, error) {
			t.Fatalf("should not be called")
			return "", nil, nil
		},
	}

	c := e.NewContext(jsonRequest(http.MethodPost, "/api/auth/login", "{"), httptest.NewRecorder())

	err := NewAuthHandler(stub, 0).Login(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestAuthHandler_Verify(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		verifyFn: func(ctx context.Context, id domain.Identity) (*domain.User, error) {
			if id.UserID != "u-1" {
				t.Fatalf("unexpected identity: %+v", id)
			}
			u := doctorUser()
			u.Profile = &domain.DoctorProfile{ID: "d-1", Name: "Dr. Renamed", SpecialtyID: 3}
			return u, nil
		},
	}

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/auth/verify", nil), rec)
	middleware.SetIdentity(c, domain.Identity{UserID: "u-1", LoginName: "doc1", Role: domain.RoleDoctor})

	if err := NewAuthHandler(stub, 0).Verify(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp sessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Profile.DisplayName != "Dr. Renamed" {
		t.Fatalf("expected fresh profile, got %+v", resp.Profile)
	}
}

func TestAuthHandler_Verify_WithoutIdentity(t *testing.T) {
	e := newEcho()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/auth/verify", nil), httptest.NewRecorder())

	if err := NewAuthHandler(&stubAuthService{}, 0).Verify(c); !errors.Is(err, domain.ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
}
