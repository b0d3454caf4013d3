package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/proyectoveris/clinic-api/internal/api/handler"
	"github.com/proyectoveris/clinic-api/internal/api/metrics"
	"github.com/proyectoveris/clinic-api/internal/api/middleware"
	"github.com/proyectoveris/clinic-api/internal/core/domain"
	"github.com/proyectoveris/clinic-api/internal/core/ports"
	"github.com/proyectoveris/clinic-api/internal/infrastructure/http/handlers"
)

const maxLoginBodyPeek = 4 << 10

// Dependencies is everything the router needs to serve the API.
type Dependencies struct {
	Log         zerolog.Logger
	Tokens      middleware.TokenVerifier
	TokenTTL    time.Duration
	Auth        ports.AuthService
	Users       ports.UserService
	Specialties ports.SpecialtyService

	// Limiter guards POST /api/auth/login; nil disables rate limiting.
	Limiter     ports.RateLimiter
	LoginLimit  int
	LoginWindow time.Duration

	// Readiness lists the dependencies checked by /health/ready.
	Readiness map[string]handlers.Pinger
	// Swagger mounts the API docs under /swagger/.
	Swagger bool
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(metrics.Middleware())

	// --- Health checks (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	readinessHandler := handlers.NewReadinessHandler(deps.Readiness)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", metrics.Handler())
	if deps.Swagger {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	// --- API ---
	h := routeHandlers{
		auth:        handler.NewAuthHandler(deps.Auth, deps.TokenTTL),
		users:       handler.NewUserHandler(deps.Users),
		specialties: handler.NewSpecialtyHandler(deps.Specialties),
	}
	loginLimit := countRateLimited(
		middleware.RateLimit(deps.Limiter, deps.LoginLimit, deps.LoginWindow, loginRateKey, deps.Log),
	)

	authenticate := middleware.Auth(deps.Tokens, deps.Log)
	optional := middleware.OptionalAuth(deps.Tokens, deps.Log)
	for _, r := range apiRoutes(h, loginLimit) {
		var mws []echo.MiddlewareFunc
		switch r.access {
		case accessProtected:
			mws = append(mws, authenticate, middleware.RBAC(r.roles...))
		case accessOptional:
			mws = append(mws, optional)
		}
		mws = append(mws, r.extra...)
		e.Add(r.method, r.path, r.handler, mws...)
	}

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error()
			}
			ev.Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("path", v.URIPath).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}

// loginRateKey keys login attempts by client IP and the login name being
// tried. The body is restored for the handler.
func loginRateKey(c echo.Context) string {
	req := c.Request()
	key := "login:" + c.RealIP()
	if req.Body == nil {
		return key
	}

	body, err := io.ReadAll(io.LimitReader(req.Body, maxLoginBodyPeek))
	if err != nil {
		return key
	}
	req.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), req.Body))

	var peek struct {
		LoginName string `json:"loginName"`
	}
	if json.Unmarshal(body, &peek) == nil {
		if name := strings.TrimSpace(peek.LoginName); name != "" {
			key += ":" + name
		}
	}
	return key
}

func countRateLimited(mw echo.MiddlewareFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		limited := mw(next)
		return func(c echo.Context) error {
			err := limited(c)
			if errors.Is(err, domain.ErrRateLimited) {
				metrics.AuthLoginsTotal.WithLabelValues("rate_limited").Inc()
			}
			return err
		}
	}
}
