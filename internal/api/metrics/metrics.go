// Package metrics defines and registers all custom Prometheus metrics for the
// clinic API. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation and exposed by the /metrics route.
package metrics

import (
	"sync"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "clinic"

// ── Authentication metrics ───────────────────────────────────────────────────

// AuthLoginsTotal counts login attempts.
// Label:
//   - result: "success", "failure" or "rate_limited"
var AuthLoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// AuthRegistrationsTotal counts accounts created through registration.
// Label:
//   - role: "ADMIN", "DOCTOR" or "PATIENT"
var AuthRegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "registrations_total",
		Help:      "Total number of registered accounts, by role.",
	},
	[]string{"role"},
)

// AccessDeniedTotal counts requests rejected by the access-control pipeline.
// Label:
//   - reason: "missing_token", "invalid_token" or "insufficient_role"
var AccessDeniedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "access_denied_total",
		Help:      "Total number of requests rejected by access control, by reason.",
	},
	[]string{"reason"},
)

// PasswordHashDuration measures password hashing and verification.
// Label:
//   - op: "hash" or "verify"
var PasswordHashDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "password_hash_duration_seconds",
		Help:      "Duration of password hash and verify operations.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1},
	},
	[]string{"op"},
)

// ObservePasswordHash is a password.Hasher observer feeding PasswordHashDuration.
func ObservePasswordHash(op string, d time.Duration) {
	PasswordHashDuration.WithLabelValues(op).Observe(d.Seconds())
}

// ── HTTP metrics ─────────────────────────────────────────────────────────────

var (
	httpOnce       sync.Once
	httpMiddleware echo.MiddlewareFunc
)

// Middleware records the echoprometheus request metrics
// (clinic_http_requests_total, clinic_http_request_duration_seconds, request
// and response sizes) labelled by code, method, host and route pattern.
// Errors are handed to the echo error handler first so the recorded code is
// the one sent. The collectors are registered once per process.
func Middleware() echo.MiddlewareFunc {
	httpOnce.Do(func() {
		httpMiddleware = echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
			Namespace: namespace,
			Subsystem: "http",
			// unmatched paths share one series
			DoNotUseRequestPathFor404: true,
		})
	})
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return httpMiddleware(func(c echo.Context) error {
			if err := next(c); err != nil {
				c.Error(err)
			}
			return nil
		})
	}
}

// Handler serves the default registry in the Prometheus exposition format.
func Handler() echo.HandlerFunc {
	return echoprometheus.NewHandler()
}
