package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_RecordsHandledStatus(t *testing.T) {
	e := echo.New()
	e.Use(Middleware())
	e.GET("/api/users/:id", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/42", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	expected := `
# HELP clinic_http_requests_total How many HTTP requests processed, partitioned by status code and HTTP method.
# TYPE clinic_http_requests_total counter
clinic_http_requests_total{code="404",host="example.com",method="GET",url="/api/users/:id"} 1
`
	if err := testutil.GatherAndCompare(prometheus.DefaultGatherer, strings.NewReader(expected), "clinic_http_requests_total"); err != nil {
		t.Fatal(err)
	}
}

func TestMiddleware_SharedAcrossInstances(t *testing.T) {
	// a second echo instance must not register the collectors again
	for i := 0; i < 2; i++ {
		e := echo.New()
		e.Use(Middleware())
		e.GET("/health", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("instance %d: expected 200, got %d", i, rec.Code)
		}
	}
}

func TestHandler_ExposesClinicMetrics(t *testing.T) {
	AuthLoginsTotal.WithLabelValues("success").Inc()

	e := echo.New()
	e.GET("/metrics", Handler())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "clinic_auth_logins_total") {
		t.Fatalf("metrics output missing clinic_auth_logins_total: %d", rec.Code)
	}
}

func TestMiddleware_ErrorHandledOnce(t *testing.T) {
	e := echo.New()
	calls := 0
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		calls++
		_ = c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	e.Use(Middleware())
	e.GET("/boom", func(c echo.Context) error { return errors.New("boom") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if calls != 1 {
		t.Fatalf("expected error handler to run once, ran %d times", calls)
	}
}

func TestObservePasswordHash(t *testing.T) {
	ObservePasswordHash("verify", 10*time.Millisecond)
	if n := testutil.CollectAndCount(PasswordHashDuration); n == 0 {
		t.Fatal("expected histogram samples")
	}
}
