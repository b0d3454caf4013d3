package middleware

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/proyectoveris/clinic-api/internal/core/domain"
	"github.com/proyectoveris/clinic-api/internal/core/ports"
)

const rateLimiterSweepInterval = 5 * time.Minute

// KeyFunc derives the rate limiting key for a request. An empty key falls
// back to the client IP.
type KeyFunc func(c echo.Context) string

// RateLimit rejects requests over limit per window with domain.ErrRateLimited.
// Limiter failures are logged and the request is let through.
func RateLimit(limiter ports.RateLimiter, limit int, window time.Duration, keyFn KeyFunc, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if limiter == nil || limit <= 0 {
				return next(c)
			}
			key := ""
			if keyFn != nil {
				key = keyFn(c)
			}
			if key == "" {
				key = "ip:" + c.RealIP()
			}

			d, err := limiter.Allow(c.Request().Context(), key, limit, window)
			if err != nil {
				log.Warn().Err(err).Msg("rate limiter unavailable")
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			if !d.ResetAt.IsZero() {
				h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
			}
			if !d.Allowed {
				retry := int(time.Until(d.ResetAt).Seconds()) + 1
				if retry < 1 {
					retry = 1
				}
				h.Set("Retry-After", strconv.Itoa(retry))
				return domain.ErrRateLimited
			}
			return next(c)
		}
	}
}

// MemoryRateLimiter is a single-process fixed window limiter used when no
// Redis is configured.
type MemoryRateLimiter struct {
	mu      sync.Mutex
	entries map[string]rateState
	now     func() time.Time
	stopCh  chan struct{}
	once    sync.Once
}

type rateState struct {
	count     int
	windowEnd time.Time
}

var _ ports.RateLimiter = (*MemoryRateLimiter)(nil)

// NewMemoryRateLimiter starts a limiter with a background sweep of expired
// windows. Call Close to stop it.
func NewMemoryRateLimiter() *MemoryRateLimiter {
	rl := newMemoryRateLimiter(time.Now)
	go rl.sweepLoop()
	return rl
}

func newMemoryRateLimiter(now func() time.Time) *MemoryRateLimiter {
	return &MemoryRateLimiter{
		entries: make(map[string]rateState),
		now:     now,
		stopCh:  make(chan struct{}),
	}
}

func (rl *MemoryRateLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (ports.RateDecision, error) {
	if limit <= 0 {
		return ports.RateDecision{Allowed: true}, nil
	}
	if window <= 0 {
		window = time.Minute
	}
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	state, ok := rl.entries[key]
	if !ok || now.After(state.windowEnd) {
		state = rateState{windowEnd: now.Add(window)}
	}
	state.count++
	rl.entries[key] = state

	remaining := limit - state.count
	if remaining < 0 {
		remaining = 0
	}
	return ports.RateDecision{
		Allowed:   state.count <= limit,
		Count:     state.count,
		Remaining: remaining,
		ResetAt:   state.windowEnd,
	}, nil
}

func (rl *MemoryRateLimiter) sweepLoop() {
	ticker := time.NewTicker(rateLimiterSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.cleanup(rl.now())
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *MemoryRateLimiter) cleanup(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, state := range rl.entries {
		if now.After(state.windowEnd) {
			delete(rl.entries, key)
		}
	}
}

func (rl *MemoryRateLimiter) Close() {
	rl.once.Do(func() {
		close(rl.stopCh)
	})
}
