package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/proyectoveris/clinic-api/internal/core/ports"
)

const (
	rateLimitPrefix  = "clinic:ratelimit:"
	rateLimitTimeout = 250 * time.Millisecond
)

// RateLimiter counts attempts per key in fixed windows shared by every
// replica. Key format: clinic:ratelimit:<key>
type RateLimiter struct {
	client *redis.Client
	now    func() time.Time
}

// NewRateLimiter creates a RateLimiter wrapping the given Redis client.
func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client, now: time.Now}
}

var _ ports.RateLimiter = (*RateLimiter)(nil)

// Allow records one attempt for key and reports whether it fits in limit.
// The window starts at the first attempt and expires with the key. INCR and
// TTL run in one MULTI block; a counter found without an expiry gets one, so
// a lost EXPIRE never locks the key out for good.
func (l *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (ports.RateDecision, error) {
	if limit <= 0 {
		return ports.RateDecision{Allowed: true}, nil
	}
	if window <= 0 {
		window = time.Minute
	}

	ctx, cancel := context.WithTimeout(ctx, rateLimitTimeout)
	defer cancel()

	redisKey := l.key(key)
	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		ttl = pipe.TTL(ctx, redisKey)
		return nil
	})
	if err != nil {
		return ports.RateDecision{}, fmt.Errorf("rate limit incr: %w", err)
	}

	count := int(incr.Val())
	remainingTTL := ttl.Val()
	if remainingTTL < 0 {
		if err := l.client.Expire(ctx, redisKey, window).Err(); err != nil {
			return ports.RateDecision{}, fmt.Errorf("rate limit expire: %w", err)
		}
		remainingTTL = window
	}

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return ports.RateDecision{
		Allowed:   count <= limit,
		Count:     count,
		Remaining: remaining,
		ResetAt:   l.now().Add(remainingTTL),
	}, nil
}

func (l *RateLimiter) key(key string) string {
	return rateLimitPrefix + key
}
