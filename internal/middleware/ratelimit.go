package middleware

import (
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
	"golang.org/x/time/rate"
)

const limiterSweepInterval = 5 * time.Minute

// RateLimitConfig defines the limit for a specific route or group.
// Max requests may burst at once; tokens refill evenly over Window.
type RateLimitConfig struct {
	Max    int
	Window time.Duration
	KeyFn  func(c fiber.Ctx) string
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per key.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	config  RateLimitConfig
	every   rate.Limit
}

// NewRateLimiter creates a rate limiter with the given config.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		config:  cfg,
		every:   rate.Every(cfg.Window / time.Duration(max(cfg.Max, 1))),
	}
	go rl.sweep()
	return rl
}

func (rl *RateLimiter) limiter(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rl.every, rl.config.Max)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	return b.lim
}

// Handler returns a Fiber middleware handler that enforces the rate limit.
func (rl *RateLimiter) Handler() fiber.Handler {
	return func(c fiber.Ctx) error {
		now := time.Now()
		lim := rl.limiter(rl.config.KeyFn(c), now)

		r := lim.ReserveN(now, 1)
		delay := r.DelayFrom(now)
		if !r.OK() || delay > 0 {
			r.CancelAt(now)
			retryAfter := int(math.Ceil(delay.Seconds()))
			c.Set("X-RateLimit-Limit", strconv.Itoa(rl.config.Max))
			c.Set("X-RateLimit-Remaining", "0")
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
			return ErrorResponse(c, fiber.StatusTooManyRequests, "RATE_LIMITED",
				fmt.Sprintf("Too many requests. Try again in %d seconds.", retryAfter))
		}

		remaining := int(lim.TokensAt(now))
		c.Set("X-RateLimit-Limit", strconv.Itoa(rl.config.Max))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(max(remaining, 0)))
		return c.Next()
	}
}

// Allow reports whether one more request for key fits the limit.
func (rl *RateLimiter) Allow(key string) bool {
	now := time.Now()
	return rl.limiter(key, now).AllowN(now, 1)
}

// sweep drops buckets idle for a full window; they would be full again anyway.
func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(limiterSweepInterval)
	for range ticker.C {
		rl.mu.Lock()
		cutoff := time.Now().Add(-rl.config.Window)
		for key, b := range rl.buckets {
			if b.lastSeen.Before(cutoff) {
				delete(rl.buckets, key)
			}
		}
		rl.mu.Unlock()
	}
}

// KeyByIP returns the client IP as the rate limit key.
func KeyByIP(c fiber.Ctx) string {
	return "ip:" + c.IP()
}

func perMinute(n int) *RateLimiter {
	return NewRateLimiter(RateLimitConfig{Max: n, Window: time.Minute, KeyFn: KeyByIP})
}

// NewSyncRateLimiter allows 2 manual refreshes per minute per IP. Each
// one can spend search quota.
func NewSyncRateLimiter() *RateLimiter { return perMinute(2) }

// NewSearchRateLimiter allows 20 channel searches per minute per IP.
func NewSearchRateLimiter() *RateLimiter { return perMinute(20) }

// NewChannelWriteRateLimiter allows 10 channel adds or removes per minute per IP.
func NewChannelWriteRateLimiter() *RateLimiter { return perMinute(10) }

// NewReadRateLimiter allows 120 grid and channel reads per minute per IP.
func NewReadRateLimiter() *RateLimiter { return perMinute(120) }
