package middlewares

import (
	"context"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/gin-gonic/gin"
)

// WindowStore counts hits per key in a fixed window. Hit returns the count
// including this hit and the time left until the window resets.
type WindowStore interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

type RateLimiter struct {
	store  WindowStore
	limit  int
	window time.Duration
	name   string
	prom   *observability.Prom
}

func NewRateLimiter(store WindowStore, name string, limit int, window time.Duration, prom *observability.Prom) *RateLimiter {
	return &RateLimiter{
		store:  store,
		limit:  limit,
		window: window,
		name:   name,
		prom:   prom,
	}
}

// RateLimiterMiddleware enforces the limit for a derived key. Store errors
// let the request through.
func (rl *RateLimiter) RateLimiterMiddleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)

		if key == "" {
			// fallback to IP if key cannot be derived
			key = clientIP(c)
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		count, resetIn, err := rl.store.Hit(ctx, "ratelimit:"+rl.name+":"+key, rl.window)
		cancel()

		if err != nil {
			slog.Default().WarnContext(c.Request.Context(), "rate limit store unavailable",
				"limiter", rl.name,
				"err", err,
			)
			c.Next()
			return
		}

		remaining := int64(rl.limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(rl.limit) {
			rl.prom.RateLimited(rl.name)

			c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(resetIn)))
			abortWith(c, http.StatusTooManyRequests, "rate_limited", "Too many requests from this IP, please try again later.")
			return
		}

		c.Next()
	}
}

func retryAfterSeconds(d time.Duration) int {
	s := int(math.Ceil(d.Seconds()))
	if s < 1 {
		return 1
	}
	return s
}

// for unauthenticated endpoints: rate limit by IP
func KeyByIP(c *gin.Context) string {
	return clientIP(c)
}

// For authenticated endpoints: rate limit by userID if available
func KeyByUserOrIP(c *gin.Context) string {
	actor, ok := ActorFromContext(c)

	if ok {
		return "user:" + actor.ID
	}

	return clientIP(c)
}

func clientIP(c *gin.Context) string {
	// Gin's ClientIP respects X-Forwarded-For / X-Real-IP if configured.
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)

	if err == nil && host != "" {
		return host
	}

	return ip
}

// MemoryWindowStore keeps fixed windows in process memory.
type MemoryWindowStore struct {
	mu      sync.Mutex
	now     func() time.Time
	clients map[string]*clientBucket
	sweptAt time.Time
}

type clientBucket struct {
	count     int64
	windowEnd time.Time
}

func NewMemoryWindowStore() *MemoryWindowStore {
	return &MemoryWindowStore{
		now:     time.Now,
		clients: make(map[string]*clientBucket),
	}
}

func (s *MemoryWindowStore) Hit(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweep(now, window)

	b, ok := s.clients[key]
	if !ok || !now.Before(b.windowEnd) {
		b = &clientBucket{windowEnd: now.Add(window)}
		s.clients[key] = b
	}

	b.count++
	return b.count, b.windowEnd.Sub(now), nil
}

// sweep drops expired buckets at most once per window.
func (s *MemoryWindowStore) sweep(now time.Time, window time.Duration) {
	if now.Sub(s.sweptAt) < window {
		return
	}
	s.sweptAt = now

	for k, b := range s.clients {
		if !now.Before(b.windowEnd) {
			delete(s.clients, k)
		}
	}
}
