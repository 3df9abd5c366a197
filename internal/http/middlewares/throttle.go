package middlewares

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// AuthThrottle is a per-IP token bucket for credential endpoints, applied on
// top of the global window limiter.
type AuthThrottle struct {
	mu          sync.Mutex
	limiters    map[string]*rate.Limiter
	rate        rate.Limit
	burst       int
	lastCleanup time.Time
	prom        *observability.Prom
}

func NewAuthThrottle(perMinute, burst int, prom *observability.Prom) *AuthThrottle {
	if perMinute <= 0 {
		perMinute = 10
	}
	if burst <= 0 {
		burst = 1
	}

	return &AuthThrottle{
		limiters:    make(map[string]*rate.Limiter),
		rate:        rate.Limit(float64(perMinute) / 60),
		burst:       burst,
		lastCleanup: time.Now(),
		prom:        prom,
	}
}

func (t *AuthThrottle) limiter(key string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()

	// idle limiters refill to a full bucket and can be dropped
	if time.Since(t.lastCleanup) > 5*time.Minute {
		t.lastCleanup = time.Now()
		for k, l := range t.limiters {
			if l.Tokens() >= float64(t.burst) {
				delete(t.limiters, k)
			}
		}
	}

	l, ok := t.limiters[key]
	if !ok {
		l = rate.NewLimiter(t.rate, t.burst)
		t.limiters[key] = l
	}
	return l
}

func (t *AuthThrottle) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		l := t.limiter(clientIP(c))

		if l.Allow() {
			c.Next()
			return
		}

		r := l.Reserve()
		delay := r.Delay()
		r.Cancel()

		t.prom.RateLimited("auth")
		c.Header("Retry-After", strconv.Itoa(max(int(math.Ceil(delay.Seconds())), 1)))
		abortWith(c, http.StatusTooManyRequests, "rate_limited", "Too many authentication attempts, please try again later.")
	}
}
