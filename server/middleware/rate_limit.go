package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	enginerr "github.com/hrygo/ragcontext/internal/errors"
)

// DefaultLimiterIdle is how long a client's bucket is kept without requests.
const DefaultLimiterIdle = 10 * time.Minute

// RateLimiter keeps one token bucket per client key. Buckets of clients
// that stay idle longer than the idle window are evicted.
type RateLimiter struct {
	mu     sync.Mutex
	limits *gocache.Cache
	rate   rate.Limit
	burst  int
}

// NewRateLimiter creates a limiter allowing perSecond requests per key with
// the given burst.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return newRateLimiter(perSecond, burst, DefaultLimiterIdle)
}

func newRateLimiter(perSecond float64, burst int, idle time.Duration) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limits: gocache.New(idle, idle),
		rate:   rate.Limit(perSecond),
		burst:  burst,
	}
}

// getLimiter gets or creates a limiter for the given key and restarts its
// idle window.
func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, ok := rl.limits.Get(key)
	if !ok {
		limiter = rate.NewLimiter(rl.rate, rl.burst)
	}
	rl.limits.SetDefault(key, limiter)
	return limiter.(*rate.Limiter)
}

// Allow checks if a request is allowed for the given key.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.getLimiter(key).Allow()
}

// clients returns the number of clients with a live bucket.
func (rl *RateLimiter) clients() int {
	return len(rl.limits.Items())
}

// RateLimit rejects requests over the client's budget with 429.
// Clients are keyed by their real IP.
func RateLimit(rl *RateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !rl.Allow(c.RealIP()) {
				err := enginerr.RateLimitExceeded("too many requests")
				return c.JSON(http.StatusTooManyRequests, map[string]string{
					"error": err.Message,
					"code":  string(err.Code),
				})
			}
			return next(c)
		}
	}
}
