package middlewares

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// WindowCounter counts hits per key in a fixed window. *redisclient.Client
// implements it for multi-instance deployments; MemoryCounter for one process.
type WindowCounter interface {
	Hit(ctx context.Context, key string, window time.Duration) (count int, left time.Duration, err error)
}

// LimitObserver is satisfied by *observability.Prom.
type LimitObserver interface {
	ObserveLogin(result string)
}

type RateLimiter struct {
	counter  WindowCounter
	limit    int
	window   time.Duration
	name     string
	log      *slog.Logger
	observer LimitObserver
}

func NewRateLimiter(name string, limit int, window time.Duration, counter WindowCounter, log *slog.Logger, observer LimitObserver) *RateLimiter {
	if counter == nil {
		counter = NewMemoryCounter()
	}

	return &RateLimiter{
		counter:  counter,
		limit:    limit,
		window:   window,
		name:     name,
		log:      log,
		observer: observer,
	}
}

// Middleware enforces the limit for a key derived from the request. Counter
// errors let the request through: an unavailable Redis must not lock
// everybody out of login.
func (rl *RateLimiter) Middleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)

		if key == "" {
			// fallback to IP if key cannot be derived
			key = clientIP(c)
		}

		count, left, err := rl.counter.Hit(c.Request.Context(), rl.name+":"+key, rl.window)
		if err != nil {
			if rl.log != nil {
				rl.log.WarnContext(c.Request.Context(), "rate limiter unavailable", "limiter", rl.name, "err", err)
			}
			c.Next()
			return
		}

		if count > rl.limit {
			retryAfter := int(left.Round(time.Second).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}

			if rl.observer != nil {
				rl.observer.ObserveLogin("rate_limited")
			}

			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "rate_limited",
					"message": "Too many requests. Please try again shortly.",
				},
			})

			return
		}

		c.Next()
	}
}

// for unauthenticated endpoints: rate limit by IP
func KeyByIP(c *gin.Context) string {
	return clientIP(c)
}

func clientIP(c *gin.Context) string {
	// Gin's ClientIP respects X-Forwarded-For / X-Real-IP only for trusted proxies.
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)

	if err == nil && host != "" {
		return host
	}

	return ip
}

type MemoryCounter struct {
	mu      sync.Mutex
	now     func() time.Time
	buckets map[string]*bucket
}

type bucket struct {
	count     int
	windowEnd time.Time
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

func (m *MemoryCounter) Hit(_ context.Context, key string, window time.Duration) (int, time.Duration, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.buckets[key]
	if !ok || !now.Before(b.windowEnd) {
		m.evictExpired(now)
		b = &bucket{windowEnd: now.Add(window)}
		m.buckets[key] = b
	}

	b.count++

	return b.count, b.windowEnd.Sub(now), nil
}

// evictExpired keeps the map from growing with one entry per client ever seen.
func (m *MemoryCounter) evictExpired(now time.Time) {
	for k, b := range m.buckets {
		if !now.Before(b.windowEnd) {
			delete(m.buckets, k)
		}
	}
}
