package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/csrf"
)

// Limiter decides whether a request identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}

// MemoryLimiter provides a per-key token bucket rate limiter.
type MemoryLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int           // tokens per interval
	interval time.Duration // refill interval
	now      func() time.Time
}

type visitor struct {
	tokens   int
	lastSeen time.Time
}

// staleVisitor is how long an idle key is remembered.
const staleVisitor = 5 * time.Minute

// NewMemoryLimiter creates a rate limiter allowing `rate` requests per `interval`.
func NewMemoryLimiter(rate int, interval time.Duration) *MemoryLimiter {
	if interval <= 0 {
		interval = time.Second
	}
	return &MemoryLimiter{
		visitors: make(map[string]*visitor),
		rate:     max(rate, 1),
		interval: interval,
		now:      time.Now,
	}
}

// Allow checks if a request for key is allowed.
// PRE: key is non-empty
// POST: Returns true if within rate limit, false with a retry hint if exceeded
func (rl *MemoryLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()

	for k, v := range rl.visitors {
		if now.Sub(v.lastSeen) > staleVisitor {
			delete(rl.visitors, k)
		}
	}

	v, exists := rl.visitors[key]
	if !exists {
		rl.visitors[key] = &visitor{tokens: rl.rate - 1, lastSeen: now}
		return true, 0, nil
	}

	// Refill tokens based on elapsed time
	elapsed := now.Sub(v.lastSeen)
	if refill := int(elapsed/rl.interval) * rl.rate; refill > 0 {
		v.tokens = min(v.tokens+refill, rl.rate)
		v.lastSeen = now
	}

	if v.tokens <= 0 {
		return false, rl.interval - elapsed, nil
	}
	v.tokens--
	return true, 0, nil
}

// RedisRateAllower is the subset of *redis_rate.Limiter used here.
type RedisRateAllower interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error)
}

// RedisLimiter shares a GCRA limit across server processes through Redis.
type RedisLimiter struct {
	limiter RedisRateAllower
	limit   redis_rate.Limit
}

// NewRedisLimiter allows perSecond requests per key per second.
func NewRedisLimiter(limiter RedisRateAllower, perSecond int) *RedisLimiter {
	return &RedisLimiter{limiter: limiter, limit: redis_rate.PerSecond(max(perSecond, 1))}
}

// Allow implements Limiter.
func (rl *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	res, err := rl.limiter.Allow(ctx, key, rl.limit)
	if err != nil {
		return false, 0, err
	}
	return res.Allowed > 0, res.RetryAfter, nil
}

// RateLimit returns middleware that limits requests per client IP within scope.
func RateLimit(limiter Limiter, scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			allowed, retryAfter, err := limiter.Allow(r.Context(), scope+":"+ip)
			if err != nil {
				slog.Error("rate_limit_error", "scope", scope, "error", err)
				http.Error(w, "rate limit internal error", http.StatusInternalServerError)
				return
			}
			if !allowed {
				slog.Warn("rate_limit_exceeded", "scope", scope, "ip", ip)
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(max(retryAfter, time.Second).Seconds()))))
				http.Error(w, fmt.Sprintf("retry after %.0f seconds", math.Ceil(retryAfter.Seconds())), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// SecurityHeaders adds OWASP recommended headers.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; frame-ancestors 'none'")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// CSRF returns a handler that protects form submissions against CSRF attacks.
// JSON API requests (Content-Type: application/json) and bearer-token requests
// are exempted.
// PRE: authKey is 32 bytes
func CSRF(authKey []byte, secure bool, trustedOrigins []string) func(http.Handler) http.Handler {
	csrfProtect := csrf.Protect(
		authKey,
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.TrustedOrigins(trustedOrigins),
	)

	return func(next http.Handler) http.Handler {
		protected := csrfProtect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
				next.ServeHTTP(w, r)
				return
			}
			if _, ok := bearerToken(r); ok {
				next.ServeHTTP(w, r)
				return
			}
			protected.ServeHTTP(w, r)
		})
	}
}

// Chain wraps h with middlewares in order; the last one listed runs first.
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for _, m := range middlewares {
		h = m(h)
	}
	return h
}
