package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redis_rate/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMemoryLimiter_Refill verifies the bucket empties and refills per key.
func TestMemoryLimiter_Refill(t *testing.T) {
	rl := NewMemoryLimiter(2, time.Second)
	now := fixedTime
	rl.now = func() time.Time { return now }
	ctx := context.Background()

	for i := range 2 {
		ok, _, _ := rl.Allow(ctx, "a")
		assert.True(t, ok, "request %d", i)
	}
	ok, retry, _ := rl.Allow(ctx, "a")
	assert.False(t, ok)
	assert.Greater(t, retry, time.Duration(0))

	ok, _, _ = rl.Allow(ctx, "b")
	assert.True(t, ok, "keys are independent")

	now = now.Add(time.Second)
	ok, _, _ = rl.Allow(ctx, "a")
	assert.True(t, ok, "refilled after interval")
}

type fakeAllower struct {
	result *redis_rate.Result
	err    error
	keys   []string
}

// Allow records the key and returns the configured result.
// PRE: none
// POST: key appended to keys
func (f *fakeAllower) Allow(_ context.Context, key string, _ redis_rate.Limit) (*redis_rate.Result, error) {
	f.keys = append(f.keys, key)
	return f.result, f.err
}

// TestRateLimit verifies allowed, denied and failing limiters.
func TestRateLimit(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	tests := []struct {
		name    string
		allower *fakeAllower
		want    int
	}{
		{"allowed", &fakeAllower{result: &redis_rate.Result{Allowed: 1}}, http.StatusNoContent},
		{"denied", &fakeAllower{result: &redis_rate.Result{Allowed: 0, RetryAfter: 2 * time.Second}}, http.StatusTooManyRequests},
		{"redis down", &fakeAllower{err: errors.New("connection refused")}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
			req.RemoteAddr = "10.0.0.1:5555"
			RateLimit(NewRedisLimiter(tt.allower, 5), "login")(next).ServeHTTP(rr, req)

			assert.Equal(t, tt.want, rr.Code)
			require.Len(t, tt.allower.keys, 1)
			assert.Equal(t, "login:10.0.0.1", tt.allower.keys[0])
			if tt.want == http.StatusTooManyRequests {
				assert.Equal(t, "2", rr.Header().Get("Retry-After"))
			}
		})
	}
}

// TestCSRF_ExemptsJSON verifies JSON and bearer requests skip the token check
// while form posts are rejected.
func TestCSRF_ExemptsJSON(t *testing.T) {
	key := []byte(strings.Repeat("k", 32))
	handler := CSRF(key, false, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header map[string]string
		want   int
	}{
		{"json", map[string]string{"Content-Type": "application/json"}, http.StatusNoContent},
		{"bearer", map[string]string{"Authorization": "Bearer abc"}, http.StatusNoContent},
		{"form", map[string]string{"Content-Type": "application/x-www-form-urlencoded"}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/templates", strings.NewReader("title=x"))
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}

// TestChain verifies the wrapping order.
func TestChain(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { order = append(order, "handler") }), mark("inner"), mark("outer"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

// TestSecurityHeaders verifies the OWASP headers are set.
func TestSecurityHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	SecurityHeaders(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
}
