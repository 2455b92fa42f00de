package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gradconnect/backend/config"
	"github.com/gradconnect/backend/services"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestLimiter(t *testing.T, perMinute, burst int) *RateLimiter {
	t.Helper()
	rl := NewRateLimiter(config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: perMinute,
		Burst:             burst,
		CleanupInterval:   time.Minute,
	}, zap.NewNop())
	t.Cleanup(rl.Stop)
	return rl
}

func hit(h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_AllowsBurstThenRejects(t *testing.T) {
	rl := newTestLimiter(t, 60, 3)
	calls := 0
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:5000").Code, "request %d", i)
	}

	w := hit(h, "10.0.0.1:5001")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "rate_limit_exceeded")
	assert.Contains(t, w.Body.String(), services.ErrRateLimitExceeded.Message)
	assert.Equal(t, 3, calls)
}

func TestRateLimiter_ClientsAreIndependent(t *testing.T) {
	rl := newTestLimiter(t, 1, 1)
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1:2").Code)
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.2:1").Code)
	assert.Equal(t, 2, rl.clientCount())
}

func TestRateLimiter_RetryAfterFollowsRate(t *testing.T) {
	rl := newTestLimiter(t, 6, 1)
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	hit(h, "10.0.0.1:1")
	w := hit(h, "10.0.0.1:1")

	assert.Equal(t, "10", w.Header().Get("Retry-After"))
}

func TestRateLimiter_CleanupDropsIdleClients(t *testing.T) {
	rl := newTestLimiter(t, 60, 5)
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	hit(h, "10.0.0.1:1")
	hit(h, "10.0.0.2:1")

	rl.cleanup(time.Now())
	assert.Equal(t, 2, rl.clientCount())

	rl.cleanup(time.Now().Add(3 * time.Minute))
	assert.Equal(t, 0, rl.clientCount())
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := newTestLimiter(t, 60, 5)
	rl.Stop()
	assert.NotPanics(t, rl.Stop)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	req.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", clientIP(req))

	req.RemoteAddr = "192.0.2.1"
	assert.Equal(t, "192.0.2.1", clientIP(req))
}
