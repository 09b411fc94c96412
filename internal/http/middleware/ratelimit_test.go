package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"duelarena/internal/logger"
	"duelarena/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{}

func (failingStore) Incr(context.Context, string, time.Duration) (int64, error) {
	return 0, errors.New("connection refused")
}

func newRouter(l *RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", l.Handler(), func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func hit(r *gin.Engine, ip string) int {
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.RemoteAddr = ip + ":5000"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimiter_RejectsOverLimit(t *testing.T) {
	m := metrics.New(nil)
	l := NewRateLimiter(NewMemoryStore(), 2, time.Minute, m, logger.Discard())
	fixed := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return fixed }
	r := newRouter(l)

	assert.Equal(t, http.StatusOK, hit(r, "10.0.0.1"))
	assert.Equal(t, http.StatusOK, hit(r, "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "10.0.0.1"))
	// другой ip считается отдельно
	assert.Equal(t, http.StatusOK, hit(r, "10.0.0.2"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimited))
}

func TestRateLimiter_NewWindowResets(t *testing.T) {
	l := NewRateLimiter(NewMemoryStore(), 1, time.Minute, nil, logger.Discard())
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	r := newRouter(l)

	require.Equal(t, http.StatusOK, hit(r, "10.0.0.1"))
	require.Equal(t, http.StatusTooManyRequests, hit(r, "10.0.0.1"))

	now = now.Add(time.Minute)
	assert.Equal(t, http.StatusOK, hit(r, "10.0.0.1"))
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	l := NewRateLimiter(failingStore{}, 1, time.Minute, nil, logger.Discard())
	r := newRouter(l)

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, hit(r, "10.0.0.1"))
	}
}

func TestRateLimiter_ZeroLimitDisables(t *testing.T) {
	l := NewRateLimiter(failingStore{}, 0, time.Minute, nil, logger.Discard())
	r := newRouter(l)

	assert.Equal(t, http.StatusOK, hit(r, "10.0.0.1"))
}

func TestMemoryStore_ExpiresEntries(t *testing.T) {
	s := NewMemoryStore()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	n, err := s.Incr(context.Background(), "k", time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, _ = s.Incr(context.Background(), "k", time.Second)
	assert.Equal(t, int64(2), n)

	now = now.Add(time.Second)
	n, _ = s.Incr(context.Background(), "k", time.Second)
	assert.Equal(t, int64(1), n)
}
