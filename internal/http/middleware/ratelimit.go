package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"duelarena/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Store счетчик запросов в фиксированном окне
type Store interface {
	// Incr увеличивает счетчик key и возвращает новое значение
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisStore счетчики в redis: INCR, на первом запросе окна EXPIRE
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	n, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			return n, err
		}
	}
	return n, nil
}

// MemoryStore счетчики в памяти процесса, когда redis не настроен
type MemoryStore struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]memoryEntry
}

type memoryEntry struct {
	count   int64
	expires time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now, entries: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, e := range s.entries {
		if !now.Before(e.expires) {
			delete(s.entries, k)
		}
	}
	e, ok := s.entries[key]
	if !ok {
		e = memoryEntry{expires: now.Add(window)}
	}
	e.count++
	s.entries[key] = e
	return e.count, nil
}

// RateLimiter ограничивает число запросов с одного ip за окно
type RateLimiter struct {
	store   Store
	limit   int64
	window  time.Duration
	prefix  string
	metrics *metrics.Metrics
	log     *slog.Logger
	now     func() time.Time
}

func NewRateLimiter(store Store, limit int, window time.Duration, m *metrics.Metrics, log *slog.Logger) *RateLimiter {
	return &RateLimiter{
		store:   store,
		limit:   int64(limit),
		window:  window,
		prefix:  "duelarena:ratelimit:",
		metrics: m,
		log:     log,
		now:     time.Now,
	}
}

// Handler отвечает 429 сверх лимита; ошибки хранилища пропускают запрос
func (l *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l.limit <= 0 {
			c.Next()
			return
		}

		bucket := l.now().UnixNano() / int64(l.window)
		key := l.prefix + c.ClientIP() + ":" + strconv.FormatInt(bucket, 10)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 100*time.Millisecond)
		n, err := l.store.Incr(ctx, key, l.window)
		cancel()
		if err != nil {
			l.log.Warn("rate limiter unavailable, allowing request", "error", err)
			c.Next()
			return
		}

		if n > l.limit {
			if l.metrics != nil {
				l.metrics.RateLimited.Inc()
			}
			c.Header("Retry-After", strconv.Itoa(int(l.window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
