package http

import (
	"log/slog"
	"os"
	"path/filepath"

	"duelarena/internal/http/handlers"
	"duelarena/internal/http/middleware"
	"duelarena/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig то, что роутер берет из конфигурации
type RouterConfig struct {
	AllowedOrigin string
	StaticDir     string
	// Limiter nil отключает ограничение апгрейдов /ws
	Limiter  *middleware.RateLimiter
	Gatherer prometheus.Gatherer
}

// RegisterRoutes вешает ws, api, метрики и раздачу статики
func RegisterRoutes(r *gin.Engine, h *handlers.Handler, cfg RouterConfig, log *slog.Logger) {
	r.Use(middleware.CORS(cfg.AllowedOrigin))

	wsChain := []gin.HandlerFunc{}
	if cfg.Limiter != nil {
		wsChain = append(wsChain, cfg.Limiter.Handler())
	}
	wsChain = append(wsChain, ws.Handler(h.Hub, cfg.AllowedOrigin, log))
	r.GET("/ws", wsChain...)

	r.GET("/healthz", h.Health)
	if cfg.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	{
		api.GET("/games", h.ListGames)
		api.GET("/rooms/:code", h.GetRoom)
		api.GET("/matches", h.RecentMatches)
		api.GET("/matches/stats", h.MatchStats)
	}

	if cfg.StaticDir != "" {
		r.NoRoute(staticFallback(cfg.StaticDir))
	}
}

// staticFallback отдает файл из dir, а неизвестные пути уводит на index.html
func staticFallback(dir string) gin.HandlerFunc {
	index := filepath.Join(dir, "index.html")
	return func(c *gin.Context) {
		path := filepath.Join(dir, filepath.Clean("/"+c.Request.URL.Path))
		if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
			c.File(path)
			return
		}
		c.File(index)
	}
}
