package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"duelarena/internal/config"
	"duelarena/internal/db"
	httpServer "duelarena/internal/http"
	"duelarena/internal/http/handlers"
	"duelarena/internal/http/middleware"
	"duelarena/internal/logger"
	"duelarena/internal/metrics"
	"duelarena/internal/repository"
	"duelarena/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

// Version устанавливается при сборке
var Version = "dev"

func main() {
	cfg := config.Load()

	// Инициализация структурированного логгера
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	log := logger.Get()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// история матчей опциональна: без базы сервер просто не пишет итоги
	hubOpts := ws.Options{
		Logger:       log,
		Metrics:      m,
		StaleAfter:   cfg.RoomStaleAfter,
		CleanupEvery: cfg.RoomCleanupEvery,
	}
	h := &handlers.Handler{Version: Version}
	if cfg.DatabaseURL != "" {
		dbPool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("database connect failed", "error", err)
		}
		defer dbPool.Close()
		if err := db.Migrate(ctx, dbPool); err != nil {
			logger.Fatal("database migrate failed", "error", err)
		}
		matches := repository.NewMatchRepository(dbPool)
		hubOpts.Recorder = matches
		h.Matches = matches
		h.DB = dbPool
		log.Info("match history enabled")
	} else {
		log.Warn("DATABASE_URL not set - match history disabled")
	}

	hub := ws.NewHub(hubOpts)
	h.Hub = hub
	go hub.Run(ctx)

	// redis для лимита апгрейдов; без него счетчики живут в памяти процесса
	var store middleware.Store
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unavailable, rate limiter will fail open", "error", err)
		}
		store = middleware.NewRedisStore(rdb)
	} else {
		store = middleware.NewMemoryStore()
	}
	limiter := middleware.NewRateLimiter(store, cfg.RateLimitPerMinute, time.Minute, m, log)

	r := gin.Default()
	httpServer.RegisterRoutes(r, h, httpServer.RouterConfig{
		AllowedOrigin: cfg.AllowedOrigin,
		StaticDir:     cfg.StaticDir,
		Limiter:       limiter,
		Gatherer:      reg,
	}, log)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		log.Info("server started", "port", cfg.AppPort, "version", Version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", "error", err)
	}

	// комнаты закрываются после http, чтобы новые кадры уже не приходили
	stop()
	hub.Stop()

	log.Info("server exited")
}
