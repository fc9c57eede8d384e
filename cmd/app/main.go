package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mo-amir99/lms-progress-go/internal/bootstrap"
	"github.com/mo-amir99/lms-progress-go/internal/http/routes"
	"github.com/mo-amir99/lms-progress-go/pkg/cache"
	"github.com/mo-amir99/lms-progress-go/pkg/config"
	"github.com/mo-amir99/lms-progress-go/pkg/database"
	"github.com/mo-amir99/lms-progress-go/pkg/logger"
	"github.com/mo-amir99/lms-progress-go/pkg/memory"
	"github.com/mo-amir99/lms-progress-go/pkg/metrics"
	"github.com/mo-amir99/lms-progress-go/pkg/middleware"
	"github.com/mo-amir99/lms-progress-go/pkg/request"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	appLogger, err := logger.New(cfg.LogLevel, cfg.LogDir)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(ctx, cfg.Database, appLogger)
	if err != nil {
		appLogger.Error("database connection failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	defer func() {
		if err := database.Close(db, appLogger); err != nil {
			appLogger.Error("database close failed", slog.String("error", err.Error()))
		}
	}()

	if err := bootstrap.ApplyDatabaseMigrations(db, cfg, appLogger); err != nil {
		appLogger.Error("migrations failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	sharedCache := newSharedCache(ctx, cfg, appLogger)
	defer sharedCache.Close()

	owners := memory.New(cfg.CatalogCacheTTL)
	defer owners.Close()

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(appLogger))
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(middleware.RequestLogger(appLogger))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RequestSizeLimit(1 << 20))
	router.Use(metrics.Middleware())
	router.Use(middleware.NewRateLimiter(sharedCache, cfg.RateLimit.Requests, cfg.RateLimit.Window, appLogger).Middleware())
	router.Use(request.Handler(appLogger))

	routes.Register(router, cfg, routes.Dependencies{
		DB:     db,
		Cache:  sharedCache,
		Owners: owners,
		Logger: appLogger,
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddress(),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		appLogger.Info("server starting",
			slog.String("addr", cfg.ServerAddress()),
			slog.String("env", cfg.Env),
			slog.String("log_level", cfg.LogLevel),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("server listen failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("server shutdown failed", slog.String("error", err.Error()))
	} else {
		appLogger.Info("server stopped gracefully")
	}
}

// newSharedCache connects to Redis when configured and falls back to a
// process local cache otherwise.
func newSharedCache(ctx context.Context, cfg *config.Config, appLogger *slog.Logger) cache.Client {
	if cfg.Redis.Addr == "" {
		appLogger.Info("redis not configured, using in-memory cache")
		return cache.NewMemoryCache()
	}

	client, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		appLogger.Warn("redis unavailable, using in-memory cache",
			slog.String("addr", cfg.Redis.Addr),
			slog.String("error", err.Error()),
		)
		return cache.NewMemoryCache()
	}

	appLogger.Info("redis cache connected", slog.String("addr", cfg.Redis.Addr))
	return client
}
