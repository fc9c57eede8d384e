package routes

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/mo-amir99/lms-progress-go/internal/features/catalog"
	"github.com/mo-amir99/lms-progress-go/internal/features/enrollment"
	"github.com/mo-amir99/lms-progress-go/internal/features/progress"
	"github.com/mo-amir99/lms-progress-go/internal/middleware"
	"github.com/mo-amir99/lms-progress-go/pkg/cache"
	"github.com/mo-amir99/lms-progress-go/pkg/config"
	"github.com/mo-amir99/lms-progress-go/pkg/health"
	"github.com/mo-amir99/lms-progress-go/pkg/memory"
	pkgmiddleware "github.com/mo-amir99/lms-progress-go/pkg/middleware"
)

// Dependencies are the process wide resources route handlers share.
type Dependencies struct {
	DB     *gorm.DB
	Cache  cache.Client
	Owners *memory.Cache
	Logger *slog.Logger
}

// Register wires all feature routes onto the engine.
func Register(engine *gin.Engine, cfg *config.Config, deps Dependencies) {
	// Probes stay outside /api.
	healthHandler := health.NewHandler(deps.DB, deps.Cache, deps.Logger)
	engine.GET("/health", healthHandler.Health)
	engine.GET("/ready", healthHandler.Ready)
	engine.GET("/version", healthHandler.Version)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if !cfg.IsProduction() {
		engine.GET("/debug/db-stats", healthHandler.DBStats)
	}

	api := engine.Group("/api", pkgmiddleware.NoStore())
	authenticated := middleware.NewAuthMiddleware(cfg.JWTSecret, deps.Logger).AuthenticateToken()

	reader := catalog.NewReader(deps.DB, deps.Owners)
	enrollments := enrollment.NewStore(deps.DB)
	service := progress.NewService(deps.DB, progress.NewStore(deps.DB), reader, enrollments, deps.Logger)

	catalog.RegisterRoutes(api, catalog.NewHandler(deps.DB, deps.Logger), authenticated)
	enrollment.RegisterRoutes(api, enrollment.NewHandler(deps.DB, deps.Logger), authenticated)
	progress.RegisterRoutes(api, progress.NewHandler(service, deps.Logger), authenticated)
}
