package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Version information, set at build time with -ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

const checkTimeout = 2 * time.Second

// Pinger is any dependency that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves liveness, readiness and build information.
type Handler struct {
	db     *gorm.DB
	cache  Pinger
	logger *slog.Logger
}

// NewHandler creates a health handler. cache may be nil.
func NewHandler(db *gorm.DB, cache Pinger, logger *slog.Logger) *Handler {
	return &Handler{db: db, cache: cache, logger: logger}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Health is the liveness probe.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   Version,
	})
}

// Ready reports 503 unless the database and the cache both answer.
func (h *Handler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
	defer cancel()

	checks := map[string]string{
		"database": h.checkDatabase(ctx),
	}
	if h.cache != nil {
		checks["cache"] = h.check(ctx, "cache", h.cache.Ping)
	}

	status, code := "ready", http.StatusOK
	for _, result := range checks {
		if result != "ok" {
			status, code = "not_ready", http.StatusServiceUnavailable
			break
		}
	}

	c.JSON(code, HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Version:   Version,
		Checks:    checks,
	})
}

// Version returns version information about the service.
func (h *Handler) Version(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version":    Version,
		"git_commit": GitCommit,
		"build_time": BuildTime,
	})
}

func (h *Handler) checkDatabase(ctx context.Context) string {
	sqlDB, err := h.db.DB()
	if err != nil {
		h.logger.Error("health check: failed to get database instance", slog.String("error", err.Error()))
		return "unavailable"
	}
	return h.check(ctx, "database", sqlDB.PingContext)
}

func (h *Handler) check(ctx context.Context, name string, ping func(context.Context) error) string {
	if err := ping(ctx); err != nil {
		h.logger.Error("health check failed", slog.String("dependency", name), slog.String("error", err.Error()))
		return "unhealthy"
	}
	return "ok"
}

// DBStats returns database connection pool statistics.
func (h *Handler) DBStats(c *gin.Context) {
	sqlDB, err := h.db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get database instance"})
		return
	}

	stats := sqlDB.Stats()
	c.JSON(http.StatusOK, gin.H{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"wait_count":           stats.WaitCount,
		"wait_duration":        stats.WaitDuration.String(),
	})
}
