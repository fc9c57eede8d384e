package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/mo-amir99/lms-progress-go/internal/bootstrap"
	"github.com/mo-amir99/lms-progress-go/pkg/config"
	"github.com/mo-amir99/lms-progress-go/pkg/database"
	"github.com/mo-amir99/lms-progress-go/pkg/logger"
)

// Creates or updates every table and applies the registered index migrations,
// regardless of LMS_DB_RUN_MIGRATIONS.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.New(cfg.LogLevel, "")
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	cfg.Database.RunMigrations = true

	db, err := database.ConnectWithRetry(context.Background(), cfg.Database, appLogger, 2, time.Second)
	if err != nil {
		appLogger.Error("Failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = database.Close(db, appLogger) }()

	if err := bootstrap.ApplyDatabaseMigrations(db, cfg, appLogger); err != nil {
		appLogger.Error("Failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	appLogger.Info("Database schema is up to date")
}
