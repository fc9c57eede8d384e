package bootstrap

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/mo-amir99/lms-progress-go/pkg/config"
	"github.com/mo-amir99/lms-progress-go/pkg/database/migrations"
)

// Partial indexes serving the hot progress queries. Both Postgres and SQLite accept this syntax.
var indexMigrations = []struct {
	name string
	sql  string
}{
	{
		name: "0001_enrollments_active_by_user",
		sql:  `CREATE INDEX IF NOT EXISTS idx_enrollments_active_user ON enrollments (user_id, created_at) WHERE status = 'ACTIVE'`,
	},
	{
		name: "0002_video_progress_watched_by_course",
		sql:  `CREATE INDEX IF NOT EXISTS idx_video_progress_watched ON video_progress (course_progress_id, video_id) WHERE watched`,
	},
}

// RegisterMigrations adds the schema migrations that AutoMigrate cannot express.
func RegisterMigrations() {
	for _, m := range indexMigrations {
		statement := m.sql
		migrations.Register(m.name, func(tx *gorm.DB) error {
			return tx.Exec(statement).Error
		})
	}
}

// ApplyDatabaseMigrations runs database migrations when enabled via configuration.
func ApplyDatabaseMigrations(db *gorm.DB, cfg *config.Config, logger *slog.Logger) error {
	if !cfg.Database.RunMigrations {
		logger.Info("database migrations skipped", slog.String("env_var", "LMS_DB_RUN_MIGRATIONS=false"))
		return nil
	}

	RegisterMigrations()
	if err := migrations.Run(db, logger); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	logger.Info("database migrations applied successfully")
	return nil
}
