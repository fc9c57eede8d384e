package database

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/mo-amir99/lms-progress-go/pkg/database/migrations"
)

// DropAll drops every table owned by this service, dependents first, and
// reports how many existed.
func DropAll(db *gorm.DB, log *slog.Logger) (int, error) {
	models := append(Models(), &migrations.AppliedMigration{})

	dropped := 0
	for i := len(models) - 1; i >= 0; i-- {
		model := models[i]
		if !db.Migrator().HasTable(model) {
			continue
		}
		if err := db.Migrator().DropTable(model); err != nil {
			return dropped, fmt.Errorf("drop %T: %w", model, err)
		}
		log.Info("dropped table", slog.String("model", fmt.Sprintf("%T", model)))
		dropped++
	}
	return dropped, nil
}
