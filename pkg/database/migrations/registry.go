package migrations

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gorm.io/gorm"
)

// AppliedMigration records a registry migration that has already run.
type AppliedMigration struct {
	Name      string    `gorm:"type:varchar(120);primaryKey"`
	AppliedAt time.Time `gorm:"not null"`
}

// TableName overrides the default table name.
func (AppliedMigration) TableName() string { return "schema_migrations" }

type namedMigration struct {
	name string
	fn   func(*gorm.DB) error
}

var (
	registryMu sync.RWMutex
	registry   []namedMigration
)

// Register adds a migration function to the registry in FIFO order.
// Registering the same name twice is ignored.
func Register(name string, fn func(*gorm.DB) error) {
	registryMu.Lock()
	defer registryMu.Unlock()

	for _, existing := range registry {
		if existing.name == name {
			return
		}
	}
	registry = append(registry, namedMigration{name: name, fn: fn})
}

// Run executes registered migrations that are not yet recorded in schema_migrations.
// Each migration runs in its own transaction together with its bookkeeping row.
func Run(db *gorm.DB, log *slog.Logger) error {
	registryMu.RLock()
	pending := make([]namedMigration, len(registry))
	copy(pending, registry)
	registryMu.RUnlock()

	if len(pending) == 0 {
		if log != nil {
			log.Info("no database migrations registered")
		}
		return nil
	}

	if err := db.AutoMigrate(&AppliedMigration{}); err != nil {
		return fmt.Errorf("prepare schema_migrations: %w", err)
	}

	for _, migration := range pending {
		var applied AppliedMigration
		err := db.First(&applied, "name = ?", migration.name).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("check migration %s: %w", migration.name, err)
		}

		if log != nil {
			log.Info("running migration", slog.String("name", migration.name))
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			if err := migration.fn(tx); err != nil {
				return err
			}
			return tx.Create(&AppliedMigration{Name: migration.name, AppliedAt: time.Now().UTC()}).Error
		})
		if err != nil {
			return fmt.Errorf("migration %s failed: %w", migration.name, err)
		}

		if log != nil {
			log.Info("migration completed", slog.String("name", migration.name))
		}
	}

	return nil
}

func reset() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = nil
}
