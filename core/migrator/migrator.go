package migrator

import (
	"fmt"
	"sync"
	"time"

	"github.com/swisspipe/swisspipe/core/backup"
	"github.com/swisspipe/swisspipe/pkg/logger"
	"github.com/swisspipe/swisspipe/storage"
)

// MigrationFunc performs one storage migration and returns the number of
// records it touched.
type MigrationFunc func(db storage.Storage) (int, error)

type Migration struct {
	Name     string
	Function MigrationFunc
}

// Migrator runs pending storage migrations exactly once each. Applied
// migrations are recorded under migration:<name> keys. When anything is
// pending a full backup is taken first.
type Migrator struct {
	db         storage.Storage
	migrations []Migration
	backup     *backup.Service
	logger     logger.Logger
	mu         sync.Mutex
}

func NewMigrator(db storage.Storage, backupService *backup.Service, migrations []Migration, l logger.Logger) *Migrator {
	return &Migrator{
		db:         db,
		migrations: migrations,
		backup:     backupService,
		logger:     logger.EnsureLogger(l),
	}
}

func (m *Migrator) Register(name string, fn MigrationFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.migrations = append(m.migrations, Migration{Name: name, Function: fn})
}

func markerKey(name string) []byte {
	return []byte(fmt.Sprintf("migration:%s", name))
}

func (m *Migrator) hasPending() bool {
	for _, migration := range m.migrations {
		exists, err := m.db.Exist(markerKey(migration.Name))
		if err != nil || !exists {
			return true
		}
	}
	return false
}

// Run applies every migration that has not been applied yet, in order.
func (m *Migrator) Run() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.backup != nil && m.hasPending() {
		m.logger.Info("pending migrations found, creating backup first")
		file, err := m.backup.PerformBackup()
		if err != nil {
			return fmt.Errorf("failed to back up before migrations: %w", err)
		}
		m.logger.Info("pre-migration backup written", "file", file)
	}

	for _, migration := range m.migrations {
		key := markerKey(migration.Name)

		exists, err := m.db.Exist(key)
		if err == nil && exists {
			continue
		}

		m.logger.Info("running migration", "name", migration.Name)
		updated, err := migration.Function(m.db)
		if err != nil {
			return fmt.Errorf("migration %s failed: %w", migration.Name, err)
		}
		m.logger.Info("migration completed", "name", migration.Name, "records", updated)

		marker := fmt.Sprintf("records=%d,ts=%d", updated, time.Now().UnixMicro())
		if err := m.db.Set(key, []byte(marker)); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", migration.Name, err)
		}
	}

	return nil
}
