package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/swisspipe/swisspipe/pkg/logger"
	"github.com/swisspipe/swisspipe/storage"
)

// Service writes periodic full snapshots of the variable store to disk.
// Each run goes into its own timestamped directory under backupDir.
type Service struct {
	logger    logger.Logger
	db        storage.Storage
	backupDir string

	interval time.Duration
	running  bool
	stop     chan struct{}
}

func NewService(l logger.Logger, db storage.Storage, backupDir string) *Service {
	return &Service{
		logger:    logger.EnsureLogger(l),
		db:        db,
		backupDir: backupDir,
		stop:      make(chan struct{}),
	}
}

func (s *Service) StartPeriodicBackup(interval time.Duration) error {
	if s.running {
		return fmt.Errorf("backup service already running")
	}

	if err := os.MkdirAll(s.backupDir, 0755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	s.interval = interval
	s.running = true

	go s.loop()

	s.logger.Info("started periodic backup", "interval", interval, "dir", s.backupDir)
	return nil
}

func (s *Service) StopPeriodicBackup() {
	if !s.running {
		return
	}

	s.running = false
	close(s.stop)
	s.logger.Info("stopped periodic backup")
}

func (s *Service) loop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if file, err := s.PerformBackup(); err != nil {
				s.logger.Error("periodic backup failed", "error", err)
			} else {
				s.logger.Info("periodic backup completed", "file", file)
			}
		case <-s.stop:
			return
		}
	}
}

// PerformBackup writes one full backup and returns the file path.
func (s *Service) PerformBackup() (string, error) {
	timestamp := time.Now().Format("2006-01-02-15-04-05")
	dir := filepath.Join(s.backupDir, timestamp)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	file := filepath.Join(dir, "full-backup.db")
	f, err := os.Create(file)
	if err != nil {
		return "", fmt.Errorf("failed to create backup file: %w", err)
	}
	defer f.Close()

	// since=0 requests a full snapshot, not an incremental one
	if _, err = s.db.Backup(context.Background(), f, 0); err != nil {
		return "", fmt.Errorf("backup failed: %w", err)
	}

	return file, nil
}

// Restore loads a backup file into the store. The store should be empty,
// badger applies the backup on top of whatever is already there.
func (s *Service) Restore(backupFile string) error {
	f, err := os.Open(backupFile)
	if err != nil {
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer f.Close()

	if err := s.db.Load(context.Background(), f); err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}

	s.logger.Info("restored from backup", "file", backupFile)
	return nil
}
