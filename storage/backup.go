package storage

import (
	"context"
	"io"
)

// Backup streams a badger backup of everything written after the `since`
// version into w. Returns the version to pass as `since` on the next
// incremental backup. since=0 means a full backup.
func (s *BadgerStorage) Backup(ctx context.Context, w io.Writer, since uint64) (uint64, error) {
	return s.db.Backup(w, since)
}

// Load restores a backup stream previously produced by Backup into the store.
func (s *BadgerStorage) Load(ctx context.Context, r io.Reader) error {
	return s.db.Load(r, 16)
}
