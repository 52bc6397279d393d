package storage

import (
	"context"

	"github.com/yairfalse/idcvault/internal/cache"
	"github.com/yairfalse/idcvault/pkg/types"
)

const listKey = "backups"

// CachedStorage memoizes backup reads of another Storage.
// Writes and deletes go through and invalidate the affected entries.
type CachedStorage struct {
	Storage
	backups *cache.Memory[*types.BackupData]
	lists   *cache.Memory[[]BackupInfo]
}

// NewCachedStorage wraps inner with a read-through cache
func NewCachedStorage(inner Storage, config cache.Config) *CachedStorage {
	return &CachedStorage{
		Storage: inner,
		backups: cache.NewMemory[*types.BackupData](config),
		lists:   cache.NewMemory[[]BackupInfo](config),
	}
}

// SaveBackup stores the backup and caches it
func (s *CachedStorage) SaveBackup(ctx context.Context, backup *types.BackupData) error {
	if err := s.Storage.SaveBackup(ctx, backup); err != nil {
		return err
	}
	s.lists.Delete(listKey)
	s.backups.Set(cache.GenerateKey("backup", backup.ID()), backup, 0)
	return nil
}

// LoadBackup returns a cached backup or loads it from the wrapped storage
func (s *CachedStorage) LoadBackup(ctx context.Context, id string) (*types.BackupData, error) {
	key := cache.GenerateKey("backup", id)
	if backup, ok := s.backups.Get(key); ok {
		return backup, nil
	}

	backup, err := s.Storage.LoadBackup(ctx, id)
	if err != nil {
		return nil, err
	}
	s.backups.Set(key, backup, 0)
	return backup, nil
}

// ListBackups returns a copy of the cached listing or lists the wrapped storage
func (s *CachedStorage) ListBackups(ctx context.Context) ([]BackupInfo, error) {
	if infos, ok := s.lists.Get(listKey); ok {
		return append([]BackupInfo(nil), infos...), nil
	}

	infos, err := s.Storage.ListBackups(ctx)
	if err != nil {
		return nil, err
	}
	s.lists.Set(listKey, infos, 0)
	return append([]BackupInfo(nil), infos...), nil
}

// DeleteBackup deletes the backup and drops it from the cache
func (s *CachedStorage) DeleteBackup(ctx context.Context, id string) error {
	s.backups.Delete(cache.GenerateKey("backup", id))
	s.lists.Delete(listKey)
	return s.Storage.DeleteBackup(ctx, id)
}

// Stats returns hit and miss counts of the backup cache
func (s *CachedStorage) Stats() cache.Stats {
	return s.backups.Stats()
}
