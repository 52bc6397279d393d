package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yairfalse/idcvault/internal/cache"
	"github.com/yairfalse/idcvault/pkg/types"
)

// countingStorage records calls reaching the wrapped storage
type countingStorage struct {
	Storage
	loads int
	lists int
}

func (c *countingStorage) LoadBackup(ctx context.Context, id string) (*types.BackupData, error) {
	c.loads++
	return c.Storage.LoadBackup(ctx, id)
}

func (c *countingStorage) ListBackups(ctx context.Context) ([]BackupInfo, error) {
	c.lists++
	return c.Storage.ListBackups(ctx)
}

func newCountingStorage(t *testing.T) *countingStorage {
	t.Helper()
	local, err := NewLocalStorage(Config{BaseDir: t.TempDir()})
	require.NoError(t, err)
	return &countingStorage{Storage: local}
}

func TestCachedStorage_LoadBackup(t *testing.T) {
	ctx := context.Background()
	inner := newCountingStorage(t)
	require.NoError(t, inner.SaveBackup(ctx, &types.BackupData{Metadata: types.NewBackupMetadata("b1", time.Now())}))

	st := NewCachedStorage(inner, cache.DefaultConfig())

	for i := 0; i < 3; i++ {
		backup, err := st.LoadBackup(ctx, "b1")
		require.NoError(t, err)
		assert.Equal(t, "b1", backup.ID())
	}
	assert.Equal(t, 1, inner.loads)
	assert.Equal(t, int64(2), st.Stats().Hits)

	_, err := st.LoadBackup(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCachedStorage_ListInvalidation(t *testing.T) {
	ctx := context.Background()
	inner := newCountingStorage(t)
	st := NewCachedStorage(inner, cache.DefaultConfig())

	infos, err := st.ListBackups(ctx)
	require.NoError(t, err)
	assert.Empty(t, infos)
	_, err = st.ListBackups(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.lists)

	require.NoError(t, st.SaveBackup(ctx, &types.BackupData{Metadata: types.NewBackupMetadata("b1", time.Now())}))
	infos, err = st.ListBackups(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, 2, inner.lists)

	// Saved backups are served from cache
	_, err = st.LoadBackup(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, 0, inner.loads)

	require.NoError(t, st.DeleteBackup(ctx, "b1"))
	infos, err = st.ListBackups(ctx)
	require.NoError(t, err)
	assert.Empty(t, infos)

	_, err = st.LoadBackup(ctx, "b1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCachedStorage_ListReturnsCopy(t *testing.T) {
	ctx := context.Background()
	inner := newCountingStorage(t)
	require.NoError(t, inner.SaveBackup(ctx, &types.BackupData{Metadata: types.NewBackupMetadata("b1", time.Now())}))
	st := NewCachedStorage(inner, cache.DefaultConfig())

	infos, err := st.ListBackups(ctx)
	require.NoError(t, err)
	infos[0].ID = "changed"

	again, err := st.ListBackups(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b1", again[0].ID)
}
