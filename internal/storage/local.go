package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yairfalse/idcvault/internal/differ"
	"github.com/yairfalse/idcvault/pkg/types"
)

// LocalStorage implements the Storage interface using local filesystem
type LocalStorage struct {
	baseDir string
	backups string
	diffs   string
	writer  *AtomicWriter
}

// NewLocalStorage creates a new local storage instance
func NewLocalStorage(config Config) (*LocalStorage, error) {
	if config.BaseDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		config.BaseDir = filepath.Join(homeDir, ".idcvault")
	}

	storage := &LocalStorage{
		baseDir: config.BaseDir,
		backups: filepath.Join(config.BaseDir, "backups"),
		diffs:   filepath.Join(config.BaseDir, "diffs"),
		writer:  NewAtomicWriter(),
	}

	for _, dir := range []string{storage.baseDir, storage.backups, storage.diffs} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return storage, nil
}

// SaveBackup writes a backup to backups/<id>.json
func (s *LocalStorage) SaveBackup(ctx context.Context, backup *types.BackupData) error {
	if backup == nil {
		return fmt.Errorf("invalid backup: nil")
	}
	if err := backup.Validate(); err != nil {
		return fmt.Errorf("invalid backup: %w", err)
	}

	path, err := s.backupPath(backup.ID())
	if err != nil {
		return err
	}

	return s.saveJSON(path, backup)
}

// LoadBackup reads a backup by ID
func (s *LocalStorage) LoadBackup(ctx context.Context, id string) (*types.BackupData, error) {
	path, err := s.backupPath(id)
	if err != nil {
		return nil, err
	}

	var backup types.BackupData
	if err := s.loadJSON(path, &backup); err != nil {
		return nil, fmt.Errorf("backup %s: %w", id, err)
	}
	return &backup, nil
}

// ListBackups returns metadata for all stored backups, newest first
func (s *LocalStorage) ListBackups(ctx context.Context) ([]BackupInfo, error) {
	files, err := os.ReadDir(s.backups)
	if err != nil {
		return nil, fmt.Errorf("failed to read backups directory: %w", err)
	}

	infos := []BackupInfo{}
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := filepath.Join(s.backups, file.Name())
		var backup types.BackupData
		if err := s.loadJSON(path, &backup); err != nil {
			continue // skip unreadable files
		}

		var size int64
		if fi, err := file.Info(); err == nil {
			size = fi.Size()
		}
		infos = append(infos, infoFromBackup(&backup, path, size))
	}

	sortInfos(infos)
	return infos, nil
}

// DeleteBackup removes a stored backup
func (s *LocalStorage) DeleteBackup(ctx context.Context, id string) error {
	path, err := s.backupPath(id)
	if err != nil {
		return err
	}

	if err := s.writer.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("backup %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("failed to delete backup %s: %w", id, err)
	}
	return nil
}

// SaveDiff writes a diff result to diffs/<source>__<target>.json
func (s *LocalStorage) SaveDiff(ctx context.Context, result *differ.DiffResult) error {
	if result == nil {
		return fmt.Errorf("invalid diff: nil")
	}

	name, err := diffName(result.SourceBackupID, result.TargetBackupID)
	if err != nil {
		return err
	}

	m, err := result.ToMap()
	if err != nil {
		return fmt.Errorf("failed to encode diff: %w", err)
	}

	return s.saveJSON(filepath.Join(s.diffs, name+".json"), m)
}

// LoadDiff reads the stored diff between two backups
func (s *LocalStorage) LoadDiff(ctx context.Context, sourceID, targetID string) (*differ.DiffResult, error) {
	name, err := diffName(sourceID, targetID)
	if err != nil {
		return nil, err
	}

	var m map[string]any
	if err := s.loadJSON(filepath.Join(s.diffs, name+".json"), &m); err != nil {
		return nil, fmt.Errorf("diff %s: %w", name, err)
	}

	return differ.DiffResultFromMap(m)
}

func (s *LocalStorage) backupPath(id string) (string, error) {
	safe, err := sanitizeID(id)
	if err != nil {
		return "", fmt.Errorf("backup: %w", err)
	}
	return filepath.Join(s.backups, safe+".json"), nil
}

func (s *LocalStorage) saveJSON(path string, data interface{}) error {
	payload, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if err := s.writer.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

func (s *LocalStorage) loadJSON(path string, target interface{}) error {
	data, err := s.writer.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to read file: %w", err)
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	return nil
}
