package storage

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/yairfalse/idcvault/internal/differ"
	"github.com/yairfalse/idcvault/pkg/types"
)

// ErrNotFound is returned when a backup or diff does not exist
var ErrNotFound = errors.New("not found")

// Storage defines the interface for persisting backups and diff results
type Storage interface {
	// Backup operations
	SaveBackup(ctx context.Context, backup *types.BackupData) error
	LoadBackup(ctx context.Context, id string) (*types.BackupData, error)
	ListBackups(ctx context.Context) ([]BackupInfo, error)
	DeleteBackup(ctx context.Context, id string) error

	// Diff operations
	SaveDiff(ctx context.Context, result *differ.DiffResult) error
	LoadDiff(ctx context.Context, sourceID, targetID string) (*differ.DiffResult, error)
}

// BackupInfo provides metadata about a stored backup
type BackupInfo struct {
	ID              string         `json:"id" yaml:"id"`
	Timestamp       time.Time      `json:"timestamp" yaml:"timestamp"`
	InstanceARN     string         `json:"instance_arn,omitempty" yaml:"instance_arn,omitempty"`
	IdentityStoreID string         `json:"identity_store_id,omitempty" yaml:"identity_store_id,omitempty"`
	ResourceCounts  map[string]int `json:"resource_counts,omitempty" yaml:"resource_counts,omitempty"`
	Location        string         `json:"location" yaml:"location"`
	Size            int64          `json:"size" yaml:"size"`
}

// Config holds storage configuration
type Config struct {
	Backend  string
	BaseDir  string
	Bucket   string
	Prefix   string
	S3Client S3API
}

func infoFromBackup(b *types.BackupData, location string, size int64) BackupInfo {
	info := BackupInfo{
		ID:             b.ID(),
		ResourceCounts: b.Counts(),
		Location:       location,
		Size:           size,
	}
	if b.Metadata != nil {
		info.Timestamp = b.Metadata.Timestamp
		info.InstanceARN = b.Metadata.InstanceARN
		info.IdentityStoreID = b.Metadata.IdentityStoreID
	}
	return info
}

// sortInfos orders backups newest first, then by ID
func sortInfos(infos []BackupInfo) {
	sort.Slice(infos, func(i, j int) bool {
		if !infos[i].Timestamp.Equal(infos[j].Timestamp) {
			return infos[i].Timestamp.After(infos[j].Timestamp)
		}
		return infos[i].ID < infos[j].ID
	})
}
