package types

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// BackupMetadata identifies a backup and describes where it came from
type BackupMetadata struct {
	BackupID        string         `json:"backup_id" yaml:"backup_id"`
	Timestamp       time.Time      `json:"timestamp" yaml:"timestamp"`
	InstanceARN     string         `json:"instance_arn,omitempty" yaml:"instance_arn,omitempty"`
	IdentityStoreID string         `json:"identity_store_id,omitempty" yaml:"identity_store_id,omitempty"`
	Source          string         `json:"source,omitempty" yaml:"source,omitempty"`
	Version         string         `json:"version,omitempty" yaml:"version,omitempty"`
	ResourceCounts  map[string]int `json:"resource_counts,omitempty" yaml:"resource_counts,omitempty"`
}

// NewBackupMetadata creates metadata stamped at ts. An empty id is replaced
// with a generated one.
func NewBackupMetadata(id string, ts time.Time) *BackupMetadata {
	if strings.TrimSpace(id) == "" {
		id = fmt.Sprintf("backup-%d", ts.UnixNano())
	}
	return &BackupMetadata{
		BackupID:  id,
		Timestamp: ts,
	}
}

// BackupData is a point-in-time capture of an Identity Center directory.
// Any resource list may be nil when the backup did not include that kind.
type BackupData struct {
	Metadata       *BackupMetadata     `json:"metadata" yaml:"metadata"`
	Users          []UserData          `json:"users,omitempty" yaml:"users,omitempty"`
	Groups         []GroupData         `json:"groups,omitempty" yaml:"groups,omitempty"`
	PermissionSets []PermissionSetData `json:"permission_sets,omitempty" yaml:"permission_sets,omitempty"`
	Assignments    []AssignmentData    `json:"assignments,omitempty" yaml:"assignments,omitempty"`
}

// Validate checks that the backup can be stored and compared
func (b *BackupData) Validate() error {
	if b.Metadata == nil {
		return errors.New("backup metadata is required")
	}
	if strings.TrimSpace(b.Metadata.BackupID) == "" {
		return errors.New("backup ID is required")
	}
	if b.Metadata.Timestamp.IsZero() {
		return errors.New("backup timestamp is required")
	}
	return nil
}

// Counts returns the number of resources of each kind
func (b *BackupData) Counts() map[string]int {
	return map[string]int{
		KindUsers:          len(b.Users),
		KindGroups:         len(b.Groups),
		KindPermissionSets: len(b.PermissionSets),
		KindAssignments:    len(b.Assignments),
	}
}

// ResourceCount returns the total number of resources in the backup
func (b *BackupData) ResourceCount() int {
	return len(b.Users) + len(b.Groups) + len(b.PermissionSets) + len(b.Assignments)
}

// ID returns the backup id, or "" when metadata is missing
func (b *BackupData) ID() string {
	if b.Metadata == nil {
		return ""
	}
	return b.Metadata.BackupID
}

// String returns a short description of the backup
func (b *BackupData) String() string {
	if b.Metadata == nil {
		return "backup (no metadata)"
	}
	return "backup " + b.Metadata.BackupID + " (" + b.Metadata.Timestamp.Format(time.RFC3339) + ")"
}
