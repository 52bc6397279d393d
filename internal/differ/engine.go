package differ

import (
	"fmt"
	"time"

	"github.com/yairfalse/idcvault/internal/logger"
	"github.com/yairfalse/idcvault/pkg/types"
)

// Engine compares two backups across every resource kind. It holds no
// per-call state and can be reused.
type Engine struct {
	users          *UserComparator
	groups         *GroupComparator
	permissionSets *PermissionSetComparator
	assignments    *AssignmentComparator
	logger         logger.Logger
}

type engineOptions struct {
	logger           logger.Logger
	membershipFields []string
}

// Option configures an Engine
type Option func(*engineOptions)

// WithLogger sets the logger used by the engine and its comparators
func WithLogger(l logger.Logger) Option {
	return func(o *engineOptions) {
		o.logger = l
	}
}

// WithMembershipFields overrides the attributes compared as sets
func WithMembershipFields(fields ...string) Option {
	return func(o *engineOptions) {
		o.membershipFields = fields
	}
}

// NewEngine creates an engine with one comparator per resource kind
func NewEngine(opts ...Option) *Engine {
	o := engineOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	log := loggerOrDiscard(o.logger).WithField("component", "differ")
	detector := NewAttributeDetector(o.membershipFields...)

	return &Engine{
		users:          NewUserComparator(detector, log),
		groups:         NewGroupComparator(detector, log),
		permissionSets: NewPermissionSetComparator(detector, log),
		assignments:    NewAssignmentComparator(detector, log),
		logger:         log,
	}
}

// ComputeDiff compares source (before) with target (after). Both backups and
// their metadata are required; nothing is compared when either is missing.
func (e *Engine) ComputeDiff(source, target *types.BackupData) (*DiffResult, error) {
	if source == nil || target == nil {
		return nil, ErrSnapshotRequired
	}
	if source.Metadata == nil || target.Metadata == nil {
		return nil, ErrMetadataRequired
	}

	startTime := time.Now()

	userDiff := e.users.Compare(source.Users, target.Users)
	groupDiff := e.groups.Compare(source.Groups, target.Groups)
	permissionSetDiff := e.permissionSets.Compare(source.PermissionSets, target.PermissionSets)
	assignmentDiff := e.assignments.Compare(source.Assignments, target.Assignments)

	result, err := NewDiffResult(DiffResult{
		SourceBackupID:    source.Metadata.BackupID,
		TargetBackupID:    target.Metadata.BackupID,
		SourceTimestamp:   source.Metadata.Timestamp,
		TargetTimestamp:   target.Metadata.Timestamp,
		UserDiff:          userDiff,
		GroupDiff:         groupDiff,
		PermissionSetDiff: permissionSetDiff,
		AssignmentDiff:    assignmentDiff,
		Summary:           Summarize(userDiff, groupDiff, permissionSetDiff, assignmentDiff),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build diff result: %w", err)
	}

	e.logger.WithFields(map[string]interface{}{
		"source":        result.SourceBackupID,
		"target":        result.TargetBackupID,
		"total_changes": result.Summary.TotalChanges,
		"duration":      time.Since(startTime).String(),
	}).Debug("computed diff")

	return result, nil
}
