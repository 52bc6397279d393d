package differ

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yairfalse/idcvault/pkg/types"
)

var (
	// ErrSnapshotRequired is returned when either backup passed to ComputeDiff is nil
	ErrSnapshotRequired = errors.New("both snapshots required")
	// ErrMetadataRequired is returned when either backup lacks metadata
	ErrMetadataRequired = errors.New("metadata required for both")
	// ErrInvalidChange is returned when a ResourceChange fails validation
	ErrInvalidChange = errors.New("invalid resource change")
	// ErrInvalidSummary is returned when a DiffSummary fails validation
	ErrInvalidSummary = errors.New("invalid diff summary")
	// ErrInvalidResult is returned when a DiffResult fails validation
	ErrInvalidResult = errors.New("invalid diff result")
)

// ChangeType classifies a resource-level change
type ChangeType int

const (
	ChangeCreated ChangeType = iota + 1
	ChangeDeleted
	ChangeModified
)

// Action names used in summaries and serialized output
const (
	ActionCreated  = "created"
	ActionDeleted  = "deleted"
	ActionModified = "modified"
)

// ResourceKinds lists the diffed kinds in report order
var ResourceKinds = []string{
	types.KindUsers,
	types.KindGroups,
	types.KindPermissionSets,
	types.KindAssignments,
}

func (c ChangeType) String() string {
	switch c {
	case ChangeCreated:
		return ActionCreated
	case ChangeDeleted:
		return ActionDeleted
	case ChangeModified:
		return ActionModified
	default:
		return fmt.Sprintf("ChangeType(%d)", int(c))
	}
}

// IsValid reports whether c is one of the three defined change types
func (c ChangeType) IsValid() bool {
	return c >= ChangeCreated && c <= ChangeModified
}

// ParseChangeType maps a serialized literal back to a ChangeType
func ParseChangeType(s string) (ChangeType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case ActionCreated:
		return ChangeCreated, nil
	case ActionDeleted:
		return ChangeDeleted, nil
	case ActionModified:
		return ChangeModified, nil
	default:
		return 0, fmt.Errorf("unknown change type %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler
func (c ChangeType) MarshalText() ([]byte, error) {
	if !c.IsValid() {
		return nil, fmt.Errorf("cannot marshal %s", c)
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *ChangeType) UnmarshalText(text []byte) error {
	parsed, err := ParseChangeType(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// AttributeChange records one attribute whose value differs between backups
type AttributeChange struct {
	AttributeName string `json:"attribute_name"`
	BeforeValue   any    `json:"before_value"`
	AfterValue    any    `json:"after_value"`
}

// ResourceChange records a created, deleted or modified resource.
// Created changes carry only AfterValue, deleted only BeforeValue;
// AttributeChanges is populated for modified resources.
type ResourceChange struct {
	ChangeType       ChangeType        `json:"change_type"`
	ResourceType     string            `json:"resource_type"`
	ResourceID       string            `json:"resource_id"`
	ResourceName     string            `json:"resource_name,omitempty"`
	BeforeValue      map[string]any    `json:"before_value"`
	AfterValue       map[string]any    `json:"after_value"`
	AttributeChanges []AttributeChange `json:"attribute_changes"`
}

// NewResourceChange validates rc and returns it with a non-nil AttributeChanges slice
func NewResourceChange(rc ResourceChange) (ResourceChange, error) {
	if err := rc.Validate(); err != nil {
		return ResourceChange{}, err
	}
	if rc.AttributeChanges == nil {
		rc.AttributeChanges = []AttributeChange{}
	}
	return rc, nil
}

// Validate checks the invariants of a resource change
func (rc ResourceChange) Validate() error {
	if !rc.ChangeType.IsValid() {
		return fmt.Errorf("%w: unknown change type %d", ErrInvalidChange, int(rc.ChangeType))
	}
	if strings.TrimSpace(rc.ResourceID) == "" {
		return fmt.Errorf("%w: resource_id is required", ErrInvalidChange)
	}
	if strings.TrimSpace(rc.ResourceType) == "" {
		return fmt.Errorf("%w: resource_type is required", ErrInvalidChange)
	}
	return nil
}

// ResourceDiff is the per-kind bucket of changes from one comparison
type ResourceDiff struct {
	ResourceType string           `json:"resource_type"`
	Created      []ResourceChange `json:"created"`
	Deleted      []ResourceChange `json:"deleted"`
	Modified     []ResourceChange `json:"modified"`
}

// NewResourceDiff returns an empty diff for resourceType
func NewResourceDiff(resourceType string) ResourceDiff {
	return ResourceDiff{
		ResourceType: resourceType,
		Created:      []ResourceChange{},
		Deleted:      []ResourceChange{},
		Modified:     []ResourceChange{},
	}
}

// TotalChanges is the number of created, deleted and modified resources
func (d ResourceDiff) TotalChanges() int {
	return len(d.Created) + len(d.Deleted) + len(d.Modified)
}

// HasChanges reports whether the diff has at least one change
func (d ResourceDiff) HasChanges() bool {
	return d.TotalChanges() > 0
}

// Changes returns every change in created, deleted, modified order
func (d ResourceDiff) Changes() []ResourceChange {
	all := make([]ResourceChange, 0, d.TotalChanges())
	all = append(all, d.Created...)
	all = append(all, d.Deleted...)
	all = append(all, d.Modified...)
	return all
}

func (d ResourceDiff) normalized(resourceType string) ResourceDiff {
	d.ResourceType = resourceType
	if d.Created == nil {
		d.Created = []ResourceChange{}
	}
	if d.Deleted == nil {
		d.Deleted = []ResourceChange{}
	}
	if d.Modified == nil {
		d.Modified = []ResourceChange{}
	}
	return d
}

// DiffSummary aggregates change counts across all kinds
type DiffSummary struct {
	TotalChanges    int            `json:"total_changes"`
	ChangesByType   map[string]int `json:"changes_by_type"`
	ChangesByAction map[string]int `json:"changes_by_action"`
}

// NewDiffSummary validates and builds a summary
func NewDiffSummary(total int, byType, byAction map[string]int) (DiffSummary, error) {
	if total < 0 {
		return DiffSummary{}, fmt.Errorf("%w: total_changes must be non-negative, got %d", ErrInvalidSummary, total)
	}
	if byType == nil {
		byType = map[string]int{}
	}
	if byAction == nil {
		byAction = map[string]int{}
	}
	return DiffSummary{
		TotalChanges:    total,
		ChangesByType:   byType,
		ChangesByAction: byAction,
	}, nil
}

// Summarize computes the summary of the given diffs. Every diff's kind
// appears in ChangesByType and every action in ChangesByAction, even at zero.
func Summarize(diffs ...ResourceDiff) DiffSummary {
	summary := DiffSummary{
		ChangesByType: make(map[string]int, len(diffs)),
		ChangesByAction: map[string]int{
			ActionCreated:  0,
			ActionDeleted:  0,
			ActionModified: 0,
		},
	}

	for _, d := range diffs {
		total := d.TotalChanges()
		summary.TotalChanges += total
		summary.ChangesByType[d.ResourceType] += total
		summary.ChangesByAction[ActionCreated] += len(d.Created)
		summary.ChangesByAction[ActionDeleted] += len(d.Deleted)
		summary.ChangesByAction[ActionModified] += len(d.Modified)
	}

	return summary
}

// DiffResult is the complete outcome of comparing two backups
type DiffResult struct {
	SourceBackupID    string       `json:"source_backup_id"`
	TargetBackupID    string       `json:"target_backup_id"`
	SourceTimestamp   time.Time    `json:"source_timestamp"`
	TargetTimestamp   time.Time    `json:"target_timestamp"`
	UserDiff          ResourceDiff `json:"user_diff"`
	GroupDiff         ResourceDiff `json:"group_diff"`
	PermissionSetDiff ResourceDiff `json:"permission_set_diff"`
	AssignmentDiff    ResourceDiff `json:"assignment_diff"`
	Summary           DiffSummary  `json:"summary"`
}

// NewDiffResult validates r and returns a self-consistent copy. Backup IDs
// must be non-empty. Each embedded diff is relabelled with its kind and the
// summary is always recomputed, whatever the caller supplied.
func NewDiffResult(r DiffResult) (*DiffResult, error) {
	if strings.TrimSpace(r.SourceBackupID) == "" {
		return nil, fmt.Errorf("%w: source_backup_id is required", ErrInvalidResult)
	}
	if strings.TrimSpace(r.TargetBackupID) == "" {
		return nil, fmt.Errorf("%w: target_backup_id is required", ErrInvalidResult)
	}

	r.UserDiff = r.UserDiff.normalized(types.KindUsers)
	r.GroupDiff = r.GroupDiff.normalized(types.KindGroups)
	r.PermissionSetDiff = r.PermissionSetDiff.normalized(types.KindPermissionSets)
	r.AssignmentDiff = r.AssignmentDiff.normalized(types.KindAssignments)

	for _, d := range r.Diffs() {
		for _, change := range d.Changes() {
			if err := change.Validate(); err != nil {
				return nil, fmt.Errorf("%s: %w", d.ResourceType, err)
			}
		}
	}

	summary := Summarize(r.Diffs()...)
	validated, err := NewDiffSummary(summary.TotalChanges, summary.ChangesByType, summary.ChangesByAction)
	if err != nil {
		return nil, err
	}
	r.Summary = validated

	return &r, nil
}

// Diffs returns the four per-kind diffs in report order
func (r *DiffResult) Diffs() []ResourceDiff {
	return []ResourceDiff{r.UserDiff, r.GroupDiff, r.PermissionSetDiff, r.AssignmentDiff}
}

// HasChanges reports whether any kind has changes
func (r *DiffResult) HasChanges() bool {
	return r.UserDiff.HasChanges() ||
		r.GroupDiff.HasChanges() ||
		r.PermissionSetDiff.HasChanges() ||
		r.AssignmentDiff.HasChanges()
}

// ToMap converts the result into plain nested maps and slices. Change types
// become their string literals and timestamps RFC 3339 strings.
func (r *DiffResult) ToMap() (map[string]any, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode diff result: %w", err)
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode diff result: %w", err)
	}
	return m, nil
}

// DiffResultFromMap rebuilds a DiffResult from the output of ToMap. The
// result goes through NewDiffResult, so its invariants hold.
func DiffResultFromMap(m map[string]any) (*DiffResult, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: empty mapping", ErrInvalidResult)
	}

	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode diff mapping: %w", err)
	}

	var r DiffResult
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResult, err)
	}

	return NewDiffResult(r)
}
