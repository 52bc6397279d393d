package differ

import (
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/yairfalse/idcvault/internal/logger"
	"github.com/yairfalse/idcvault/pkg/types"
)

// Comparator diffs two lists of one resource kind. Resources are matched by
// identity key; unmatched keys become created or deleted changes and matched
// keys are checked attribute by attribute.
type Comparator[T types.Resource] struct {
	resourceType   string
	identityFields []string
	keyFunc        func(T) (string, bool)
	nameFunc       func(T) string
	detector       *AttributeDetector
	logger         logger.Logger
}

// UserComparator compares users by user_id
type UserComparator = Comparator[types.UserData]

// GroupComparator compares groups by group_id
type GroupComparator = Comparator[types.GroupData]

// PermissionSetComparator compares permission sets by ARN
type PermissionSetComparator = Comparator[types.PermissionSetData]

// AssignmentComparator compares assignments by composite key
type AssignmentComparator = Comparator[types.AssignmentData]

// NewUserComparator creates the comparator for users
func NewUserComparator(detector *AttributeDetector, log logger.Logger) *UserComparator {
	return &UserComparator{
		resourceType:   types.KindUsers,
		identityFields: []string{"user_id"},
		keyFunc: func(u types.UserData) (string, bool) {
			return u.UserID, nonBlank(u.UserID)
		},
		nameFunc: func(u types.UserData) string { return u.UserName },
		detector: detectorOrDefault(detector),
		logger:   loggerOrDiscard(log),
	}
}

// NewGroupComparator creates the comparator for groups
func NewGroupComparator(detector *AttributeDetector, log logger.Logger) *GroupComparator {
	return &GroupComparator{
		resourceType:   types.KindGroups,
		identityFields: []string{"group_id"},
		keyFunc: func(g types.GroupData) (string, bool) {
			return g.GroupID, nonBlank(g.GroupID)
		},
		nameFunc: func(g types.GroupData) string { return g.DisplayName },
		detector: detectorOrDefault(detector),
		logger:   loggerOrDiscard(log),
	}
}

// NewPermissionSetComparator creates the comparator for permission sets
func NewPermissionSetComparator(detector *AttributeDetector, log logger.Logger) *PermissionSetComparator {
	return &PermissionSetComparator{
		resourceType:   types.KindPermissionSets,
		identityFields: []string{"permission_set_arn"},
		keyFunc: func(p types.PermissionSetData) (string, bool) {
			return p.PermissionSetARN, nonBlank(p.PermissionSetARN)
		},
		nameFunc: func(p types.PermissionSetData) string { return p.Name },
		detector: detectorOrDefault(detector),
		logger:   loggerOrDiscard(log),
	}
}

// NewAssignmentComparator creates the comparator for account assignments.
// Every assignment field is part of the key, so two assignments with the
// same key never differ and assignments are only created or deleted.
func NewAssignmentComparator(detector *AttributeDetector, log logger.Logger) *AssignmentComparator {
	return &AssignmentComparator{
		resourceType:   types.KindAssignments,
		identityFields: []string{"account_id", "permission_set_arn", "principal_type", "principal_id"},
		keyFunc:        AssignmentKey,
		nameFunc:       func(a types.AssignmentData) string { return a.Principal() },
		detector:       detectorOrDefault(detector),
		logger:         loggerOrDiscard(log),
	}
}

// AssignmentKey returns the composite key of a, or false when any of its
// parts is empty
func AssignmentKey(a types.AssignmentData) (string, bool) {
	for _, part := range []string{a.AccountID, a.PermissionSetARN, a.PrincipalType, a.PrincipalID} {
		if !nonBlank(part) {
			return "", false
		}
	}
	return a.Key(), true
}

func nonBlank(s string) bool {
	return strings.TrimSpace(s) != ""
}

// ResourceType returns the kind literal this comparator produces
func (c *Comparator[T]) ResourceType() string {
	return c.resourceType
}

// Compare diffs source (before) against target (after). Nil lists are empty.
// Changes in each bucket are sorted by resource ID.
func (c *Comparator[T]) Compare(source, target []T) ResourceDiff {
	diff := NewResourceDiff(c.resourceType)

	sourceMap := c.index(source, "source")
	targetMap := c.index(target, "target")

	sourceKeys := lo.Keys(sourceMap)
	targetKeys := lo.Keys(targetMap)

	deletedKeys, createdKeys := lo.Difference(sourceKeys, targetKeys)
	commonKeys := lo.Intersect(sourceKeys, targetKeys)

	sort.Strings(createdKeys)
	sort.Strings(deletedKeys)
	sort.Strings(commonKeys)

	for _, key := range createdKeys {
		resource := targetMap[key]
		diff.Created = append(diff.Created, ResourceChange{
			ChangeType:       ChangeCreated,
			ResourceType:     c.resourceType,
			ResourceID:       key,
			ResourceName:     c.nameFunc(resource),
			AfterValue:       resource.ToMap(),
			AttributeChanges: []AttributeChange{},
		})
	}

	for _, key := range deletedKeys {
		resource := sourceMap[key]
		diff.Deleted = append(diff.Deleted, ResourceChange{
			ChangeType:       ChangeDeleted,
			ResourceType:     c.resourceType,
			ResourceID:       key,
			ResourceName:     c.nameFunc(resource),
			BeforeValue:      resource.ToMap(),
			AttributeChanges: []AttributeChange{},
		})
	}

	for _, key := range commonKeys {
		before := sourceMap[key]
		after := targetMap[key]

		beforeMap := before.ToMap()
		afterMap := after.ToMap()
		changes := c.detector.DetectMaps(beforeMap, afterMap, c.identityFields...)
		if len(changes) == 0 {
			continue
		}

		diff.Modified = append(diff.Modified, ResourceChange{
			ChangeType:       ChangeModified,
			ResourceType:     c.resourceType,
			ResourceID:       key,
			ResourceName:     c.nameFunc(after),
			BeforeValue:      beforeMap,
			AfterValue:       afterMap,
			AttributeChanges: changes,
		})
	}

	c.logger.WithFields(map[string]interface{}{
		"resource_type": c.resourceType,
		"created":       len(diff.Created),
		"deleted":       len(diff.Deleted),
		"modified":      len(diff.Modified),
	}).Debug("compared resources")

	return diff
}

// index maps identity key to resource. Resources without a key are dropped
// and a repeated key keeps the last resource seen.
func (c *Comparator[T]) index(resources []T, side string) map[string]T {
	indexed := make(map[string]T, len(resources))
	for i, resource := range resources {
		key, ok := c.keyFunc(resource)
		if !ok {
			c.logger.WithFields(map[string]interface{}{
				"resource_type": c.resourceType,
				"side":          side,
				"index":         i,
			}).Debug("skipping resource without identity key")
			continue
		}
		if _, dup := indexed[key]; dup {
			c.logger.WithFields(map[string]interface{}{
				"resource_type": c.resourceType,
				"side":          side,
				"key":           key,
			}).Debug("duplicate identity key, keeping last")
		}
		indexed[key] = resource
	}
	return indexed
}

func detectorOrDefault(d *AttributeDetector) *AttributeDetector {
	if d == nil {
		return NewAttributeDetector()
	}
	return d
}

func loggerOrDiscard(l logger.Logger) logger.Logger {
	if l == nil {
		return logger.NewDiscard()
	}
	return l
}
