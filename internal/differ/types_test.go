package differ

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yairfalse/idcvault/pkg/types"
)

func TestChangeType_String(t *testing.T) {
	assert.Equal(t, "created", ChangeCreated.String())
	assert.Equal(t, "deleted", ChangeDeleted.String())
	assert.Equal(t, "modified", ChangeModified.String())
	assert.Equal(t, "ChangeType(9)", ChangeType(9).String())
}

func TestParseChangeType(t *testing.T) {
	for _, ct := range []ChangeType{ChangeCreated, ChangeDeleted, ChangeModified} {
		parsed, err := ParseChangeType(ct.String())
		require.NoError(t, err)
		assert.Equal(t, ct, parsed)
	}

	_, err := ParseChangeType("renamed")
	assert.Error(t, err)
}

func TestChangeType_JSON(t *testing.T) {
	data, err := json.Marshal(ChangeModified)
	require.NoError(t, err)
	assert.Equal(t, `"modified"`, string(data))

	var ct ChangeType
	require.NoError(t, json.Unmarshal([]byte(`"deleted"`), &ct))
	assert.Equal(t, ChangeDeleted, ct)

	_, err = json.Marshal(ChangeType(0))
	assert.Error(t, err)
}

func TestNewResourceChange(t *testing.T) {
	tests := []struct {
		name    string
		change  ResourceChange
		wantErr bool
	}{
		{
			name:   "valid",
			change: ResourceChange{ChangeType: ChangeCreated, ResourceType: "users", ResourceID: "u1"},
		},
		{
			name:    "empty resource id",
			change:  ResourceChange{ChangeType: ChangeCreated, ResourceType: "users"},
			wantErr: true,
		},
		{
			name:    "empty resource type",
			change:  ResourceChange{ChangeType: ChangeCreated, ResourceID: "u1"},
			wantErr: true,
		},
		{
			name:    "unknown change type",
			change:  ResourceChange{ResourceType: "users", ResourceID: "u1"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc, err := NewResourceChange(tt.change)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidChange)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, rc.AttributeChanges)
		})
	}
}

func TestNewDiffSummary(t *testing.T) {
	_, err := NewDiffSummary(-1, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidSummary)

	summary, err := NewDiffSummary(0, nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, summary.ChangesByType)
	assert.NotNil(t, summary.ChangesByAction)
}

func TestSummarize(t *testing.T) {
	users := NewResourceDiff(types.KindUsers)
	users.Created = append(users.Created, ResourceChange{ChangeType: ChangeCreated, ResourceType: types.KindUsers, ResourceID: "u1"})
	users.Modified = append(users.Modified, ResourceChange{ChangeType: ChangeModified, ResourceType: types.KindUsers, ResourceID: "u2"})
	groups := NewResourceDiff(types.KindGroups)
	groups.Deleted = append(groups.Deleted, ResourceChange{ChangeType: ChangeDeleted, ResourceType: types.KindGroups, ResourceID: "g1"})

	summary := Summarize(users, groups)

	assert.Equal(t, 3, summary.TotalChanges)
	assert.Equal(t, map[string]int{types.KindUsers: 2, types.KindGroups: 1}, summary.ChangesByType)
	assert.Equal(t, map[string]int{ActionCreated: 1, ActionDeleted: 1, ActionModified: 1}, summary.ChangesByAction)
}

func sampleResult(t *testing.T) *DiffResult {
	t.Helper()

	users := NewResourceDiff(types.KindUsers)
	users.Created = []ResourceChange{{
		ChangeType:       ChangeCreated,
		ResourceType:     types.KindUsers,
		ResourceID:       "u3",
		ResourceName:     "charlie",
		AfterValue:       types.UserData{UserID: "u3", UserName: "charlie"}.ToMap(),
		AttributeChanges: []AttributeChange{},
	}}
	users.Modified = []ResourceChange{{
		ChangeType:   ChangeModified,
		ResourceType: types.KindUsers,
		ResourceID:   "u1",
		ResourceName: "alice",
		BeforeValue:  map[string]any{"email": "a@old.com"},
		AfterValue:   map[string]any{"email": "a@new.com"},
		AttributeChanges: []AttributeChange{
			{AttributeName: "email", BeforeValue: "a@old.com", AfterValue: "a@new.com"},
		},
	}}

	groups := NewResourceDiff(types.KindGroups)
	groups.Deleted = []ResourceChange{{
		ChangeType:       ChangeDeleted,
		ResourceType:     types.KindGroups,
		ResourceID:       "g1",
		ResourceName:     "admins",
		BeforeValue:      types.GroupData{GroupID: "g1", DisplayName: "admins", Members: []string{"u1"}}.ToMap(),
		AttributeChanges: []AttributeChange{},
	}}

	result, err := NewDiffResult(DiffResult{
		SourceBackupID:  "backup-1",
		TargetBackupID:  "backup-2",
		SourceTimestamp: time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC),
		TargetTimestamp: time.Date(2024, 1, 2, 10, 30, 0, 123000000, time.UTC),
		UserDiff:        users,
		GroupDiff:       groups,
	})
	require.NoError(t, err)
	return result
}

func TestNewDiffResult_Validation(t *testing.T) {
	_, err := NewDiffResult(DiffResult{TargetBackupID: "t"})
	assert.ErrorIs(t, err, ErrInvalidResult)

	_, err = NewDiffResult(DiffResult{SourceBackupID: "s", TargetBackupID: " "})
	assert.ErrorIs(t, err, ErrInvalidResult)

	bad := NewResourceDiff(types.KindUsers)
	bad.Created = []ResourceChange{{ChangeType: ChangeCreated, ResourceType: types.KindUsers}}
	_, err = NewDiffResult(DiffResult{SourceBackupID: "s", TargetBackupID: "t", UserDiff: bad})
	assert.ErrorIs(t, err, ErrInvalidChange)
}

func TestNewDiffResult_CorrectsResourceTypes(t *testing.T) {
	mislabelled := NewResourceDiff(types.KindUsers)

	result, err := NewDiffResult(DiffResult{
		SourceBackupID:    "s",
		TargetBackupID:    "t",
		UserDiff:          ResourceDiff{ResourceType: "wrong"},
		GroupDiff:         mislabelled,
		PermissionSetDiff: ResourceDiff{},
		AssignmentDiff:    ResourceDiff{ResourceType: types.KindUsers},
	})
	require.NoError(t, err)

	assert.Equal(t, types.KindUsers, result.UserDiff.ResourceType)
	assert.Equal(t, types.KindGroups, result.GroupDiff.ResourceType)
	assert.Equal(t, types.KindPermissionSets, result.PermissionSetDiff.ResourceType)
	assert.Equal(t, types.KindAssignments, result.AssignmentDiff.ResourceType)
	assert.NotNil(t, result.UserDiff.Created)
}

func TestNewDiffResult_RecomputesSummary(t *testing.T) {
	users := NewResourceDiff(types.KindUsers)
	users.Created = []ResourceChange{{ChangeType: ChangeCreated, ResourceType: types.KindUsers, ResourceID: "u1"}}

	result, err := NewDiffResult(DiffResult{
		SourceBackupID: "s",
		TargetBackupID: "t",
		UserDiff:       users,
		Summary:        DiffSummary{TotalChanges: 42, ChangesByType: map[string]int{"bogus": 42}},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Summary.TotalChanges)
	assert.NotContains(t, result.Summary.ChangesByType, "bogus")
	assert.Equal(t, 1, result.Summary.ChangesByType[types.KindUsers])
}

func TestDiffResult_SummaryConsistency(t *testing.T) {
	result := sampleResult(t)

	total := 0
	for _, d := range result.Diffs() {
		total += d.TotalChanges()
	}
	assert.Equal(t, total, result.Summary.TotalChanges)

	actions := result.Summary.ChangesByAction
	assert.Equal(t, result.Summary.TotalChanges, actions[ActionCreated]+actions[ActionDeleted]+actions[ActionModified])
	assert.True(t, result.HasChanges())
}

func TestDiffResult_ToMap(t *testing.T) {
	m, err := sampleResult(t).ToMap()
	require.NoError(t, err)

	assert.Equal(t, "backup-1", m["source_backup_id"])
	assert.Equal(t, "2024-01-01T10:30:00Z", m["source_timestamp"])
	assert.Equal(t, "2024-01-02T10:30:00.123Z", m["target_timestamp"])

	userDiff := m["user_diff"].(map[string]any)
	assert.Equal(t, "users", userDiff["resource_type"])
	created := userDiff["created"].([]any)[0].(map[string]any)
	assert.Equal(t, "created", created["change_type"])
	assert.Nil(t, created["before_value"])

	modified := userDiff["modified"].([]any)[0].(map[string]any)
	assert.Equal(t, "modified", modified["change_type"])
	attr := modified["attribute_changes"].([]any)[0].(map[string]any)
	assert.Equal(t, "email", attr["attribute_name"])

	summary := m["summary"].(map[string]any)
	assert.Equal(t, float64(3), summary["total_changes"])
}

func TestDiffResult_MapRoundTrip(t *testing.T) {
	original := sampleResult(t)

	m, err := original.ToMap()
	require.NoError(t, err)

	rebuilt, err := DiffResultFromMap(m)
	require.NoError(t, err)

	assert.Equal(t, original.SourceBackupID, rebuilt.SourceBackupID)
	assert.Equal(t, original.TargetBackupID, rebuilt.TargetBackupID)
	assert.True(t, original.SourceTimestamp.Equal(rebuilt.SourceTimestamp))
	assert.True(t, original.TargetTimestamp.Equal(rebuilt.TargetTimestamp))
	assert.Equal(t, original.Summary, rebuilt.Summary)
	assert.Equal(t, ChangeModified, rebuilt.UserDiff.Modified[0].ChangeType)
	assert.Equal(t, "charlie", rebuilt.UserDiff.Created[0].ResourceName)

	again, err := rebuilt.ToMap()
	require.NoError(t, err)
	assert.Equal(t, m, again)
}

func TestDiffResultFromMap_Invalid(t *testing.T) {
	_, err := DiffResultFromMap(nil)
	assert.ErrorIs(t, err, ErrInvalidResult)

	_, err = DiffResultFromMap(map[string]any{"source_backup_id": "s"})
	assert.ErrorIs(t, err, ErrInvalidResult)

	_, err = DiffResultFromMap(map[string]any{
		"source_backup_id": "s",
		"target_backup_id": "t",
		"user_diff": map[string]any{
			"created": []any{map[string]any{"change_type": "renamed", "resource_id": "u1", "resource_type": "users"}},
		},
	})
	assert.ErrorIs(t, err, ErrInvalidResult)
}
