package differ

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yairfalse/idcvault/internal/logger"
	"github.com/yairfalse/idcvault/pkg/types"
)

func changeIDs(changes []ResourceChange) []string {
	ids := []string{}
	for _, c := range changes {
		ids = append(ids, c.ResourceID)
	}
	return ids
}

func TestUserComparator_Compare(t *testing.T) {
	comparer := NewUserComparator(nil, nil)

	source := []types.UserData{
		{UserID: "u1", UserName: "alice", Email: "a@old.com", Active: true},
		{UserID: "u2", UserName: "bob", Active: true},
		{UserID: "u4", UserName: "dave", Active: true},
	}
	target := []types.UserData{
		{UserID: "u1", UserName: "alice", Email: "a@new.com", Active: true},
		{UserID: "u3", UserName: "charlie"},
		{UserID: "u4", UserName: "dave", Active: true},
	}

	diff := comparer.Compare(source, target)

	assert.Equal(t, types.KindUsers, diff.ResourceType)
	assert.Equal(t, []string{"u3"}, changeIDs(diff.Created))
	assert.Equal(t, []string{"u2"}, changeIDs(diff.Deleted))
	assert.Equal(t, []string{"u1"}, changeIDs(diff.Modified))
	assert.Equal(t, 3, diff.TotalChanges())

	created := diff.Created[0]
	assert.Equal(t, ChangeCreated, created.ChangeType)
	assert.Equal(t, "charlie", created.ResourceName)
	assert.Nil(t, created.BeforeValue)
	assert.Equal(t, "u3", created.AfterValue["user_id"])
	assert.Empty(t, created.AttributeChanges)

	deleted := diff.Deleted[0]
	assert.Equal(t, ChangeDeleted, deleted.ChangeType)
	assert.Equal(t, "bob", deleted.ResourceName)
	assert.Nil(t, deleted.AfterValue)
	assert.Equal(t, "u2", deleted.BeforeValue["user_id"])

	modified := diff.Modified[0]
	assert.Equal(t, ChangeModified, modified.ChangeType)
	assert.Equal(t, "alice", modified.ResourceName)
	require.Len(t, modified.AttributeChanges, 1)
	assert.Equal(t, AttributeChange{AttributeName: "email", BeforeValue: "a@old.com", AfterValue: "a@new.com"}, modified.AttributeChanges[0])
	assert.Equal(t, "a@old.com", modified.BeforeValue["email"])
	assert.Equal(t, "a@new.com", modified.AfterValue["email"])
}

func TestComparator_NilInputs(t *testing.T) {
	diff := NewGroupComparator(nil, nil).Compare(nil, nil)

	assert.Equal(t, types.KindGroups, diff.ResourceType)
	assert.False(t, diff.HasChanges())
	assert.NotNil(t, diff.Created)
	assert.NotNil(t, diff.Deleted)
	assert.NotNil(t, diff.Modified)
}

func TestComparator_Idempotent(t *testing.T) {
	users := []types.UserData{{UserID: "u1", UserName: "alice"}, {UserID: "u2", UserName: "bob"}}
	groups := []types.GroupData{{GroupID: "g1", DisplayName: "admins", Members: []string{"u1", "u2"}}}
	permissionSets := []types.PermissionSetData{{PermissionSetARN: "arn:ps", Name: "Admin", InlinePolicy: strPtr(`{"Version":"2012-10-17"}`)}}
	assignments := []types.AssignmentData{{AccountID: "1", PermissionSetARN: "arn:ps", PrincipalType: "USER", PrincipalID: "u1"}}

	assert.False(t, NewUserComparator(nil, nil).Compare(users, users).HasChanges())
	assert.False(t, NewGroupComparator(nil, nil).Compare(groups, groups).HasChanges())
	assert.False(t, NewPermissionSetComparator(nil, nil).Compare(permissionSets, permissionSets).HasChanges())
	assert.False(t, NewAssignmentComparator(nil, nil).Compare(assignments, assignments).HasChanges())
}

func TestComparator_CreatedDeletedSymmetry(t *testing.T) {
	a := []types.GroupData{
		{GroupID: "g1", DisplayName: "one"},
		{GroupID: "g2", DisplayName: "two"},
	}
	b := []types.GroupData{
		{GroupID: "g2", DisplayName: "two"},
		{GroupID: "g3", DisplayName: "three"},
		{GroupID: "g4", DisplayName: "four"},
	}

	comparer := NewGroupComparator(nil, nil)
	forward := comparer.Compare(a, b)
	backward := comparer.Compare(b, a)

	assert.Equal(t, changeIDs(forward.Created), changeIDs(backward.Deleted))
	assert.Equal(t, changeIDs(forward.Deleted), changeIDs(backward.Created))
	assert.Equal(t, []string{"g3", "g4"}, changeIDs(forward.Created))
}

func TestGroupComparator_MembershipOrder(t *testing.T) {
	comparer := NewGroupComparator(nil, nil)

	diff := comparer.Compare(
		[]types.GroupData{{GroupID: "g1", DisplayName: "admins", Members: []string{"u1", "u2"}}},
		[]types.GroupData{{GroupID: "g1", DisplayName: "admins", Members: []string{"u2", "u1"}}},
	)
	assert.False(t, diff.HasChanges())

	diff = comparer.Compare(
		[]types.GroupData{{GroupID: "g1", DisplayName: "admins", Members: []string{"u1", "u2"}}},
		[]types.GroupData{{GroupID: "g1", DisplayName: "platform-admins", Members: []string{"u2"}}},
	)
	require.Len(t, diff.Modified, 1)
	assert.Equal(t, "platform-admins", diff.Modified[0].ResourceName)
	require.Len(t, diff.Modified[0].AttributeChanges, 2)
	assert.Equal(t, "display_name", diff.Modified[0].AttributeChanges[0].AttributeName)
	assert.Equal(t, "members", diff.Modified[0].AttributeChanges[1].AttributeName)
}

func TestPermissionSetComparator_CustomerManagedPolicyOrder(t *testing.T) {
	comparer := NewPermissionSetComparator(nil, nil)

	diff := comparer.Compare(
		[]types.PermissionSetData{{
			PermissionSetARN:        "arn:ps",
			Name:                    "Dev",
			ManagedPolicies:         []string{"arn:a", "arn:b"},
			CustomerManagedPolicies: []types.CustomerManagedPolicy{{Name: "x"}, {Name: "y"}},
		}},
		[]types.PermissionSetData{{
			PermissionSetARN:        "arn:ps",
			Name:                    "Dev",
			ManagedPolicies:         []string{"arn:b", "arn:a"},
			CustomerManagedPolicies: []types.CustomerManagedPolicy{{Name: "y"}, {Name: "x"}},
		}},
	)

	require.Len(t, diff.Modified, 1)
	require.Len(t, diff.Modified[0].AttributeChanges, 1)
	assert.Equal(t, "customer_managed_policies", diff.Modified[0].AttributeChanges[0].AttributeName)
	assert.Equal(t, "Dev", diff.Modified[0].ResourceName)
}

func TestAssignmentComparator_CompositeKey(t *testing.T) {
	comparer := NewAssignmentComparator(nil, nil)

	source := []types.AssignmentData{{AccountID: "1", PermissionSetARN: "A", PrincipalType: "USER", PrincipalID: "u1"}}
	target := []types.AssignmentData{{AccountID: "1", PermissionSetARN: "A", PrincipalType: "GROUP", PrincipalID: "u1"}}

	diff := comparer.Compare(source, target)

	require.Len(t, diff.Created, 1)
	require.Len(t, diff.Deleted, 1)
	assert.Empty(t, diff.Modified)

	assert.Equal(t, "1:A:GROUP:u1", diff.Created[0].ResourceID)
	assert.Equal(t, "GROUP:u1", diff.Created[0].ResourceName)
	assert.Equal(t, "1:A:USER:u1", diff.Deleted[0].ResourceID)
	assert.Equal(t, "USER:u1", diff.Deleted[0].ResourceName)
}

func TestAssignmentComparator_DuplicateKeyLastWins(t *testing.T) {
	comparer := NewAssignmentComparator(nil, nil)

	a := types.AssignmentData{AccountID: "1", PermissionSetARN: "A", PrincipalType: "USER", PrincipalID: "u1"}
	diff := comparer.Compare(nil, []types.AssignmentData{a, a})

	require.Len(t, diff.Created, 1)
	assert.Equal(t, "1:A:USER:u1", diff.Created[0].ResourceID)
}

func TestUserComparator_DuplicateKeyLastWins(t *testing.T) {
	comparer := NewUserComparator(nil, nil)

	target := []types.UserData{
		{UserID: "u1", UserName: "first"},
		{UserID: "u1", UserName: "second"},
	}

	for i := 0; i < 5; i++ {
		diff := comparer.Compare(nil, target)
		require.Len(t, diff.Created, 1)
		assert.Equal(t, "second", diff.Created[0].ResourceName)
	}
}

func TestComparator_MissingIdentityKeyIsDropped(t *testing.T) {
	var buf bytes.Buffer
	log, err := logger.New(logger.Options{Level: "debug", Output: &buf})
	require.NoError(t, err)

	users := NewUserComparator(nil, log)
	diff := users.Compare([]types.UserData{{UserName: "ghost"}}, []types.UserData{{UserName: "ghost2"}})
	assert.False(t, diff.HasChanges())
	assert.Contains(t, buf.String(), "skipping resource without identity key")

	assignments := NewAssignmentComparator(nil, nil)
	diff = assignments.Compare(nil, []types.AssignmentData{{AccountID: "1", PermissionSetARN: "A", PrincipalType: "USER"}})
	assert.False(t, diff.HasChanges())
}

func TestComparator_BlankIdentityKeyIsDropped(t *testing.T) {
	users := NewUserComparator(nil, nil).Compare(nil, []types.UserData{{UserID: " ", UserName: "blank"}, {UserID: "u1"}})
	assert.Equal(t, []string{"u1"}, changeIDs(users.Created))

	groups := NewGroupComparator(nil, nil).Compare([]types.GroupData{{GroupID: "\t"}}, nil)
	assert.False(t, groups.HasChanges())

	sets := NewPermissionSetComparator(nil, nil).Compare(nil, []types.PermissionSetData{{PermissionSetARN: "  ", Name: "Admin"}})
	assert.False(t, sets.HasChanges())
}

func TestAssignmentKey(t *testing.T) {
	key, ok := AssignmentKey(types.AssignmentData{AccountID: "1", PermissionSetARN: "A", PrincipalType: "USER", PrincipalID: "u1"})
	assert.True(t, ok)
	assert.Equal(t, "1:A:USER:u1", key)

	_, ok = AssignmentKey(types.AssignmentData{AccountID: "1", PermissionSetARN: "A", PrincipalType: "USER"})
	assert.False(t, ok)
}

func TestComparator_OrderedByResourceID(t *testing.T) {
	comparer := NewUserComparator(nil, nil)

	diff := comparer.Compare(nil, []types.UserData{
		{UserID: "u3"}, {UserID: "u1"}, {UserID: "u2"},
	})
	assert.Equal(t, []string{"u1", "u2", "u3"}, changeIDs(diff.Created))
}
