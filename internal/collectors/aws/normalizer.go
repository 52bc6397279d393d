package aws

import (
	"sort"

	identitystoretypes "github.com/aws/aws-sdk-go-v2/service/identitystore/types"
	ssoadmintypes "github.com/aws/aws-sdk-go-v2/service/ssoadmin/types"
	"github.com/samber/lo"

	"github.com/yairfalse/idcvault/pkg/types"
)

// NormalizeUser converts an identity store user. Users returned by the
// identity store are treated as active.
func NormalizeUser(user identitystoretypes.User) types.UserData {
	data := types.UserData{
		UserID:      lo.FromPtr(user.UserId),
		UserName:    lo.FromPtr(user.UserName),
		DisplayName: lo.FromPtr(user.DisplayName),
		Email:       primaryEmail(user.Emails),
		Active:      true,
	}

	if user.Name != nil {
		data.GivenName = lo.FromPtr(user.Name.GivenName)
		data.FamilyName = lo.FromPtr(user.Name.FamilyName)
	}

	if len(user.ExternalIds) > 0 {
		data.ExternalIDs = make(map[string]string, len(user.ExternalIds))
		for _, ext := range user.ExternalIds {
			data.ExternalIDs[lo.FromPtr(ext.Issuer)] = lo.FromPtr(ext.Id)
		}
	}

	return data
}

// primaryEmail returns the primary address, or the first one if none is marked
func primaryEmail(emails []identitystoretypes.Email) string {
	if primary, ok := lo.Find(emails, func(e identitystoretypes.Email) bool { return e.Primary }); ok {
		return lo.FromPtr(primary.Value)
	}
	if len(emails) > 0 {
		return lo.FromPtr(emails[0].Value)
	}
	return ""
}

// NormalizeGroup converts an identity store group with its member user IDs
func NormalizeGroup(group identitystoretypes.Group, members []string) types.GroupData {
	sorted := lo.Uniq(members)
	sort.Strings(sorted)

	return types.GroupData{
		GroupID:     lo.FromPtr(group.GroupId),
		DisplayName: lo.FromPtr(group.DisplayName),
		Description: group.Description,
		Members:     sorted,
	}
}

// memberUserID extracts the user ID from a membership. Only user members exist today.
func memberUserID(membership identitystoretypes.GroupMembership) (string, bool) {
	switch m := membership.MemberId.(type) {
	case *identitystoretypes.MemberIdMemberUserId:
		return m.Value, m.Value != ""
	default:
		return "", false
	}
}

// PermissionSetDetails bundles the per-permission-set lookups
type PermissionSetDetails struct {
	PermissionSet           ssoadmintypes.PermissionSet
	InlinePolicy            *string
	ManagedPolicies         []ssoadmintypes.AttachedManagedPolicy
	CustomerManagedPolicies []ssoadmintypes.CustomerManagedPolicyReference
	PermissionsBoundary     *ssoadmintypes.PermissionsBoundary
	Tags                    []ssoadmintypes.Tag
}

// NormalizePermissionSet converts a permission set and its attachments
func NormalizePermissionSet(details PermissionSetDetails) types.PermissionSetData {
	ps := details.PermissionSet

	managed := lo.Map(details.ManagedPolicies, func(p ssoadmintypes.AttachedManagedPolicy, _ int) string {
		return lo.FromPtr(p.Arn)
	})
	sort.Strings(managed)

	data := types.PermissionSetData{
		PermissionSetARN: lo.FromPtr(ps.PermissionSetArn),
		Name:             lo.FromPtr(ps.Name),
		Description:      emptyToNil(ps.Description),
		SessionDuration:  emptyToNil(ps.SessionDuration),
		RelayState:       emptyToNil(ps.RelayState),
		InlinePolicy:     emptyToNil(details.InlinePolicy),
		ManagedPolicies:  managed,
	}

	// Attachment order is kept as returned
	for _, ref := range details.CustomerManagedPolicies {
		data.CustomerManagedPolicies = append(data.CustomerManagedPolicies, normalizeCustomerPolicy(ref))
	}

	if b := details.PermissionsBoundary; b != nil && (b.ManagedPolicyArn != nil || b.CustomerManagedPolicyReference != nil) {
		boundary := &types.PermissionsBoundary{ManagedPolicyARN: b.ManagedPolicyArn}
		if b.CustomerManagedPolicyReference != nil {
			ref := normalizeCustomerPolicy(*b.CustomerManagedPolicyReference)
			boundary.CustomerManagedPolicyReference = &ref
		}
		data.PermissionsBoundary = boundary
	}

	if len(details.Tags) > 0 {
		data.Tags = make(map[string]string, len(details.Tags))
		for _, tag := range details.Tags {
			data.Tags[lo.FromPtr(tag.Key)] = lo.FromPtr(tag.Value)
		}
	}

	return data
}

func normalizeCustomerPolicy(ref ssoadmintypes.CustomerManagedPolicyReference) types.CustomerManagedPolicy {
	return types.CustomerManagedPolicy{
		Name: lo.FromPtr(ref.Name),
		Path: lo.FromPtr(ref.Path),
	}
}

// NormalizeAssignment converts an account assignment
func NormalizeAssignment(a ssoadmintypes.AccountAssignment) types.AssignmentData {
	return types.AssignmentData{
		AccountID:        lo.FromPtr(a.AccountId),
		PermissionSetARN: lo.FromPtr(a.PermissionSetArn),
		PrincipalType:    string(a.PrincipalType),
		PrincipalID:      lo.FromPtr(a.PrincipalId),
	}
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
