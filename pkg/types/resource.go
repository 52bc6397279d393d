package types

import (
	"strings"
)

// Resource kinds as they appear in backups and diff results
const (
	KindUsers          = "users"
	KindGroups         = "groups"
	KindPermissionSets = "permission_sets"
	KindAssignments    = "assignments"
)

// Principal types used by account assignments
const (
	PrincipalTypeUser  = "USER"
	PrincipalTypeGroup = "GROUP"
)

// AssignmentKeySeparator joins the fields of an assignment composite key
const AssignmentKeySeparator = ":"

// Resource is an Identity Center resource captured in a backup.
// ToMap returns a flat attribute map keyed by snake_case attribute name.
// The returned map and everything in it is owned by the caller.
type Resource interface {
	ToMap() map[string]any
}

// UserData is an Identity Store user
type UserData struct {
	UserID      string            `json:"user_id" yaml:"user_id"`
	UserName    string            `json:"user_name" yaml:"user_name"`
	DisplayName string            `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Email       string            `json:"email,omitempty" yaml:"email,omitempty"`
	GivenName   string            `json:"given_name,omitempty" yaml:"given_name,omitempty"`
	FamilyName  string            `json:"family_name,omitempty" yaml:"family_name,omitempty"`
	Active      bool              `json:"active" yaml:"active"`
	ExternalIDs map[string]string `json:"external_ids,omitempty" yaml:"external_ids,omitempty"`
}

// ToMap implements Resource
func (u UserData) ToMap() map[string]any {
	return map[string]any{
		"user_id":      u.UserID,
		"user_name":    u.UserName,
		"display_name": u.DisplayName,
		"email":        u.Email,
		"given_name":   u.GivenName,
		"family_name":  u.FamilyName,
		"active":       u.Active,
		"external_ids": copyStringMap(u.ExternalIDs),
	}
}

// GroupData is an Identity Store group together with its member user IDs
type GroupData struct {
	GroupID     string   `json:"group_id" yaml:"group_id"`
	DisplayName string   `json:"display_name" yaml:"display_name"`
	Description *string  `json:"description,omitempty" yaml:"description,omitempty"`
	Members     []string `json:"members,omitempty" yaml:"members,omitempty"`
}

// ToMap implements Resource
func (g GroupData) ToMap() map[string]any {
	return map[string]any{
		"group_id":     g.GroupID,
		"display_name": g.DisplayName,
		"description":  optional(g.Description),
		"members":      copyStrings(g.Members),
	}
}

// CustomerManagedPolicy references an IAM policy that exists in each target account
type CustomerManagedPolicy struct {
	Name string `json:"name" yaml:"name"`
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

func (p CustomerManagedPolicy) toMap() map[string]any {
	return map[string]any{
		"name": p.Name,
		"path": p.Path,
	}
}

// PermissionsBoundary is either an AWS managed policy ARN or a customer managed reference
type PermissionsBoundary struct {
	ManagedPolicyARN               *string                `json:"managed_policy_arn,omitempty" yaml:"managed_policy_arn,omitempty"`
	CustomerManagedPolicyReference *CustomerManagedPolicy `json:"customer_managed_policy_reference,omitempty" yaml:"customer_managed_policy_reference,omitempty"`
}

func (b *PermissionsBoundary) toMap() any {
	if b == nil {
		return nil
	}
	m := map[string]any{
		"managed_policy_arn":                optional(b.ManagedPolicyARN),
		"customer_managed_policy_reference": nil,
	}
	if b.CustomerManagedPolicyReference != nil {
		m["customer_managed_policy_reference"] = b.CustomerManagedPolicyReference.toMap()
	}
	return m
}

// PermissionSetData is an SSO admin permission set with its attached policies
type PermissionSetData struct {
	PermissionSetARN        string                  `json:"permission_set_arn" yaml:"permission_set_arn"`
	Name                    string                  `json:"name" yaml:"name"`
	Description             *string                 `json:"description,omitempty" yaml:"description,omitempty"`
	SessionDuration         *string                 `json:"session_duration,omitempty" yaml:"session_duration,omitempty"`
	RelayState              *string                 `json:"relay_state,omitempty" yaml:"relay_state,omitempty"`
	InlinePolicy            *string                 `json:"inline_policy,omitempty" yaml:"inline_policy,omitempty"`
	ManagedPolicies         []string                `json:"managed_policies,omitempty" yaml:"managed_policies,omitempty"`
	CustomerManagedPolicies []CustomerManagedPolicy `json:"customer_managed_policies,omitempty" yaml:"customer_managed_policies,omitempty"`
	PermissionsBoundary     *PermissionsBoundary    `json:"permissions_boundary,omitempty" yaml:"permissions_boundary,omitempty"`
	Tags                    map[string]string       `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// ToMap implements Resource
func (p PermissionSetData) ToMap() map[string]any {
	var customer any
	if len(p.CustomerManagedPolicies) > 0 {
		policies := make([]any, 0, len(p.CustomerManagedPolicies))
		for _, policy := range p.CustomerManagedPolicies {
			policies = append(policies, policy.toMap())
		}
		customer = policies
	}

	return map[string]any{
		"permission_set_arn":        p.PermissionSetARN,
		"name":                      p.Name,
		"description":               optional(p.Description),
		"session_duration":          optional(p.SessionDuration),
		"relay_state":               optional(p.RelayState),
		"inline_policy":             optional(p.InlinePolicy),
		"managed_policies":          copyStrings(p.ManagedPolicies),
		"customer_managed_policies": customer,
		"permissions_boundary":      p.PermissionsBoundary.toMap(),
		"tags":                      copyStringMap(p.Tags),
	}
}

// AssignmentData links a principal to a permission set in one account
type AssignmentData struct {
	AccountID        string `json:"account_id" yaml:"account_id"`
	PermissionSetARN string `json:"permission_set_arn" yaml:"permission_set_arn"`
	PrincipalType    string `json:"principal_type" yaml:"principal_type"`
	PrincipalID      string `json:"principal_id" yaml:"principal_id"`
}

// ToMap implements Resource
func (a AssignmentData) ToMap() map[string]any {
	return map[string]any{
		"account_id":         a.AccountID,
		"permission_set_arn": a.PermissionSetARN,
		"principal_type":     a.PrincipalType,
		"principal_id":       a.PrincipalID,
	}
}

// Key returns the composite identity of the assignment. Assignments carry no
// natural ID, so account, permission set, principal type and principal ID are
// joined in that order.
func (a AssignmentData) Key() string {
	return strings.Join([]string{a.AccountID, a.PermissionSetARN, a.PrincipalType, a.PrincipalID}, AssignmentKeySeparator)
}

// Principal returns "TYPE:id", the display name of an assignment
func (a AssignmentData) Principal() string {
	return a.PrincipalType + AssignmentKeySeparator + a.PrincipalID
}

// optional flattens a *string into nil or its value
func optional(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// copyStrings returns nil for empty slices so that nil and [] compare equal
func copyStrings(s []string) any {
	if len(s) == 0 {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func copyStringMap(m map[string]string) any {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
