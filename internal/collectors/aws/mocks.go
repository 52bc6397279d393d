package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/identitystore"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	"github.com/aws/aws-sdk-go-v2/service/ssoadmin"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/stretchr/testify/mock"
)

// MockIdentityStoreClient is a mock implementation of IdentityStoreAPI
type MockIdentityStoreClient struct {
	mock.Mock
}

// ListUsers mocks the ListUsers method
func (m *MockIdentityStoreClient) ListUsers(ctx context.Context, params *identitystore.ListUsersInput, optFns ...func(*identitystore.Options)) (*identitystore.ListUsersOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identitystore.ListUsersOutput), args.Error(1)
}

// ListGroups mocks the ListGroups method
func (m *MockIdentityStoreClient) ListGroups(ctx context.Context, params *identitystore.ListGroupsInput, optFns ...func(*identitystore.Options)) (*identitystore.ListGroupsOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identitystore.ListGroupsOutput), args.Error(1)
}

// ListGroupMemberships mocks the ListGroupMemberships method
func (m *MockIdentityStoreClient) ListGroupMemberships(ctx context.Context, params *identitystore.ListGroupMembershipsInput, optFns ...func(*identitystore.Options)) (*identitystore.ListGroupMembershipsOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identitystore.ListGroupMembershipsOutput), args.Error(1)
}

// MockSSOAdminClient is a mock implementation of SSOAdminAPI
type MockSSOAdminClient struct {
	mock.Mock
}

// ListInstances mocks the ListInstances method
func (m *MockSSOAdminClient) ListInstances(ctx context.Context, params *ssoadmin.ListInstancesInput, optFns ...func(*ssoadmin.Options)) (*ssoadmin.ListInstancesOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ssoadmin.ListInstancesOutput), args.Error(1)
}

// ListPermissionSets mocks the ListPermissionSets method
func (m *MockSSOAdminClient) ListPermissionSets(ctx context.Context, params *ssoadmin.ListPermissionSetsInput, optFns ...func(*ssoadmin.Options)) (*ssoadmin.ListPermissionSetsOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ssoadmin.ListPermissionSetsOutput), args.Error(1)
}

// DescribePermissionSet mocks the DescribePermissionSet method
func (m *MockSSOAdminClient) DescribePermissionSet(ctx context.Context, params *ssoadmin.DescribePermissionSetInput, optFns ...func(*ssoadmin.Options)) (*ssoadmin.DescribePermissionSetOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ssoadmin.DescribePermissionSetOutput), args.Error(1)
}

// ListManagedPoliciesInPermissionSet mocks the ListManagedPoliciesInPermissionSet method
func (m *MockSSOAdminClient) ListManagedPoliciesInPermissionSet(ctx context.Context, params *ssoadmin.ListManagedPoliciesInPermissionSetInput, optFns ...func(*ssoadmin.Options)) (*ssoadmin.ListManagedPoliciesInPermissionSetOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ssoadmin.ListManagedPoliciesInPermissionSetOutput), args.Error(1)
}

// ListCustomerManagedPolicyReferencesInPermissionSet mocks the ListCustomerManagedPolicyReferencesInPermissionSet method
func (m *MockSSOAdminClient) ListCustomerManagedPolicyReferencesInPermissionSet(ctx context.Context, params *ssoadmin.ListCustomerManagedPolicyReferencesInPermissionSetInput, optFns ...func(*ssoadmin.Options)) (*ssoadmin.ListCustomerManagedPolicyReferencesInPermissionSetOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ssoadmin.ListCustomerManagedPolicyReferencesInPermissionSetOutput), args.Error(1)
}

// GetInlinePolicyForPermissionSet mocks the GetInlinePolicyForPermissionSet method
func (m *MockSSOAdminClient) GetInlinePolicyForPermissionSet(ctx context.Context, params *ssoadmin.GetInlinePolicyForPermissionSetInput, optFns ...func(*ssoadmin.Options)) (*ssoadmin.GetInlinePolicyForPermissionSetOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ssoadmin.GetInlinePolicyForPermissionSetOutput), args.Error(1)
}

// GetPermissionsBoundaryForPermissionSet mocks the GetPermissionsBoundaryForPermissionSet method
func (m *MockSSOAdminClient) GetPermissionsBoundaryForPermissionSet(ctx context.Context, params *ssoadmin.GetPermissionsBoundaryForPermissionSetInput, optFns ...func(*ssoadmin.Options)) (*ssoadmin.GetPermissionsBoundaryForPermissionSetOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ssoadmin.GetPermissionsBoundaryForPermissionSetOutput), args.Error(1)
}

// ListTagsForResource mocks the ListTagsForResource method
func (m *MockSSOAdminClient) ListTagsForResource(ctx context.Context, params *ssoadmin.ListTagsForResourceInput, optFns ...func(*ssoadmin.Options)) (*ssoadmin.ListTagsForResourceOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ssoadmin.ListTagsForResourceOutput), args.Error(1)
}

// ListPermissionSetsProvisionedToAccount mocks the ListPermissionSetsProvisionedToAccount method
func (m *MockSSOAdminClient) ListPermissionSetsProvisionedToAccount(ctx context.Context, params *ssoadmin.ListPermissionSetsProvisionedToAccountInput, optFns ...func(*ssoadmin.Options)) (*ssoadmin.ListPermissionSetsProvisionedToAccountOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ssoadmin.ListPermissionSetsProvisionedToAccountOutput), args.Error(1)
}

// ListAccountAssignments mocks the ListAccountAssignments method
func (m *MockSSOAdminClient) ListAccountAssignments(ctx context.Context, params *ssoadmin.ListAccountAssignmentsInput, optFns ...func(*ssoadmin.Options)) (*ssoadmin.ListAccountAssignmentsOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ssoadmin.ListAccountAssignmentsOutput), args.Error(1)
}

// MockOrganizationsClient is a mock implementation of OrganizationsAPI
type MockOrganizationsClient struct {
	mock.Mock
}

// ListAccounts mocks the ListAccounts method
func (m *MockOrganizationsClient) ListAccounts(ctx context.Context, params *organizations.ListAccountsInput, optFns ...func(*organizations.Options)) (*organizations.ListAccountsOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*organizations.ListAccountsOutput), args.Error(1)
}

// MockSTSClient is a mock implementation of STSAPI
type MockSTSClient struct {
	mock.Mock
}

// GetCallerIdentity mocks the GetCallerIdentity method
func (m *MockSTSClient) GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sts.GetCallerIdentityOutput), args.Error(1)
}
