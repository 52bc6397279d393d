package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/identitystore"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssoadmin"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	idcerrors "github.com/yairfalse/idcvault/internal/errors"
)

// IdentityStoreAPI defines the identity store methods we use
type IdentityStoreAPI interface {
	ListUsers(ctx context.Context, params *identitystore.ListUsersInput, optFns ...func(*identitystore.Options)) (*identitystore.ListUsersOutput, error)
	ListGroups(ctx context.Context, params *identitystore.ListGroupsInput, optFns ...func(*identitystore.Options)) (*identitystore.ListGroupsOutput, error)
	ListGroupMemberships(ctx context.Context, params *identitystore.ListGroupMembershipsInput, optFns ...func(*identitystore.Options)) (*identitystore.ListGroupMembershipsOutput, error)
}

// SSOAdminAPI defines the sso-admin methods we use
type SSOAdminAPI interface {
	ListInstances(ctx context.Context, params *ssoadmin.ListInstancesInput, optFns ...func(*ssoadmin.Options)) (*ssoadmin.ListInstancesOutput, error)
	ListPermissionSets(ctx context.Context, params *ssoadmin.ListPermissionSetsInput, optFns ...func(*ssoadmin.Options)) (*ssoadmin.ListPermissionSetsOutput, error)
	DescribePermissionSet(ctx context.Context, params *ssoadmin.DescribePermissionSetInput, optFns ...func(*ssoadmin.Options)) (*ssoadmin.DescribePermissionSetOutput, error)
	ListManagedPoliciesInPermissionSet(ctx context.Context, params *ssoadmin.ListManagedPoliciesInPermissionSetInput, optFns ...func(*ssoadmin.Options)) (*ssoadmin.ListManagedPoliciesInPermissionSetOutput, error)
	ListCustomerManagedPolicyReferencesInPermissionSet(ctx context.Context, params *ssoadmin.ListCustomerManagedPolicyReferencesInPermissionSetInput, optFns ...func(*ssoadmin.Options)) (*ssoadmin.ListCustomerManagedPolicyReferencesInPermissionSetOutput, error)
	GetInlinePolicyForPermissionSet(ctx context.Context, params *ssoadmin.GetInlinePolicyForPermissionSetInput, optFns ...func(*ssoadmin.Options)) (*ssoadmin.GetInlinePolicyForPermissionSetOutput, error)
	GetPermissionsBoundaryForPermissionSet(ctx context.Context, params *ssoadmin.GetPermissionsBoundaryForPermissionSetInput, optFns ...func(*ssoadmin.Options)) (*ssoadmin.GetPermissionsBoundaryForPermissionSetOutput, error)
	ListTagsForResource(ctx context.Context, params *ssoadmin.ListTagsForResourceInput, optFns ...func(*ssoadmin.Options)) (*ssoadmin.ListTagsForResourceOutput, error)
	ListPermissionSetsProvisionedToAccount(ctx context.Context, params *ssoadmin.ListPermissionSetsProvisionedToAccountInput, optFns ...func(*ssoadmin.Options)) (*ssoadmin.ListPermissionSetsProvisionedToAccountOutput, error)
	ListAccountAssignments(ctx context.Context, params *ssoadmin.ListAccountAssignmentsInput, optFns ...func(*ssoadmin.Options)) (*ssoadmin.ListAccountAssignmentsOutput, error)
}

// OrganizationsAPI defines the organizations methods we use
type OrganizationsAPI interface {
	ListAccounts(ctx context.Context, params *organizations.ListAccountsInput, optFns ...func(*organizations.Options)) (*organizations.ListAccountsOutput, error)
}

// STSAPI defines the STS methods we use
type STSAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// Clients holds the AWS service clients used by idcvault
type Clients struct {
	IdentityStore IdentityStoreAPI
	SSOAdmin      SSOAdminAPI
	Organizations OrganizationsAPI
	STS           STSAPI
	S3            *s3.Client
	Config        aws.Config
}

// ClientConfig holds configuration for AWS client creation
type ClientConfig struct {
	Region     string
	Profile    string
	MaxRetries int
	Timeout    time.Duration
}

// LoadConfig resolves the shared AWS configuration with profile, region and retryer
func LoadConfig(ctx context.Context, clientConfig ClientConfig) (aws.Config, error) {
	if clientConfig.MaxRetries == 0 {
		clientConfig.MaxRetries = 5
	}

	var opts []func(*config.LoadOptions) error

	if clientConfig.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(clientConfig.Profile))
	}

	if clientConfig.Region != "" {
		opts = append(opts, config.WithRegion(clientConfig.Region))
	}

	// Identity Center list APIs throttle aggressively
	opts = append(opts, config.WithRetryer(func() aws.Retryer {
		return retry.AddWithMaxAttempts(retry.NewStandard(), clientConfig.MaxRetries)
	}))

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, idcerrors.AWSCredentialsError(err).WithCause(fmt.Sprintf("failed to load AWS config: %v", err))
	}

	if cfg.Region == "" {
		return aws.Config{}, idcerrors.AWSRegionError()
	}

	return cfg, nil
}

// NewClients creates and configures AWS service clients
func NewClients(ctx context.Context, clientConfig ClientConfig) (*Clients, error) {
	cfg, err := LoadConfig(ctx, clientConfig)
	if err != nil {
		return nil, err
	}

	return NewClientsFromConfig(cfg), nil
}

// NewClientsFromConfig creates service clients from a resolved configuration
func NewClientsFromConfig(cfg aws.Config) *Clients {
	return &Clients{
		IdentityStore: identitystore.NewFromConfig(cfg),
		SSOAdmin:      ssoadmin.NewFromConfig(cfg),
		Organizations: organizations.NewFromConfig(cfg),
		STS:           sts.NewFromConfig(cfg),
		S3:            s3.NewFromConfig(cfg),
		Config:        cfg,
	}
}

// GetRegion returns the configured region
func (c *Clients) GetRegion() string {
	return c.Config.Region
}

// CallerIdentity describes who the credentials belong to
type CallerIdentity struct {
	Account string
	ARN     string
}

// ValidateCredentials tests AWS credentials by making a simple API call
func (c *Clients) ValidateCredentials(ctx context.Context) (*CallerIdentity, error) {
	result, err := c.STS.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, idcerrors.FromAWSError(idcerrors.ServiceSTS, "GetCallerIdentity", err)
	}

	if result.Account == nil || result.Arn == nil {
		return nil, fmt.Errorf("received invalid identity information from AWS")
	}

	return &CallerIdentity{
		Account: aws.ToString(result.Account),
		ARN:     aws.ToString(result.Arn),
	}, nil
}
