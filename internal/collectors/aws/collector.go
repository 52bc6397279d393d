package aws

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/identitystore"
	identitystoretypes "github.com/aws/aws-sdk-go-v2/service/identitystore/types"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	"github.com/aws/aws-sdk-go-v2/service/ssoadmin"
	ssoadmintypes "github.com/aws/aws-sdk-go-v2/service/ssoadmin/types"
	"github.com/aws/smithy-go"
	"github.com/samber/lo"

	idcerrors "github.com/yairfalse/idcvault/internal/errors"
	"github.com/yairfalse/idcvault/internal/logger"
	"github.com/yairfalse/idcvault/pkg/types"
)

// SourceIdentityCenter marks backups collected from a live instance
const SourceIdentityCenter = "aws-identity-center"

// CollectorConfig selects what to collect
type CollectorConfig struct {
	BackupID        string
	InstanceARN     string
	IdentityStoreID string
	// AccountIDs limits assignment collection. Empty means every account in the organization.
	AccountIDs     []string
	MaxConcurrency int
	Version        string
}

// Collector captures an Identity Center instance into a backup
type Collector struct {
	clients *Clients
	config  CollectorConfig
	logger  logger.Logger
	now     func() time.Time
}

// NewCollector creates a collector over the given clients
func NewCollector(clients *Clients, cfg CollectorConfig, log logger.Logger) *Collector {
	if log == nil {
		log = logger.NewDiscard()
	}
	if cfg.MaxConcurrency < 1 {
		cfg.MaxConcurrency = defaultMaxConcurrency
	}
	return &Collector{
		clients: clients,
		config:  cfg,
		logger:  log.WithField("component", "collector"),
		now:     time.Now,
	}
}

// Collect captures users, groups, permission sets and account assignments
func (c *Collector) Collect(ctx context.Context) (*types.BackupData, error) {
	start := c.now()

	instanceARN, identityStoreID, err := c.resolveInstance(ctx)
	if err != nil {
		return nil, err
	}

	log := c.logger.WithFields(map[string]interface{}{
		"instance_arn":      instanceARN,
		"identity_store_id": identityStoreID,
	})
	log.Info("Collecting Identity Center backup")

	users, err := c.collectUsers(ctx, identityStoreID)
	if err != nil {
		return nil, err
	}
	log.WithField("count", len(users)).Debug("Collected users")

	groups, err := c.collectGroups(ctx, identityStoreID)
	if err != nil {
		return nil, err
	}
	log.WithField("count", len(groups)).Debug("Collected groups")

	permissionSets, err := c.collectPermissionSets(ctx, instanceARN)
	if err != nil {
		return nil, err
	}
	log.WithField("count", len(permissionSets)).Debug("Collected permission sets")

	accounts, err := c.accountIDs(ctx)
	if err != nil {
		return nil, err
	}

	assignments, err := c.collectAssignments(ctx, instanceARN, accounts)
	if err != nil {
		return nil, err
	}
	log.WithFields(map[string]interface{}{
		"accounts": len(accounts),
		"count":    len(assignments),
	}).Debug("Collected assignments")

	backup := &types.BackupData{
		Metadata:       types.NewBackupMetadata(c.config.BackupID, start.UTC()),
		Users:          users,
		Groups:         groups,
		PermissionSets: permissionSets,
		Assignments:    assignments,
	}
	backup.Metadata.InstanceARN = instanceARN
	backup.Metadata.IdentityStoreID = identityStoreID
	backup.Metadata.Source = SourceIdentityCenter
	backup.Metadata.Version = c.config.Version
	backup.Metadata.ResourceCounts = backup.Counts()

	log.WithFields(map[string]interface{}{
		"backup_id": backup.ID(),
		"resources": backup.ResourceCount(),
		"duration":  c.now().Sub(start).String(),
	}).Info("Backup collected")

	return backup, nil
}

// resolveInstance returns the configured instance or the first one visible to the caller
func (c *Collector) resolveInstance(ctx context.Context) (string, string, error) {
	if c.config.InstanceARN != "" && c.config.IdentityStoreID != "" {
		return c.config.InstanceARN, c.config.IdentityStoreID, nil
	}

	var instances []ssoadmintypes.InstanceMetadata
	var nextToken *string
	for {
		out, err := c.clients.SSOAdmin.ListInstances(ctx, &ssoadmin.ListInstancesInput{NextToken: nextToken})
		if err != nil {
			return "", "", idcerrors.FromAWSError(idcerrors.ServiceSSOAdmin, "ListInstances", err)
		}
		instances = append(instances, out.Instances...)
		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}

	if c.config.InstanceARN != "" {
		match, ok := lo.Find(instances, func(i ssoadmintypes.InstanceMetadata) bool {
			return aws.ToString(i.InstanceArn) == c.config.InstanceARN
		})
		if !ok {
			return "", "", idcerrors.InstanceNotFoundError(c.clients.GetRegion()).
				WithCause(fmt.Sprintf("instance %s is not visible to the caller", c.config.InstanceARN))
		}
		return c.config.InstanceARN, aws.ToString(match.IdentityStoreId), nil
	}

	if len(instances) == 0 {
		return "", "", idcerrors.InstanceNotFoundError(c.clients.GetRegion())
	}
	if len(instances) > 1 {
		c.logger.WithField("instances", len(instances)).Warn("Multiple Identity Center instances found, using the first")
	}

	return aws.ToString(instances[0].InstanceArn), aws.ToString(instances[0].IdentityStoreId), nil
}

func (c *Collector) collectUsers(ctx context.Context, identityStoreID string) ([]types.UserData, error) {
	var users []types.UserData
	var nextToken *string

	for {
		out, err := c.clients.IdentityStore.ListUsers(ctx, &identitystore.ListUsersInput{
			IdentityStoreId: aws.String(identityStoreID),
			NextToken:       nextToken,
		})
		if err != nil {
			return nil, idcerrors.FromAWSError(idcerrors.ServiceIdentityStore, "ListUsers", err)
		}

		for _, user := range out.Users {
			users = append(users, NormalizeUser(user))
		}

		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}

	sort.Slice(users, func(i, j int) bool { return users[i].UserID < users[j].UserID })
	return users, nil
}

func (c *Collector) collectGroups(ctx context.Context, identityStoreID string) ([]types.GroupData, error) {
	var groups []identitystoretypes.Group
	var nextToken *string

	for {
		out, err := c.clients.IdentityStore.ListGroups(ctx, &identitystore.ListGroupsInput{
			IdentityStoreId: aws.String(identityStoreID),
			NextToken:       nextToken,
		})
		if err != nil {
			return nil, idcerrors.FromAWSError(idcerrors.ServiceIdentityStore, "ListGroups", err)
		}
		groups = append(groups, out.Groups...)

		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}

	result, err := mapWithLimit(ctx, groups, c.config.MaxConcurrency, func(ctx context.Context, group identitystoretypes.Group) (types.GroupData, error) {
		members, err := c.groupMembers(ctx, identityStoreID, aws.ToString(group.GroupId))
		if err != nil {
			return types.GroupData{}, err
		}
		return NormalizeGroup(group, members), nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(result, func(i, j int) bool { return result[i].GroupID < result[j].GroupID })
	return result, nil
}

func (c *Collector) groupMembers(ctx context.Context, identityStoreID, groupID string) ([]string, error) {
	var members []string
	var nextToken *string

	for {
		out, err := c.clients.IdentityStore.ListGroupMemberships(ctx, &identitystore.ListGroupMembershipsInput{
			IdentityStoreId: aws.String(identityStoreID),
			GroupId:         aws.String(groupID),
			NextToken:       nextToken,
		})
		if err != nil {
			return nil, idcerrors.FromAWSError(idcerrors.ServiceIdentityStore, "ListGroupMemberships", err)
		}

		for _, membership := range out.GroupMemberships {
			if userID, ok := memberUserID(membership); ok {
				members = append(members, userID)
			}
		}

		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}

	return members, nil
}

func (c *Collector) collectPermissionSets(ctx context.Context, instanceARN string) ([]types.PermissionSetData, error) {
	var arns []string
	var nextToken *string

	for {
		out, err := c.clients.SSOAdmin.ListPermissionSets(ctx, &ssoadmin.ListPermissionSetsInput{
			InstanceArn: aws.String(instanceARN),
			NextToken:   nextToken,
		})
		if err != nil {
			return nil, idcerrors.FromAWSError(idcerrors.ServiceSSOAdmin, "ListPermissionSets", err)
		}
		arns = append(arns, out.PermissionSets...)

		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}

	result, err := mapWithLimit(ctx, arns, c.config.MaxConcurrency, func(ctx context.Context, arn string) (types.PermissionSetData, error) {
		details, err := c.describePermissionSet(ctx, instanceARN, arn)
		if err != nil {
			return types.PermissionSetData{}, err
		}
		return NormalizePermissionSet(details), nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(result, func(i, j int) bool { return result[i].PermissionSetARN < result[j].PermissionSetARN })
	return result, nil
}

func (c *Collector) describePermissionSet(ctx context.Context, instanceARN, arn string) (PermissionSetDetails, error) {
	var details PermissionSetDetails

	described, err := c.clients.SSOAdmin.DescribePermissionSet(ctx, &ssoadmin.DescribePermissionSetInput{
		InstanceArn:      aws.String(instanceARN),
		PermissionSetArn: aws.String(arn),
	})
	if err != nil {
		return details, idcerrors.FromAWSError(idcerrors.ServiceSSOAdmin, "DescribePermissionSet", err)
	}
	if described.PermissionSet != nil {
		details.PermissionSet = *described.PermissionSet
	}
	if details.PermissionSet.PermissionSetArn == nil {
		details.PermissionSet.PermissionSetArn = aws.String(arn)
	}

	var nextToken *string
	for {
		out, err := c.clients.SSOAdmin.ListManagedPoliciesInPermissionSet(ctx, &ssoadmin.ListManagedPoliciesInPermissionSetInput{
			InstanceArn:      aws.String(instanceARN),
			PermissionSetArn: aws.String(arn),
			NextToken:        nextToken,
		})
		if err != nil {
			return details, idcerrors.FromAWSError(idcerrors.ServiceSSOAdmin, "ListManagedPoliciesInPermissionSet", err)
		}
		details.ManagedPolicies = append(details.ManagedPolicies, out.AttachedManagedPolicies...)
		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}

	nextToken = nil
	for {
		out, err := c.clients.SSOAdmin.ListCustomerManagedPolicyReferencesInPermissionSet(ctx, &ssoadmin.ListCustomerManagedPolicyReferencesInPermissionSetInput{
			InstanceArn:      aws.String(instanceARN),
			PermissionSetArn: aws.String(arn),
			NextToken:        nextToken,
		})
		if err != nil {
			return details, idcerrors.FromAWSError(idcerrors.ServiceSSOAdmin, "ListCustomerManagedPolicyReferencesInPermissionSet", err)
		}
		details.CustomerManagedPolicies = append(details.CustomerManagedPolicies, out.CustomerManagedPolicyReferences...)
		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}

	inline, err := c.clients.SSOAdmin.GetInlinePolicyForPermissionSet(ctx, &ssoadmin.GetInlinePolicyForPermissionSetInput{
		InstanceArn:      aws.String(instanceARN),
		PermissionSetArn: aws.String(arn),
	})
	if err != nil {
		return details, idcerrors.FromAWSError(idcerrors.ServiceSSOAdmin, "GetInlinePolicyForPermissionSet", err)
	}
	details.InlinePolicy = inline.InlinePolicy

	boundary, err := c.clients.SSOAdmin.GetPermissionsBoundaryForPermissionSet(ctx, &ssoadmin.GetPermissionsBoundaryForPermissionSetInput{
		InstanceArn:      aws.String(instanceARN),
		PermissionSetArn: aws.String(arn),
	})
	switch {
	case err == nil:
		details.PermissionsBoundary = boundary.PermissionsBoundary
	case isNotFound(err):
		// No boundary attached
	default:
		return details, idcerrors.FromAWSError(idcerrors.ServiceSSOAdmin, "GetPermissionsBoundaryForPermissionSet", err)
	}

	nextToken = nil
	for {
		out, err := c.clients.SSOAdmin.ListTagsForResource(ctx, &ssoadmin.ListTagsForResourceInput{
			InstanceArn: aws.String(instanceARN),
			ResourceArn: aws.String(arn),
			NextToken:   nextToken,
		})
		if err != nil {
			return details, idcerrors.FromAWSError(idcerrors.ServiceSSOAdmin, "ListTagsForResource", err)
		}
		details.Tags = append(details.Tags, out.Tags...)
		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}

	return details, nil
}

// accountIDs returns the configured accounts or every account in the organization
func (c *Collector) accountIDs(ctx context.Context) ([]string, error) {
	if len(c.config.AccountIDs) > 0 {
		ids := lo.Uniq(lo.Map(c.config.AccountIDs, func(id string, _ int) string { return strings.TrimSpace(id) }))
		ids = lo.Compact(ids)
		sort.Strings(ids)
		return ids, nil
	}

	var ids []string
	var nextToken *string
	for {
		out, err := c.clients.Organizations.ListAccounts(ctx, &organizations.ListAccountsInput{NextToken: nextToken})
		if err != nil {
			return nil, idcerrors.FromAWSError(idcerrors.ServiceOrganizations, "ListAccounts", err)
		}
		for _, account := range out.Accounts {
			ids = append(ids, aws.ToString(account.Id))
		}
		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}

	sort.Strings(ids)
	return ids, nil
}

func (c *Collector) collectAssignments(ctx context.Context, instanceARN string, accounts []string) ([]types.AssignmentData, error) {
	perAccount, err := mapWithLimit(ctx, accounts, c.config.MaxConcurrency, func(ctx context.Context, accountID string) ([]types.AssignmentData, error) {
		return c.accountAssignments(ctx, instanceARN, accountID)
	})
	if err != nil {
		return nil, err
	}

	assignments := lo.Flatten(perAccount)
	sort.Slice(assignments, func(i, j int) bool { return assignments[i].Key() < assignments[j].Key() })
	return assignments, nil
}

func (c *Collector) accountAssignments(ctx context.Context, instanceARN, accountID string) ([]types.AssignmentData, error) {
	var provisioned []string
	var nextToken *string

	for {
		out, err := c.clients.SSOAdmin.ListPermissionSetsProvisionedToAccount(ctx, &ssoadmin.ListPermissionSetsProvisionedToAccountInput{
			InstanceArn: aws.String(instanceARN),
			AccountId:   aws.String(accountID),
			NextToken:   nextToken,
		})
		if err != nil {
			return nil, idcerrors.FromAWSError(idcerrors.ServiceSSOAdmin, "ListPermissionSetsProvisionedToAccount", err)
		}
		provisioned = append(provisioned, out.PermissionSets...)
		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}

	var assignments []types.AssignmentData
	for _, permissionSetARN := range provisioned {
		nextToken = nil
		for {
			out, err := c.clients.SSOAdmin.ListAccountAssignments(ctx, &ssoadmin.ListAccountAssignmentsInput{
				InstanceArn:      aws.String(instanceARN),
				AccountId:        aws.String(accountID),
				PermissionSetArn: aws.String(permissionSetARN),
				NextToken:        nextToken,
			})
			if err != nil {
				return nil, idcerrors.FromAWSError(idcerrors.ServiceSSOAdmin, "ListAccountAssignments", err)
			}
			for _, a := range out.AccountAssignments {
				assignments = append(assignments, NormalizeAssignment(a))
			}
			if out.NextToken == nil {
				break
			}
			nextToken = out.NextToken
		}
	}

	return assignments, nil
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	return stderrors.As(err, &apiErr) && apiErr.ErrorCode() == "ResourceNotFoundException"
}
