package errors

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/aws/smithy-go"
)

// AWSCredentialsError creates an AWS credentials error with guidance
func AWSCredentialsError(originalErr error) *IDCError {
	err := New(ErrorTypeAuthentication, ServiceSTS, "AWS credentials not found")
	err.Err = originalErr
	err.WithCause("No valid credential source detected")

	if originalErr != nil && strings.Contains(originalErr.Error(), "ExpiredToken") {
		err.Message = "AWS credentials expired"
		err.WithCause("Security token has expired")
		err.WithSolutions(
			"aws sso login --profile <profile>",
			"Refresh your temporary credentials",
		)
	} else if err.Environment == "CI/CD detected" {
		err.WithSolutions(
			"Configure an IAM role for the pipeline with Identity Center read access",
			"export AWS_ACCESS_KEY_ID=your-key AWS_SECRET_ACCESS_KEY=your-secret",
		)
	} else {
		err.WithSolutions(
			"aws configure",
			"aws sso login --profile <profile>",
			"Pass --profile to select a named profile",
		)
	}

	err.WithVerify("aws sts get-caller-identity")
	err.WithHelp("idcvault backup create --help")

	return err
}

// AWSRegionError creates an AWS region configuration error
func AWSRegionError() *IDCError {
	err := New(ErrorTypeConfiguration, ServiceSSOAdmin, "AWS region not specified")
	err.WithCause("Identity Center is a regional service and needs the region of its home instance")

	err.WithSolutions(
		"export AWS_REGION=us-east-1",
		"Set aws.region in the idcvault config file",
		"Add --region flag to your command",
	)

	err.WithVerify("aws configure get region")
	err.WithHelp("idcvault --help")

	return err
}

// InstanceNotFoundError is returned when no Identity Center instance is visible
func InstanceNotFoundError(region string) *IDCError {
	err := New(ErrorTypeNotFound, ServiceSSOAdmin, "No IAM Identity Center instance found")
	if region != "" {
		err.WithCause(fmt.Sprintf("sso-admin ListInstances returned nothing in %s", region))
	}

	err.WithSolutions(
		"Use the region where Identity Center is enabled",
		"Set aws.instance_arn and aws.identity_store_id explicitly",
		"Run from the management or delegated administrator account",
	)

	err.WithVerify("aws sso-admin list-instances")
	err.WithHelp("idcvault backup create --help")

	return err
}

// PermissionError creates a permission error for an Identity Center call
func PermissionError(service Service, operation string) *IDCError {
	err := New(ErrorTypePermission, service, fmt.Sprintf("Permission denied calling %s", operation))

	switch service {
	case ServiceIdentityStore:
		err.WithSolutions("Grant identitystore:List* and identitystore:Describe* to the caller")
	case ServiceSSOAdmin:
		err.WithSolutions("Grant sso:List*, sso:Describe* and sso:Get* to the caller")
	case ServiceOrganizations:
		err.WithSolutions("Grant organizations:ListAccounts to the caller")
	case ServiceS3:
		err.WithSolutions("Grant s3:GetObject, s3:PutObject, s3:ListBucket and s3:DeleteObject on the backup bucket")
	}
	err.WithSolutions("Use the AWS Policy Simulator to test permissions")

	err.WithVerify("aws sts get-caller-identity")
	err.WithHelp("idcvault --help")

	return err
}

// NetworkError creates a network connectivity error
func NetworkError(service Service, endpoint string) *IDCError {
	err := New(ErrorTypeNetwork, service, "Network connection failed")
	err.WithCause(fmt.Sprintf("Cannot reach %s", endpoint))

	err.WithSolutions(
		"Check internet connectivity",
		"Check proxy settings: echo $HTTP_PROXY $HTTPS_PROXY",
		"Verify VPC endpoints if running in a private subnet",
	)

	err.WithVerify("aws sts get-caller-identity")
	err.WithHelp("idcvault --help")

	return err
}

// FromAWSError classifies an AWS SDK error for display
func FromAWSError(service Service, operation string, err error) error {
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if !stderrors.As(err, &apiErr) {
		return Wrap(err, ErrorTypeService, service, fmt.Sprintf("%s failed", operation))
	}

	var wrapped *IDCError
	switch apiErr.ErrorCode() {
	case "AccessDenied", "AccessDeniedException", "UnauthorizedOperation":
		wrapped = PermissionError(service, operation)
	case "ExpiredToken", "ExpiredTokenException", "UnrecognizedClientException", "InvalidClientTokenId":
		wrapped = AWSCredentialsError(err)
	case "ResourceNotFoundException", "NoSuchBucket", "NoSuchKey", "NotFound":
		wrapped = New(ErrorTypeNotFound, service, fmt.Sprintf("%s: resource not found", operation))
	default:
		wrapped = New(ErrorTypeService, service, fmt.Sprintf("%s failed", operation))
	}

	wrapped.Err = err
	if wrapped.Type != ErrorTypeAuthentication {
		wrapped.WithCause(fmt.Sprintf("%s: %s", apiErr.ErrorCode(), apiErr.ErrorMessage()))
	}
	return wrapped
}
