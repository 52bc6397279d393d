package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yairfalse/idcvault/internal/differ"
)

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "Authentication Error", err: AWSCredentialsError(nil), expected: 77},
		{name: "Permission Error", err: PermissionError(ServiceSSOAdmin, "ListInstances"), expected: 77},
		{name: "Configuration Error", err: AWSRegionError(), expected: 78},
		{name: "Not Found Error", err: BackupNotFoundError("b", "local"), expected: 66},
		{name: "Validation Error", err: FromDiffError(differ.ErrSnapshotRequired), expected: 65},
		{name: "Storage Error", err: StorageError("write", fmt.Errorf("disk full")), expected: 74},
		{name: "Network Error", err: NetworkError(ServiceS3, "s3.amazonaws.com"), expected: 69},
		{name: "Wrapped Error", err: fmt.Errorf("ctx: %w", AWSRegionError()), expected: 78},
		{name: "Generic Error", err: fmt.Errorf("some generic error"), expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetExitCode(tt.err))
		})
	}
}

func TestIDCError_Error(t *testing.T) {
	err := New(ErrorTypeConfiguration, ServiceLocal, "bad config").
		WithCause("missing field").
		WithSolutions("fix it").
		WithVerify("idcvault version").
		WithHelp("idcvault --help")

	msg := err.Error()
	assert.Contains(t, msg, "Error: bad config")
	assert.Contains(t, msg, "Cause: missing field")
	assert.Contains(t, msg, "  fix it")
	assert.Contains(t, msg, "Verify: idcvault version")
	assert.Contains(t, msg, "Help: idcvault --help")
	assert.Contains(t, fmt.Sprintf("%+v", err), "[Configuration/Local]")
}

func TestWrap_Unwrap(t *testing.T) {
	cause := stderrors.New("root cause")
	err := Wrap(cause, ErrorTypeStorage, ServiceS3, "upload failed")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "root cause", err.Cause)
	assert.True(t, IsUserError(err))
	assert.False(t, IsUserError(cause))
}

func TestFromDiffError(t *testing.T) {
	assert.NoError(t, FromDiffError(nil))

	for _, sentinel := range []error{
		differ.ErrSnapshotRequired,
		differ.ErrMetadataRequired,
		differ.ErrInvalidResult,
		differ.ErrInvalidChange,
	} {
		err := FromDiffError(fmt.Errorf("compute: %w", sentinel))

		var idcErr *IDCError
		require.True(t, stderrors.As(err, &idcErr), sentinel.Error())
		assert.Equal(t, ErrorTypeValidation, idcErr.Type)
		assert.ErrorIs(t, err, sentinel)
	}

	other := stderrors.New("other")
	assert.Same(t, other, FromDiffError(other))
}

func TestFromAWSError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorType
	}{
		{
			name:     "access denied",
			err:      &smithy.GenericAPIError{Code: "AccessDeniedException", Message: "not allowed"},
			expected: ErrorTypePermission,
		},
		{
			name:     "expired token",
			err:      &smithy.GenericAPIError{Code: "ExpiredTokenException", Message: "expired"},
			expected: ErrorTypeAuthentication,
		},
		{
			name:     "not found",
			err:      &smithy.GenericAPIError{Code: "ResourceNotFoundException", Message: "gone"},
			expected: ErrorTypeNotFound,
		},
		{
			name:     "throttled",
			err:      &smithy.GenericAPIError{Code: "ThrottlingException", Message: "slow down"},
			expected: ErrorTypeService,
		},
		{
			name:     "non api error",
			err:      stderrors.New("dial tcp: timeout"),
			expected: ErrorTypeService,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FromAWSError(ServiceIdentityStore, "ListUsers", fmt.Errorf("operation error: %w", tt.err))

			var idcErr *IDCError
			require.True(t, stderrors.As(err, &idcErr))
			assert.Equal(t, tt.expected, idcErr.Type)
			assert.ErrorIs(t, err, tt.err)
		})
	}

	assert.NoError(t, FromAWSError(ServiceS3, "PutObject", nil))
}

func TestFromAWSError_CauseCarriesCode(t *testing.T) {
	err := FromAWSError(ServiceSSOAdmin, "ListInstances", &smithy.GenericAPIError{Code: "AccessDeniedException", Message: "nope"})

	var idcErr *IDCError
	require.True(t, stderrors.As(err, &idcErr))
	assert.Equal(t, "AccessDeniedException: nope", idcErr.Cause)
	assert.Equal(t, "Permission denied calling ListInstances", idcErr.Message)
}
