package errors

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFprintError(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	tests := []struct {
		name     string
		err      error
		contains []string
	}{
		{
			name: "Credentials Error",
			err:  AWSCredentialsError(fmt.Errorf("ExpiredToken: token expired")),
			contains: []string{
				"AWS credentials expired",
				"Security token has expired",
				"aws sso login",
				"aws sts get-caller-identity",
			},
		},
		{
			name: "Network Error",
			err: NetworkError(ServiceIdentityStore, "identitystore.us-east-1.amazonaws.com").
				WithSolutions("Retry later"),
			contains: []string{
				"Network connection failed",
				"Cannot reach identitystore.us-east-1.amazonaws.com",
				"Retry later",
			},
		},
		{
			name: "Backup Not Found",
			err:  BackupNotFoundError("backup-123", "local"),
			contains: []string{
				`Backup "backup-123" not found`,
				"1. idcvault backup list",
				"Help: idcvault backup --help",
			},
		},
		{
			name:     "Plain Error",
			err:      fmt.Errorf("boom"),
			contains: []string{"Error: boom"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			FprintError(&buf, tt.err)

			output := buf.String()
			for _, expected := range tt.contains {
				assert.Contains(t, output, expected, "Output should contain: %s", expected)
			}
		})
	}
}

func TestFprintError_WrappedIDCError(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	var buf bytes.Buffer
	FprintError(&buf, fmt.Errorf("running diff: %w", AWSRegionError()))

	assert.Contains(t, buf.String(), "AWS region not specified")
	assert.Contains(t, buf.String(), "Solutions:")
}

func TestFormatErrorWithContext(t *testing.T) {
	err := AWSCredentialsError(fmt.Errorf("no credentials found")).
		WithCause("No credentials found in environment").
		WithSolutions("Set AWS_PROFILE")

	context := map[string]string{
		"Region":  "us-east-1",
		"Profile": "default",
		"CI":      "true",
	}

	output := FormatErrorWithContext(err, context)

	assert.Contains(t, output, "AWS credentials not found")
	assert.Contains(t, output, "Type: Authentication/STS")
	assert.Contains(t, output, "Context:\n  CI: true\n  Profile: default\n  Region: us-east-1\n")
	assert.Contains(t, output, "Set AWS_PROFILE")
	assert.NotContains(t, output, "\x1b[")
}

func TestFormatErrorWithContext_PlainError(t *testing.T) {
	assert.Equal(t, "Error: boom\n", FormatErrorWithContext(fmt.Errorf("boom"), nil))
}
