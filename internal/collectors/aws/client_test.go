package aws

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	idcerrors "github.com/yairfalse/idcvault/internal/errors"
)

func TestNewClientsFromConfig(t *testing.T) {
	clients := NewClientsFromConfig(aws.Config{Region: "eu-central-1"})

	assert.NotNil(t, clients.IdentityStore)
	assert.NotNil(t, clients.SSOAdmin)
	assert.NotNil(t, clients.Organizations)
	assert.NotNil(t, clients.STS)
	assert.NotNil(t, clients.S3)
	assert.Equal(t, "eu-central-1", clients.GetRegion())
}

func TestLoadConfig_RegionFromConfig(t *testing.T) {
	t.Setenv("AWS_CONFIG_FILE", "/nonexistent")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", "/nonexistent")
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_REGION", "")
	t.Setenv("AWS_DEFAULT_REGION", "")

	cfg, err := LoadConfig(context.Background(), ClientConfig{Region: "us-west-2"})
	require.NoError(t, err)
	assert.Equal(t, "us-west-2", cfg.Region)

	_, err = LoadConfig(context.Background(), ClientConfig{})
	require.Error(t, err)
	var idcErr *idcerrors.IDCError
	require.True(t, stderrors.As(err, &idcErr))
	assert.Equal(t, idcerrors.ErrorTypeConfiguration, idcErr.Type)
}

func TestValidateCredentials(t *testing.T) {
	clients, m := newMockClients()

	m.sts.On("GetCallerIdentity", mock.Anything, mock.Anything).Return(&sts.GetCallerIdentityOutput{
		Account: aws.String("123456789012"),
		Arn:     aws.String("arn:aws:sts::123456789012:assumed-role/Admin/me"),
	}, nil).Once()

	identity, err := clients.ValidateCredentials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "123456789012", identity.Account)

	m.sts.On("GetCallerIdentity", mock.Anything, mock.Anything).Return(nil,
		&smithy.GenericAPIError{Code: "ExpiredToken", Message: "token expired"}).Once()

	_, err = clients.ValidateCredentials(context.Background())
	require.Error(t, err)
	assert.Equal(t, 77, idcerrors.GetExitCode(err))

	m.sts.On("GetCallerIdentity", mock.Anything, mock.Anything).Return(&sts.GetCallerIdentityOutput{}, nil).Once()
	_, err = clients.ValidateCredentials(context.Background())
	assert.Error(t, err)
}

func TestMapWithLimit(t *testing.T) {
	var inFlight, peak int32

	results, err := mapWithLimit(context.Background(), []int{1, 2, 3, 4, 5, 6}, 2, func(ctx context.Context, n int) (int, error) {
		cur := atomic.AddInt32(&inFlight, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
				break
			}
		}
		defer atomic.AddInt32(&inFlight, -1)
		return n * 10, nil
	})

	require.NoError(t, err)
	assert.Equal(t, []int{10, 20, 30, 40, 50, 60}, results)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestMapWithLimit_Error(t *testing.T) {
	boom := stderrors.New("boom")

	_, err := mapWithLimit(context.Background(), []string{"a", "b"}, 0, func(ctx context.Context, s string) (string, error) {
		if s == "b" {
			return "", boom
		}
		return s, nil
	})
	assert.ErrorIs(t, err, boom)
}
