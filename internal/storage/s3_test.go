package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yairfalse/idcvault/internal/differ"
)

// MockS3Client is a mock implementation of S3API
type MockS3Client struct {
	mock.Mock
}

func (m *MockS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.PutObjectOutput), args.Error(1)
}

func (m *MockS3Client) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.GetObjectOutput), args.Error(1)
}

func (m *MockS3Client) HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.HeadObjectOutput), args.Error(1)
}

func (m *MockS3Client) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.DeleteObjectOutput), args.Error(1)
}

func (m *MockS3Client) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.ListObjectsV2Output), args.Error(1)
}

func objectBody(t *testing.T, v any) *s3.GetObjectOutput {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}
}

func keyMatcher(key string) interface{} {
	return mock.MatchedBy(func(in *s3.GetObjectInput) bool {
		return aws.ToString(in.Key) == key
	})
}

func newTestS3Storage(t *testing.T, client *MockS3Client) *S3Storage {
	t.Helper()
	s, err := NewS3Storage(Config{S3Client: client, Bucket: "vault", Prefix: "/team/"})
	require.NoError(t, err)
	return s
}

func TestS3Storage_SaveBackup(t *testing.T) {
	client := new(MockS3Client)
	s := newTestS3Storage(t, client)

	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return aws.ToString(in.Bucket) == "vault" &&
			aws.ToString(in.Key) == "team/backups/backup-1.json" &&
			aws.ToString(in.ContentType) == "application/json"
	})).Return(&s3.PutObjectOutput{}, nil)

	err := s.SaveBackup(context.Background(), testBackup("backup-1", time.Now()))
	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestS3Storage_LoadBackup(t *testing.T) {
	client := new(MockS3Client)
	s := newTestS3Storage(t, client)

	backup := testBackup("backup-1", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	client.On("GetObject", mock.Anything, keyMatcher("team/backups/backup-1.json")).Return(objectBody(t, backup), nil)

	loaded, err := s.LoadBackup(context.Background(), "backup-1")
	require.NoError(t, err)
	assert.Equal(t, "backup-1", loaded.ID())
	assert.Equal(t, backup.Users, loaded.Users)
}

func TestS3Storage_LoadBackup_NotFound(t *testing.T) {
	client := new(MockS3Client)
	s := newTestS3Storage(t, client)

	client.On("GetObject", mock.Anything, mock.Anything).Return(nil, &s3types.NoSuchKey{Message: aws.String("missing")})

	_, err := s.LoadBackup(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestS3Storage_ListBackups(t *testing.T) {
	client := new(MockS3Client)
	s := newTestS3Storage(t, client)

	client.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return in.ContinuationToken == nil
	})).Return(&s3.ListObjectsV2Output{
		Contents: []s3types.Object{
			{Key: aws.String("team/backups/a.json")},
			{Key: aws.String("team/backups/readme.txt")},
		},
		IsTruncated:           aws.Bool(true),
		NextContinuationToken: aws.String("page-2"),
	}, nil).Once()
	client.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return aws.ToString(in.ContinuationToken) == "page-2"
	})).Return(&s3.ListObjectsV2Output{
		Contents:    []s3types.Object{{Key: aws.String("team/backups/b.json")}},
		IsTruncated: aws.Bool(false),
	}, nil).Once()

	older := testBackup("a", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	newer := testBackup("b", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	client.On("GetObject", mock.Anything, keyMatcher("team/backups/a.json")).Return(objectBody(t, older), nil)
	client.On("GetObject", mock.Anything, keyMatcher("team/backups/b.json")).Return(objectBody(t, newer), nil)

	infos, err := s.ListBackups(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "b", infos[0].ID)
	assert.Equal(t, "a", infos[1].ID)
	assert.Equal(t, "s3://vault/team/backups/b.json", infos[0].Location)
	client.AssertExpectations(t)
}

func TestS3Storage_DeleteBackup(t *testing.T) {
	client := new(MockS3Client)
	s := newTestS3Storage(t, client)

	client.On("HeadObject", mock.Anything, mock.MatchedBy(func(in *s3.HeadObjectInput) bool {
		return aws.ToString(in.Key) == "team/backups/present.json"
	})).Return(&s3.HeadObjectOutput{}, nil)
	client.On("HeadObject", mock.Anything, mock.MatchedBy(func(in *s3.HeadObjectInput) bool {
		return aws.ToString(in.Key) == "team/backups/absent.json"
	})).Return(nil, &smithy.GenericAPIError{Code: "NotFound"})
	client.On("DeleteObject", mock.Anything, mock.Anything).Return(&s3.DeleteObjectOutput{}, nil).Once()

	require.NoError(t, s.DeleteBackup(context.Background(), "present"))
	assert.ErrorIs(t, s.DeleteBackup(context.Background(), "absent"), ErrNotFound)
	client.AssertExpectations(t)
}

func TestS3Storage_DiffRoundTrip(t *testing.T) {
	client := new(MockS3Client)
	s := newTestS3Storage(t, client)

	source := testBackup("s", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	target := testBackup("t", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	target.Groups = nil

	result, err := newEngineForTest().ComputeDiff(source, target)
	require.NoError(t, err)

	var uploaded []byte
	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return aws.ToString(in.Key) == "team/diffs/s__t.json"
	})).Run(func(args mock.Arguments) {
		in := args.Get(1).(*s3.PutObjectInput)
		uploaded, _ = io.ReadAll(in.Body)
	}).Return(&s3.PutObjectOutput{}, nil)

	require.NoError(t, s.SaveDiff(context.Background(), result))
	require.NotEmpty(t, uploaded)

	client.On("GetObject", mock.Anything, keyMatcher("team/diffs/s__t.json")).Return(
		&s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(uploaded))}, nil)

	loaded, err := s.LoadDiff(context.Background(), "s", "t")
	require.NoError(t, err)
	assert.Equal(t, result.Summary, loaded.Summary)
	require.Len(t, loaded.GroupDiff.Deleted, 1)
	assert.Equal(t, "g1", loaded.GroupDiff.Deleted[0].ResourceID)
}

func TestNewS3Storage_Validation(t *testing.T) {
	_, err := NewS3Storage(Config{Bucket: "b"})
	assert.Error(t, err)

	_, err = NewS3Storage(Config{S3Client: new(MockS3Client)})
	assert.Error(t, err)

	s, err := NewS3Storage(Config{S3Client: new(MockS3Client), Bucket: "b"})
	require.NoError(t, err)
	assert.Equal(t, "", s.prefix)
}

func newEngineForTest() *differ.Engine {
	return differ.NewEngine()
}
