package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"golang.org/x/sync/errgroup"

	"github.com/yairfalse/idcvault/internal/differ"
	"github.com/yairfalse/idcvault/pkg/types"
)

const s3ListConcurrency = 8

// S3API is the subset of the S3 client used by S3Storage
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Storage stores backups and diffs as JSON objects in a bucket
type S3Storage struct {
	client S3API
	bucket string
	prefix string
}

// NewS3Storage creates a new S3-backed storage
func NewS3Storage(config Config) (*S3Storage, error) {
	if config.S3Client == nil {
		return nil, fmt.Errorf("s3 client is required")
	}
	if config.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	prefix := strings.Trim(config.Prefix, "/")
	if prefix != "" {
		prefix += "/"
	}

	return &S3Storage{
		client: config.S3Client,
		bucket: config.Bucket,
		prefix: prefix,
	}, nil
}

// SaveBackup uploads a backup to <prefix>backups/<id>.json
func (s *S3Storage) SaveBackup(ctx context.Context, backup *types.BackupData) error {
	if backup == nil {
		return fmt.Errorf("invalid backup: nil")
	}
	if err := backup.Validate(); err != nil {
		return fmt.Errorf("invalid backup: %w", err)
	}

	key, err := s.backupKey(backup.ID())
	if err != nil {
		return err
	}

	return s.putJSON(ctx, key, backup)
}

// LoadBackup downloads a backup by ID
func (s *S3Storage) LoadBackup(ctx context.Context, id string) (*types.BackupData, error) {
	key, err := s.backupKey(id)
	if err != nil {
		return nil, err
	}

	var backup types.BackupData
	if _, err := s.getJSON(ctx, key, &backup); err != nil {
		return nil, fmt.Errorf("backup %s: %w", id, err)
	}
	return &backup, nil
}

// ListBackups returns metadata for all backups under the prefix, newest first
func (s *S3Storage) ListBackups(ctx context.Context) ([]BackupInfo, error) {
	var keys []string

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix + "backups/"),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list backups: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(key, ".json") {
				keys = append(keys, key)
			}
		}
	}

	var (
		mu    sync.Mutex
		infos = []BackupInfo{}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s3ListConcurrency)

	for _, key := range keys {
		key := key // per-iteration copy (go 1.21 loop semantics)
		g.Go(func() error {
			var backup types.BackupData
			size, err := s.getJSON(gctx, key, &backup)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					return nil // deleted between list and get
				}
				return fmt.Errorf("failed to read %s: %w", key, err)
			}

			info := infoFromBackup(&backup, "s3://"+path.Join(s.bucket, key), size)
			mu.Lock()
			infos = append(infos, info)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sortInfos(infos)
	return infos, nil
}

// DeleteBackup removes a stored backup
func (s *S3Storage) DeleteBackup(ctx context.Context, id string) error {
	key, err := s.backupKey(id)
	if err != nil {
		return err
	}

	// DeleteObject succeeds on missing keys
	if _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("backup %s: %w", id, mapS3Error(err))
	}

	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("failed to delete backup %s: %w", id, err)
	}
	return nil
}

// SaveDiff uploads a diff result to <prefix>diffs/<source>__<target>.json
func (s *S3Storage) SaveDiff(ctx context.Context, result *differ.DiffResult) error {
	if result == nil {
		return fmt.Errorf("invalid diff: nil")
	}

	name, err := diffName(result.SourceBackupID, result.TargetBackupID)
	if err != nil {
		return err
	}

	m, err := result.ToMap()
	if err != nil {
		return fmt.Errorf("failed to encode diff: %w", err)
	}

	return s.putJSON(ctx, s.prefix+"diffs/"+name+".json", m)
}

// LoadDiff downloads the stored diff between two backups
func (s *S3Storage) LoadDiff(ctx context.Context, sourceID, targetID string) (*differ.DiffResult, error) {
	name, err := diffName(sourceID, targetID)
	if err != nil {
		return nil, err
	}

	var m map[string]any
	if _, err := s.getJSON(ctx, s.prefix+"diffs/"+name+".json", &m); err != nil {
		return nil, fmt.Errorf("diff %s: %w", name, err)
	}

	return differ.DiffResultFromMap(m)
}

func (s *S3Storage) backupKey(id string) (string, error) {
	safe, err := sanitizeID(id)
	if err != nil {
		return "", fmt.Errorf("backup: %w", err)
	}
	return s.prefix + "backups/" + safe + ".json", nil
}

func (s *S3Storage) putJSON(ctx context.Context, key string, data interface{}) error {
	payload, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

func (s *S3Storage) getJSON(ctx context.Context, key string, target interface{}) (int64, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return 0, mapS3Error(err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read object: %w", err)
	}

	if err := json.Unmarshal(data, target); err != nil {
		return 0, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	return int64(len(data)), nil
}

// mapS3Error turns missing-object responses into ErrNotFound
func mapS3Error(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return ErrNotFound
		}
	}
	return err
}
