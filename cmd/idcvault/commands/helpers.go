package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/yairfalse/idcvault/internal/cache"
	awscollector "github.com/yairfalse/idcvault/internal/collectors/aws"
	idcerrors "github.com/yairfalse/idcvault/internal/errors"
	"github.com/yairfalse/idcvault/internal/output"
	"github.com/yairfalse/idcvault/internal/storage"
	"github.com/yairfalse/idcvault/pkg/config"
	"github.com/yairfalse/idcvault/pkg/types"
)

// Backup references that resolve against the stored backup list
const (
	refLatest   = "latest"
	refPrevious = "previous"
)

// openStorage creates the configured storage backend
func openStorage(ctx context.Context, c *config.Config) (storage.Storage, error) {
	sc := storage.Config{
		Backend: c.Storage.Backend,
		BaseDir: c.Storage.BaseDir,
		Bucket:  c.Storage.S3Bucket,
		Prefix:  c.Storage.S3Prefix,
	}

	if c.Storage.Backend == config.BackendS3 {
		awsCfg, err := awscollector.LoadConfig(ctx, awscollector.ClientConfig{
			Region:  c.AWS.Region,
			Profile: c.AWS.Profile,
		})
		if err != nil {
			return nil, err
		}
		sc.S3Client = s3.NewFromConfig(awsCfg)
	}

	st, err := storage.New(sc)
	if err != nil {
		return nil, idcerrors.StorageError("open", err)
	}
	return storage.NewCachedStorage(st, cache.DefaultConfig()), nil
}

func outputSettings() (output.Format, output.Options, error) {
	c := GetConfig()
	format, err := output.ParseFormat(c.Output.Format)
	if err != nil {
		return "", output.Options{}, idcerrors.Wrap(err, idcerrors.ErrorTypeValidation, idcerrors.ServiceLocal, "Invalid output format").
			WithSolutions("Use one of: console, json, yaml, csv, html")
	}
	return format, output.Options{NoColor: c.Output.NoColor}, nil
}

// resolveBackup loads a backup by file path, stored ID, or the latest/previous shortcuts
func resolveBackup(ctx context.Context, st storage.Storage, ref string) (*types.BackupData, error) {
	if info, err := os.Stat(ref); err == nil && !info.IsDir() {
		return loadBackupFile(ref)
	}

	id, err := resolveID(ctx, st, ref)
	if err != nil {
		return nil, err
	}

	backup, err := st.LoadBackup(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, idcerrors.BackupNotFoundError(id, GetConfig().Storage.Backend)
		}
		return nil, idcerrors.StorageError("load", err)
	}
	return backup, nil
}

// resolveID returns ref unchanged unless it is one of the latest/previous shortcuts
func resolveID(ctx context.Context, st storage.Storage, ref string) (string, error) {
	if ref != refLatest && ref != refPrevious {
		return ref, nil
	}
	return resolveRecent(ctx, st, ref)
}

// resolveRecent maps latest to the newest stored backup and previous to the one before it
func resolveRecent(ctx context.Context, st storage.Storage, ref string) (string, error) {
	infos, err := st.ListBackups(ctx)
	if err != nil {
		return "", idcerrors.StorageError("list", err)
	}

	index := 0
	if ref == refPrevious {
		index = 1
	}
	if len(infos) <= index {
		return "", idcerrors.New(idcerrors.ErrorTypeNotFound, idcerrors.ServiceLocal,
			fmt.Sprintf("Not enough backups to resolve %q", ref)).
			WithCause(fmt.Sprintf("%d backup(s) stored", len(infos))).
			WithSolutions("idcvault backup create").
			WithVerify("idcvault backup list")
	}
	return infos[index].ID, nil
}

func loadBackupFile(path string) (*types.BackupData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, idcerrors.StorageError("read", err)
	}

	var backup types.BackupData
	if err := json.Unmarshal(data, &backup); err != nil {
		return nil, idcerrors.Wrap(err, idcerrors.ErrorTypeValidation, idcerrors.ServiceLocal,
			fmt.Sprintf("Failed to parse backup file %s", path))
	}
	if err := backup.Validate(); err != nil {
		return nil, idcerrors.Wrap(err, idcerrors.ErrorTypeValidation, idcerrors.ServiceLocal,
			fmt.Sprintf("Invalid backup file %s", path))
	}
	return &backup, nil
}

// writeReport renders into a new file at path and reports close errors
func writeReport(path string, render func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return idcerrors.StorageError("write", err)
	}
	if err := render(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return idcerrors.StorageError("write", err)
	}
	return nil
}
