package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/yairfalse/idcvault/internal/differ"
)

// BackupNotFoundError is returned when a backup ID cannot be resolved
func BackupNotFoundError(backupID string, backend string) *IDCError {
	err := New(ErrorTypeNotFound, ServiceLocal, fmt.Sprintf("Backup %q not found", backupID))
	if backend == "s3" {
		err.Service = ServiceS3
	}
	err.WithCause(fmt.Sprintf("No backup with that ID in the %s backend", backend))

	err.WithSolutions(
		"idcvault backup list",
		"Pass a path to a backup file instead of an ID",
	)

	err.WithVerify("idcvault backup list")
	err.WithHelp("idcvault backup --help")

	return err
}

// StorageError wraps a failure reading or writing backup storage
func StorageError(operation string, err error) *IDCError {
	wrapped := Wrap(err, ErrorTypeStorage, ServiceLocal, fmt.Sprintf("Storage %s failed", operation))

	wrapped.WithSolutions(
		"Check storage.base_dir exists and is writable",
		"Check storage.s3_bucket and its permissions when using the s3 backend",
	)
	wrapped.WithHelp("idcvault --help")

	return wrapped
}

// ConfigError creates a configuration validation error
func ConfigError(err error) *IDCError {
	wrapped := Wrap(err, ErrorTypeConfiguration, ServiceLocal, "Invalid configuration")

	wrapped.WithSolutions(
		"Check ~/.idcvault/config.yaml",
		"Check IDCVAULT_* environment variables",
	)
	wrapped.WithHelp("idcvault --help")

	return wrapped
}

// FromDiffError maps diff engine failures to validation errors
func FromDiffError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case stderrors.Is(err, differ.ErrSnapshotRequired), stderrors.Is(err, differ.ErrMetadataRequired):
		wrapped := Wrap(err, ErrorTypeValidation, ServiceLocal, "Backup is incomplete")
		wrapped.WithSolutions(
			"Check both backups were written by idcvault backup create",
			"idcvault backup show <id>",
		)
		return wrapped
	case stderrors.Is(err, differ.ErrInvalidResult),
		stderrors.Is(err, differ.ErrInvalidChange),
		stderrors.Is(err, differ.ErrInvalidSummary):
		wrapped := Wrap(err, ErrorTypeValidation, ServiceLocal, "Diff result is invalid")
		wrapped.WithSolutions("Check both backups carry a backup_id in their metadata")
		return wrapped
	default:
		return err
	}
}
