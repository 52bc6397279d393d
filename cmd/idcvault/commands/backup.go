package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	awscollector "github.com/yairfalse/idcvault/internal/collectors/aws"
	idcerrors "github.com/yairfalse/idcvault/internal/errors"
	"github.com/yairfalse/idcvault/internal/output"
	"github.com/yairfalse/idcvault/internal/storage"
	"github.com/yairfalse/idcvault/pkg/config"
	"github.com/yairfalse/idcvault/pkg/types"
)

func newBackupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create and manage Identity Center backups",
		Long: `Create, list, inspect and delete backups of an IAM Identity Center instance.

Backups are written to the configured storage backend: JSON files under
storage.base_dir, or objects under storage.s3_prefix in storage.s3_bucket.`,
	}

	cmd.AddCommand(newBackupCreateCommand())
	cmd.AddCommand(newBackupListCommand())
	cmd.AddCommand(newBackupShowCommand())
	cmd.AddCommand(newBackupDeleteCommand())

	return cmd
}

func newBackupCreateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Capture the current state of Identity Center",
		Long: `Capture users, groups, permission sets and account assignments from the
Identity Center instance and save them as a new backup.

The instance is discovered with sso-admin ListInstances unless
aws.instance_arn and aws.identity_store_id are configured. Assignments are
collected for every account in the organization unless --account is given.`,
		Example: `  # Back up using the default profile and region
  idcvault backup create

  # Name the backup and limit assignment collection to two accounts
  idcvault backup create --id before-migration --account 111111111111 --account 222222222222

  # Write the backup to a file instead of storage
  idcvault backup create --file snapshot.json`,
		Args: cobra.NoArgs,
		RunE: runBackupCreate,
	}

	cmd.Flags().String("id", "", "backup ID (default backup-<UTC timestamp>)")
	cmd.Flags().StringSlice("account", nil, "limit assignment collection to these account IDs")
	cmd.Flags().String("instance-arn", "", "Identity Center instance ARN")
	cmd.Flags().String("identity-store-id", "", "identity store ID of the instance")
	cmd.Flags().Int("max-concurrency", 0, "maximum concurrent AWS API calls")
	cmd.Flags().String("file", "", "write the backup to this file instead of storage ('-' for stdout)")

	return cmd
}

func runBackupCreate(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	c := GetConfig()
	l := getLogger()

	collectorConfig := awscollector.CollectorConfig{
		InstanceARN:     c.AWS.InstanceARN,
		IdentityStoreID: c.AWS.IdentityStoreID,
		MaxConcurrency:  c.AWS.MaxConcurrency,
		Version:         Version,
	}
	collectorConfig.BackupID, _ = cmd.Flags().GetString("id")
	collectorConfig.AccountIDs, _ = cmd.Flags().GetStringSlice("account")
	if v, _ := cmd.Flags().GetString("instance-arn"); v != "" {
		collectorConfig.InstanceARN = v
	}
	if v, _ := cmd.Flags().GetString("identity-store-id"); v != "" {
		collectorConfig.IdentityStoreID = v
	}
	if v, _ := cmd.Flags().GetInt("max-concurrency"); v > 0 {
		collectorConfig.MaxConcurrency = v
	}
	if collectorConfig.BackupID == "" {
		collectorConfig.BackupID = defaultBackupID(time.Now())
	}
	file, _ := cmd.Flags().GetString("file")

	if !config.AWSCredentialsConfigured() {
		l.Debug("No AWS credentials found in environment or shared files, relying on the SDK default chain")
	}

	clients, err := awscollector.NewClients(ctx, awscollector.ClientConfig{
		Region:  c.AWS.Region,
		Profile: c.AWS.Profile,
	})
	if err != nil {
		return err
	}

	identity, err := clients.ValidateCredentials(ctx)
	if err != nil {
		return err
	}
	l.WithFields(map[string]interface{}{
		"account": identity.Account,
		"arn":     identity.ARN,
		"region":  clients.GetRegion(),
	}).Info("Using AWS identity")

	// Validate the destination before spending time on collection
	var st storage.Storage
	if file == "" {
		st, err = openStorage(ctx, c)
		if err != nil {
			return err
		}
	}

	backup, err := awscollector.NewCollector(clients, collectorConfig, l).Collect(ctx)
	if err != nil {
		return err
	}

	if file != "" {
		return writeBackupFile(cmd.OutOrStdout(), file, backup)
	}

	if err := st.SaveBackup(ctx, backup); err != nil {
		return idcerrors.StorageError("save", err)
	}

	counts := backup.Counts()
	fmt.Fprintf(cmd.OutOrStdout(), "Backup %s saved: %d users, %d groups, %d permission sets, %d assignments\n",
		backup.ID(), counts[types.KindUsers], counts[types.KindGroups], counts[types.KindPermissionSets], counts[types.KindAssignments])
	return nil
}

func defaultBackupID(now time.Time) string {
	return "backup-" + now.UTC().Format("20060102-150405")
}

func writeBackupFile(stdout io.Writer, path string, backup *types.BackupData) error {
	data, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal backup: %w", err)
	}

	if path == "-" {
		_, err = fmt.Fprintln(stdout, string(data))
		return err
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return idcerrors.StorageError("write", err)
	}
	fmt.Fprintf(stdout, "Backup %s written to %s\n", backup.ID(), path)
	return nil
}

func newBackupListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored backups, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			format, opts, err := outputSettings()
			if err != nil {
				return err
			}

			st, err := openStorage(ctx, GetConfig())
			if err != nil {
				return err
			}

			infos, err := st.ListBackups(ctx)
			if err != nil {
				return idcerrors.StorageError("list", err)
			}

			return output.RenderBackupList(cmd.OutOrStdout(), infos, format, opts)
		},
	}
}

func newBackupShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <backup-id|file|latest|previous>",
		Short: "Show a backup summary, or the full backup with -o json|yaml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			format, opts, err := outputSettings()
			if err != nil {
				return err
			}

			st, err := openStorage(ctx, GetConfig())
			if err != nil {
				return err
			}

			backup, err := resolveBackup(ctx, st, args[0])
			if err != nil {
				return err
			}

			return output.RenderBackup(cmd.OutOrStdout(), backup, format, opts)
		},
	}
}

func newBackupDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <backup-id>...",
		Aliases: []string{"rm"},
		Short:   "Delete stored backups",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			c := GetConfig()

			st, err := openStorage(ctx, c)
			if err != nil {
				return err
			}

			for _, id := range args {
				if err := st.DeleteBackup(ctx, id); err != nil {
					if errors.Is(err, storage.ErrNotFound) {
						return idcerrors.BackupNotFoundError(id, c.Storage.Backend)
					}
					return idcerrors.StorageError("delete", err)
				}
				getLogger().WithField("backup_id", id).Debug("Backup deleted")
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted backup %s\n", id)
			}
			return nil
		},
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
