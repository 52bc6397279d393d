package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/yairfalse/idcvault/internal/differ"
	idcerrors "github.com/yairfalse/idcvault/internal/errors"
	"github.com/yairfalse/idcvault/internal/output"
	"github.com/yairfalse/idcvault/internal/storage"
)

func newDiffCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff [source] [target]",
		Short: "Show what changed between two backups",
		Long: `Compare two backups and report created, deleted and modified users,
groups, permission sets and account assignments.

Each backup is a stored backup ID, a path to a backup file, or one of the
shortcuts "latest" and "previous". With no arguments the two most recent
backups are compared. With one argument it is compared against the latest.

Exit codes with --exit-code: 0 = no changes, 1 = changes detected.`,
		Example: `  # Compare the two most recent backups
  idcvault diff

  # Compare two stored backups
  idcvault diff backup-20240101-000000 backup-20240201-000000

  # Compare a file against the latest stored backup, as JSON
  idcvault diff --from snapshot.json -o json

  # Use in CI/CD pipelines
  if ! idcvault diff --exit-code > /dev/null; then
    echo "Identity Center changed"
  fi`,
		Args: cobra.MaximumNArgs(2),
		RunE: runDiff,
	}

	cmd.Flags().String("from", "", "source backup (ID, file or latest/previous)")
	cmd.Flags().String("to", "", "target backup (ID, file or latest/previous)")
	cmd.Flags().StringSlice("membership-fields", nil, "list attributes compared as unordered sets (default from diff.membership_fields)")
	cmd.Flags().Bool("save", false, "store the diff result alongside the backups")
	cmd.Flags().Bool("cached", false, "show a previously saved diff instead of recomputing")
	cmd.Flags().StringP("file", "f", "", "write the report to a file instead of stdout")
	cmd.Flags().Bool("exit-code", false, "exit with status 1 when changes are detected")

	return cmd
}

// diffRefs picks source and target references from args and flags
func diffRefs(cmd *cobra.Command, args []string) (string, string, error) {
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")

	if len(args) > 0 && from != "" {
		return "", "", fmt.Errorf("source given both as argument and --from")
	}
	if len(args) > 1 && to != "" {
		return "", "", fmt.Errorf("target given both as argument and --to")
	}

	switch len(args) {
	case 2:
		from, to = args[0], args[1]
	case 1:
		from = args[0]
	}

	if from == "" && to == "" {
		return refPrevious, refLatest, nil
	}
	if from == "" {
		from = refPrevious
	}
	if to == "" {
		to = refLatest
	}
	return from, to, nil
}

func runDiff(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	c := GetConfig()
	l := getLogger()

	from, to, err := diffRefs(cmd, args)
	if err != nil {
		return idcerrors.Wrap(err, idcerrors.ErrorTypeValidation, idcerrors.ServiceLocal, "Invalid diff arguments").
			WithHelp("idcvault diff --help")
	}

	format, opts, err := outputSettings()
	if err != nil {
		return err
	}

	st, err := openStorage(ctx, c)
	if err != nil {
		return err
	}

	cached, _ := cmd.Flags().GetBool("cached")
	var result *differ.DiffResult
	if cached {
		if from, err = resolveID(ctx, st, from); err != nil {
			return err
		}
		if to, err = resolveID(ctx, st, to); err != nil {
			return err
		}
		result, err = st.LoadDiff(ctx, from, to)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return idcerrors.New(idcerrors.ErrorTypeNotFound, idcerrors.ServiceLocal,
					fmt.Sprintf("No saved diff for %s and %s", from, to)).
					WithSolutions(fmt.Sprintf("idcvault diff %s %s --save", from, to))
			}
			return idcerrors.StorageError("load diff", err)
		}
	} else {
		source, err := resolveBackup(ctx, st, from)
		if err != nil {
			return err
		}
		target, err := resolveBackup(ctx, st, to)
		if err != nil {
			return err
		}

		fields := c.Diff.MembershipFields
		if cmd.Flags().Changed("membership-fields") {
			fields, _ = cmd.Flags().GetStringSlice("membership-fields")
		}

		engine := differ.NewEngine(differ.WithLogger(l), differ.WithMembershipFields(fields...))
		result, err = engine.ComputeDiff(source, target)
		if err != nil {
			return idcerrors.FromDiffError(err)
		}

		if save, _ := cmd.Flags().GetBool("save"); save {
			if err := st.SaveDiff(ctx, result); err != nil {
				return idcerrors.StorageError("save diff", err)
			}
			l.WithFields(map[string]interface{}{
				"source": result.SourceBackupID,
				"target": result.TargetBackupID,
			}).Info("Diff saved")
		}
	}

	renderer, err := output.NewRenderer(format, opts)
	if err != nil {
		return err
	}

	render := func(w io.Writer) error {
		if err := renderer.Render(w, result); err != nil {
			return fmt.Errorf("failed to render diff: %w", err)
		}
		return nil
	}
	if path, _ := cmd.Flags().GetString("file"); path != "" {
		err = writeReport(path, render)
	} else {
		err = render(cmd.OutOrStdout())
	}
	if err != nil {
		return err
	}

	if exitCode, _ := cmd.Flags().GetBool("exit-code"); exitCode && result.HasChanges() {
		return &exitError{code: 1}
	}
	return nil
}
