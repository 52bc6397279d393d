package output

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/yairfalse/idcvault/internal/storage"
	"github.com/yairfalse/idcvault/pkg/types"
)

// RenderBackupList writes stored backups as a table, JSON or YAML
func RenderBackupList(w io.Writer, infos []storage.BackupInfo, format Format, opts Options) error {
	switch format {
	case FormatJSON, FormatYAML:
		if infos == nil {
			infos = []storage.BackupInfo{}
		}
		return encodeStructured(w, infos, format)
	case FormatConsole, "":
	default:
		return fmt.Errorf("unsupported format for backup list: %s", format)
	}

	if len(infos) == 0 {
		_, err := fmt.Fprintln(w, "No backups found")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIMESTAMP\tUSERS\tGROUPS\tPERMISSION SETS\tASSIGNMENTS\tSIZE")
	fmt.Fprintln(tw, "--\t---------\t-----\t------\t---------------\t-----------\t----")
	for _, info := range infos {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			truncateString(info.ID, 40),
			info.Timestamp.Format(opts.timeFormat()),
			info.ResourceCounts[types.KindUsers],
			info.ResourceCounts[types.KindGroups],
			info.ResourceCounts[types.KindPermissionSets],
			info.ResourceCounts[types.KindAssignments],
			formatBytes(info.Size))
	}
	return tw.Flush()
}

// RenderBackup writes a backup summary, or the full backup as JSON or YAML
func RenderBackup(w io.Writer, backup *types.BackupData, format Format, opts Options) error {
	if backup == nil || backup.Metadata == nil {
		return fmt.Errorf("no backup to render")
	}

	switch format {
	case FormatJSON, FormatYAML:
		return encodeStructured(w, backup, format)
	case FormatConsole, "":
	default:
		return fmt.Errorf("unsupported format for backup show: %s", format)
	}

	meta := backup.Metadata
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Backup ID:\t%s\n", meta.BackupID)
	fmt.Fprintf(tw, "Timestamp:\t%s\n", meta.Timestamp.Format(opts.timeFormat()))
	if meta.InstanceARN != "" {
		fmt.Fprintf(tw, "Instance:\t%s\n", meta.InstanceARN)
	}
	if meta.IdentityStoreID != "" {
		fmt.Fprintf(tw, "Identity store:\t%s\n", meta.IdentityStoreID)
	}
	if meta.Source != "" {
		fmt.Fprintf(tw, "Source:\t%s\n", meta.Source)
	}
	if meta.Version != "" {
		fmt.Fprintf(tw, "Version:\t%s\n", meta.Version)
	}
	fmt.Fprintln(tw)
	counts := backup.Counts()
	for _, kind := range []string{types.KindUsers, types.KindGroups, types.KindPermissionSets, types.KindAssignments} {
		fmt.Fprintf(tw, "%s:\t%d\n", kindTitle(kind), counts[kind])
	}
	fmt.Fprintf(tw, "Total:\t%d\n", backup.ResourceCount())
	return tw.Flush()
}

func encodeStructured(w io.Writer, v any, format Format) error {
	if format == FormatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
		return enc.Close()
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// truncateString truncates a string to the specified length
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
