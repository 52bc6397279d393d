package output

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/yairfalse/idcvault/internal/differ"
)

// palette holds the colors used by the console renderer
type palette struct {
	header   *color.Color
	created  *color.Color
	deleted  *color.Color
	modified *color.Color
	faint    *color.Color
	hunk     *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		header:   color.New(color.Bold),
		created:  color.New(color.FgGreen),
		deleted:  color.New(color.FgRed),
		modified: color.New(color.FgYellow),
		faint:    color.New(color.Faint),
		hunk:     color.New(color.FgCyan),
	}
	for _, c := range []*color.Color{p.header, p.created, p.deleted, p.modified, p.faint, p.hunk} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// ConsoleRenderer writes a human readable diff report
type ConsoleRenderer struct {
	opts Options
}

// NewConsoleRenderer creates a console renderer
func NewConsoleRenderer(opts Options) *ConsoleRenderer {
	return &ConsoleRenderer{opts: opts}
}

// Render writes the report to w
func (r *ConsoleRenderer) Render(w io.Writer, result *differ.DiffResult) error {
	if result == nil {
		return fmt.Errorf("no diff result to render")
	}

	colors := newPalette(ColorEnabled(w, r.opts.NoColor))
	var buf bytes.Buffer

	buf.WriteString(colors.header.Sprint("Identity Center Diff") + "\n")
	buf.WriteString(strings.Repeat("=", 20) + "\n")
	fmt.Fprintf(&buf, "Source: %s (%s)\n", result.SourceBackupID, result.SourceTimestamp.Format(r.opts.timeFormat()))
	fmt.Fprintf(&buf, "Target: %s (%s)\n\n", result.TargetBackupID, result.TargetTimestamp.Format(r.opts.timeFormat()))

	if !result.HasChanges() {
		buf.WriteString(colors.created.Sprint("No changes detected") + "\n")
		_, err := w.Write(buf.Bytes())
		return err
	}

	r.writeSummary(&buf, result)

	for _, diff := range result.Diffs() {
		if !diff.HasChanges() {
			continue
		}
		buf.WriteString("\n" + colors.header.Sprintf("%s (%d)", kindTitle(diff.ResourceType), diff.TotalChanges()) + "\n")
		for _, change := range diff.Created {
			buf.WriteString(colors.created.Sprintf("  + %s", changeLabel(change)) + "\n")
		}
		for _, change := range diff.Deleted {
			buf.WriteString(colors.deleted.Sprintf("  - %s", changeLabel(change)) + "\n")
		}
		for _, change := range diff.Modified {
			buf.WriteString(colors.modified.Sprintf("  ~ %s", changeLabel(change)) + "\n")
			r.writeAttributes(&buf, colors, change)
		}
	}

	_, err := w.Write(buf.Bytes())
	return err
}

func (r *ConsoleRenderer) writeSummary(buf *bytes.Buffer, result *differ.DiffResult) {
	tw := tabwriter.NewWriter(buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RESOURCE\tCREATED\tDELETED\tMODIFIED\tTOTAL")
	fmt.Fprintln(tw, "--------\t-------\t-------\t--------\t-----")
	for _, diff := range result.Diffs() {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n",
			diff.ResourceType, len(diff.Created), len(diff.Deleted), len(diff.Modified), diff.TotalChanges())
	}
	actions := result.Summary.ChangesByAction
	fmt.Fprintf(tw, "total\t%d\t%d\t%d\t%d\n",
		actions[differ.ActionCreated], actions[differ.ActionDeleted], actions[differ.ActionModified], result.Summary.TotalChanges)
	tw.Flush()
}

func (r *ConsoleRenderer) writeAttributes(buf *bytes.Buffer, colors palette, change differ.ResourceChange) {
	for _, attr := range change.AttributeChanges {
		if before, after, ok := documentPair(attr); ok {
			fmt.Fprintf(buf, "      %s:\n", attr.AttributeName)
			diff := unifiedDiff("before/"+attr.AttributeName, "after/"+attr.AttributeName, before, after)
			for _, line := range strings.Split(strings.TrimRight(diff, "\n"), "\n") {
				buf.WriteString("        " + colorDiffLine(colors, line) + "\n")
			}
			continue
		}

		fmt.Fprintf(buf, "      %s: %s %s %s\n",
			attr.AttributeName,
			colors.deleted.Sprint(formatValue(attr.BeforeValue)),
			colors.faint.Sprint("->"),
			colors.created.Sprint(formatValue(attr.AfterValue)))
	}
}

func colorDiffLine(colors palette, line string) string {
	switch {
	case strings.HasPrefix(line, "---") || strings.HasPrefix(line, "+++"):
		return colors.header.Sprint(line)
	case strings.HasPrefix(line, "-"):
		return colors.deleted.Sprint(line)
	case strings.HasPrefix(line, "+"):
		return colors.created.Sprint(line)
	case strings.HasPrefix(line, "@@"):
		return colors.hunk.Sprint(line)
	default:
		return line
	}
}
