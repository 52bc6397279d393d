package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aymanbagabas/go-udiff"

	"github.com/yairfalse/idcvault/internal/differ"
	"github.com/yairfalse/idcvault/pkg/types"
)

const noValue = "<none>"

// formatValue renders an attribute value on a single line
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return noValue
	case string:
		return fmt.Sprintf("%q", val)
	case bool:
		return fmt.Sprintf("%t", val)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	}
}

// plainValue renders a value without quoting strings
func plainValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case map[string]any:
		if val == nil {
			return ""
		}
	}
	return formatValue(v)
}

// documentPair returns both sides as multi-line text when the change is to a
// policy document or other multi-line string. JSON documents are indented so
// the diff is per statement rather than a single line.
func documentPair(change differ.AttributeChange) (string, string, bool) {
	before, beforeOK := stringOrNil(change.BeforeValue)
	after, afterOK := stringOrNil(change.AfterValue)
	if !beforeOK || !afterOK {
		return "", "", false
	}

	before, beforeJSON := indentJSON(before)
	after, afterJSON := indentJSON(after)
	if beforeJSON || afterJSON || strings.Contains(before, "\n") || strings.Contains(after, "\n") {
		return ensureNewline(before), ensureNewline(after), true
	}
	return "", "", false
}

func stringOrNil(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", true
	case string:
		return val, true
	default:
		return "", false
	}
}

func indentJSON(s string) (string, bool) {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		return s, false
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(trimmed), "", "  "); err != nil {
		return s, false
	}
	return buf.String(), true
}

func ensureNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

// unifiedDiff generates a unified diff between two documents
func unifiedDiff(oldName, newName, oldContent, newContent string) string {
	edits := udiff.Strings(oldContent, newContent)
	unified, err := udiff.ToUnifiedDiff(oldName, newName, oldContent, edits, udiff.DefaultContextLines)
	if err != nil {
		return ""
	}
	return unified.String()
}

// changeLabel is the display name of a change: name and ID, or just the ID
func changeLabel(change differ.ResourceChange) string {
	if change.ResourceName == "" || change.ResourceName == change.ResourceID {
		return change.ResourceID
	}
	return fmt.Sprintf("%s (%s)", change.ResourceName, change.ResourceID)
}

var kindTitles = map[string]string{
	types.KindUsers:          "Users",
	types.KindGroups:         "Groups",
	types.KindPermissionSets: "Permission Sets",
	types.KindAssignments:    "Account Assignments",
}

func kindTitle(kind string) string {
	if title, ok := kindTitles[kind]; ok {
		return title
	}
	return kind
}
