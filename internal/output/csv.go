package output

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/yairfalse/idcvault/internal/differ"
)

var csvHeader = []string{"resource_type", "change_type", "resource_id", "resource_name", "attribute", "before", "after"}

// CSVRenderer writes one row per created or deleted resource and one row
// per changed attribute of a modified resource
type CSVRenderer struct{}

// NewCSVRenderer creates a CSV renderer
func NewCSVRenderer() *CSVRenderer {
	return &CSVRenderer{}
}

// Render writes the rows to w
func (r *CSVRenderer) Render(w io.Writer, result *differ.DiffResult) error {
	if result == nil {
		return fmt.Errorf("no diff result to render")
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, diff := range result.Diffs() {
		for _, change := range diff.Changes() {
			for _, row := range csvRows(change) {
				if err := cw.Write(row); err != nil {
					return err
				}
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

func csvRows(change differ.ResourceChange) [][]string {
	base := []string{change.ResourceType, change.ChangeType.String(), change.ResourceID, change.ResourceName}

	switch change.ChangeType {
	case differ.ChangeCreated:
		return [][]string{append(base, "", "", plainValue(change.AfterValue))}
	case differ.ChangeDeleted:
		return [][]string{append(base, "", plainValue(change.BeforeValue), "")}
	}

	rows := make([][]string, 0, len(change.AttributeChanges))
	for _, attr := range change.AttributeChanges {
		row := append(append([]string{}, base...), attr.AttributeName, plainValue(attr.BeforeValue), plainValue(attr.AfterValue))
		rows = append(rows, row)
	}
	return rows
}
