package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/yairfalse/idcvault/internal/differ"
)

// JSONRenderer writes the diff result as indented JSON
type JSONRenderer struct{}

// NewJSONRenderer creates a JSON renderer
func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{}
}

// Render writes the plain map form of result
func (r *JSONRenderer) Render(w io.Writer, result *differ.DiffResult) error {
	if result == nil {
		return fmt.Errorf("no diff result to render")
	}

	m, err := result.ToMap()
	if err != nil {
		return fmt.Errorf("failed to convert diff result: %w", err)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	_, err = fmt.Fprintln(w, string(data))
	return err
}
