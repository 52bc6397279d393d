package output

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/yairfalse/idcvault/internal/differ"
)

// YAMLRenderer writes the diff result as YAML
type YAMLRenderer struct{}

// NewYAMLRenderer creates a YAML renderer
func NewYAMLRenderer() *YAMLRenderer {
	return &YAMLRenderer{}
}

// Render writes the plain map form of result
func (r *YAMLRenderer) Render(w io.Writer, result *differ.DiffResult) error {
	if result == nil {
		return fmt.Errorf("no diff result to render")
	}

	m, err := result.ToMap()
	if err != nil {
		return fmt.Errorf("failed to convert diff result: %w", err)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return enc.Close()
}
