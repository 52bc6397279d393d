package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/yairfalse/idcvault/internal/differ"
)

// Format represents the available output formats
type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatCSV     Format = "csv"
	FormatHTML    Format = "html"
)

// Formats lists every supported format
var Formats = []Format{FormatConsole, FormatJSON, FormatYAML, FormatCSV, FormatHTML}

// Renderer writes a diff result in one output format
type Renderer interface {
	Render(w io.Writer, result *differ.DiffResult) error
}

// Options holds output configuration
type Options struct {
	NoColor    bool
	TimeFormat string
}

// DefaultTimeFormat is used when Options.TimeFormat is empty
const DefaultTimeFormat = "2006-01-02 15:04:05 MST"

func (o Options) timeFormat() string {
	if o.TimeFormat == "" {
		return DefaultTimeFormat
	}
	return o.TimeFormat
}

// ParseFormat parses a format name. "table" is accepted for console.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", "table":
		return FormatConsole, nil
	case FormatConsole, FormatJSON, FormatYAML, FormatCSV, FormatHTML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format: %s (expected console, json, yaml, csv or html)", s)
	}
}

// NewRenderer creates the renderer for format
func NewRenderer(format Format, opts Options) (Renderer, error) {
	switch format {
	case FormatConsole, "":
		return NewConsoleRenderer(opts), nil
	case FormatJSON:
		return NewJSONRenderer(), nil
	case FormatYAML:
		return NewYAMLRenderer(), nil
	case FormatCSV:
		return NewCSVRenderer(), nil
	case FormatHTML:
		return NewHTMLRenderer(opts), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// ColorEnabled reports whether colored output should be written to w
func ColorEnabled(w io.Writer, noColor bool) bool {
	if noColor || os.Getenv("NO_COLOR") != "" || os.Getenv("IDCVAULT_NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
