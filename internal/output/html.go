package output

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/yairfalse/idcvault/internal/differ"
)

const htmlReport = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Identity Center Diff: {{.Result.SourceBackupID}} to {{.Result.TargetBackupID}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2em; color: #222; }
table { border-collapse: collapse; margin-bottom: 1.5em; }
th, td { border: 1px solid #ccc; padding: 4px 10px; text-align: left; vertical-align: top; }
th { background: #f3f3f3; }
.created { color: #1a7f37; }
.deleted { color: #cf222e; }
.modified { color: #9a6700; }
pre { margin: 0; font-size: 12px; }
</style>
</head>
<body>
<h1>Identity Center Diff</h1>
<p>Source: <code>{{.Result.SourceBackupID}}</code> ({{formatTime .Result.SourceTimestamp}})<br>
Target: <code>{{.Result.TargetBackupID}}</code> ({{formatTime .Result.TargetTimestamp}})</p>
{{if not .Result.HasChanges}}<p class="created">No changes detected</p>{{else}}
<h2>Summary</h2>
<table>
<tr><th>Resource</th><th>Created</th><th>Deleted</th><th>Modified</th><th>Total</th></tr>
{{range .Result.Diffs}}<tr><td>{{title .ResourceType}}</td><td>{{len .Created}}</td><td>{{len .Deleted}}</td><td>{{len .Modified}}</td><td>{{.TotalChanges}}</td></tr>
{{end}}<tr><th>Total</th><td colspan="3"></td><th>{{.Result.Summary.TotalChanges}}</th></tr>
</table>
{{range .Result.Diffs}}{{if .HasChanges}}
<h2>{{title .ResourceType}}</h2>
<table>
<tr><th>Change</th><th>Resource</th><th>Attribute</th><th>Before</th><th>After</th></tr>
{{range .Created}}<tr class="created"><td>created</td><td>{{label .}}</td><td colspan="3"></td></tr>
{{end}}{{range .Deleted}}<tr class="deleted"><td>deleted</td><td>{{label .}}</td><td colspan="3"></td></tr>
{{end}}{{range $change := .Modified}}{{range .AttributeChanges}}<tr class="modified"><td>modified</td><td>{{label $change}}</td><td>{{.AttributeName}}</td>{{with document .}}<td colspan="2"><pre>{{.}}</pre></td>{{else}}<td>{{value .BeforeValue}}</td><td>{{value .AfterValue}}</td>{{end}}</tr>
{{end}}{{end}}</table>
{{end}}{{end}}{{end}}
</body>
</html>
`

// HTMLRenderer writes a standalone HTML report
type HTMLRenderer struct {
	opts Options
	tmpl *template.Template
}

// NewHTMLRenderer creates an HTML renderer
func NewHTMLRenderer(opts Options) *HTMLRenderer {
	funcs := template.FuncMap{
		"title":      kindTitle,
		"label":      changeLabel,
		"value":      formatValue,
		"formatTime": func(t time.Time) string { return t.Format(opts.timeFormat()) },
		"document": func(attr differ.AttributeChange) string {
			before, after, ok := documentPair(attr)
			if !ok {
				return ""
			}
			return unifiedDiff("before/"+attr.AttributeName, "after/"+attr.AttributeName, before, after)
		},
	}
	return &HTMLRenderer{
		opts: opts,
		tmpl: template.Must(template.New("report").Funcs(funcs).Parse(htmlReport)),
	}
}

// Render writes the report to w
func (r *HTMLRenderer) Render(w io.Writer, result *differ.DiffResult) error {
	if result == nil {
		return fmt.Errorf("no diff result to render")
	}

	data := struct {
		Result *differ.DiffResult
	}{Result: result}

	if err := r.tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render HTML: %w", err)
	}
	return nil
}
