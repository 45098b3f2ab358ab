package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"

	"github.com/google/uuid"

	"github.com/lexakit/lexa/internal/extraction"
)

// htmlPage is the standalone visualization served for the html download
// format. Rendered on demand; never persisted.
var htmlPage = template.Must(template.New("results").Funcs(template.FuncMap{
	"inc":   func(i int) int { return i + 1 },
	"attrs": attrsJSON,
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Extraction Results — {{.JobID}}</title>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem auto; max-width: 60rem; color: #1a1a2e; }
h1 { font-size: 1.3rem; }
.meta { color: #666; margin-bottom: 1.5rem; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ddd; padding: 0.5rem 0.75rem; text-align: left; vertical-align: top; }
th { background: #f4f4f8; }
td.class { font-weight: 600; white-space: nowrap; }
pre.attrs { margin: 0; font-size: 0.85rem; white-space: pre-wrap; }
.empty { color: #999; font-style: italic; }
</style>
</head>
<body>
<h1>Extraction Results</h1>
<p class="meta">Job {{.JobID}} &middot; {{len .Records}} record(s)</p>
{{if .Records}}
<table>
<thead><tr><th>#</th><th>Class</th><th>Text</th><th>Attributes</th></tr></thead>
<tbody>
{{range $i, $r := .Records}}
<tr>
<td>{{inc $i}}</td>
<td class="class">{{$r.Class}}</td>
<td>{{$r.Text}}</td>
<td>{{if $r.Attributes}}<pre class="attrs">{{attrs $r.Attributes}}</pre>{{else}}<span class="empty">none</span>{{end}}</td>
</tr>
{{end}}
</tbody>
</table>
{{else}}
<p class="empty">No records were extracted.</p>
{{end}}
</body>
</html>
`))

type htmlData struct {
	JobID   string
	Records []extraction.Record
}

// RenderHTML builds the visualization page for a job's records.
func (s *Service) RenderHTML(jobID uuid.UUID, records []extraction.Record) ([]byte, error) {
	var buf bytes.Buffer
	err := htmlPage.Execute(&buf, htmlData{JobID: jobID.String(), Records: records})
	if err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return buf.Bytes(), nil
}

func attrsJSON(m map[string]any) string {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", m)
	}
	return string(b)
}
