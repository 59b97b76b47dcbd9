package panel

import (
	"html/template"
	"io"
	"time"
)

var exportTemplate = template.Must(template.New("export").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Exported Text</title><style>body{display:flex;gap:20px;padding:20px;background:#0f172a;color:#f1f5f9;font-family:sans-serif}textarea{width:50%;height:90vh;background:#1e293b;color:#f1f5f9;padding:15px;border:1px solid #334155;border-radius:8px;font-size:16px;line-height:1.5}</style></head>
<body>
<textarea>{{.Left}}</textarea>
<textarea>{{.Right}}</textarea>
</body>
</html>
`))

// ExportHTML writes both panels side by side as a standalone HTML page.
// The text is escaped.
func ExportHTML(w io.Writer, left, right string) error {
	return exportTemplate.Execute(w, struct{ Left, Right string }{left, right})
}

// Export writes the panel as HTML.
func (p *Panel) Export(w io.Writer) error {
	return ExportHTML(w, p.Text(Left), p.Text(Right))
}

// ExportFileName returns the default export file name for t.
func ExportFileName(t time.Time) string {
	return "dual_text_" + t.UTC().Format("2006-01-02") + ".html"
}
