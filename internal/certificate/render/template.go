package render

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
)

// TemplateRenderer renders documents as structured plain text. The layout
// mirrors the issued paper documents: header with organisation and
// certificate number, one block per asset, compliance standards footer.
type TemplateRenderer struct {
	tmpl *template.Template
}

const documentTemplate = `{{ .Organisation.Name }}
{{ .Organisation.Address }} | {{ .Organisation.Email }}

{{ if eq .Kind "final_report" }}FINAL COMPLIANCE REPORT{{ else }}CERTIFICATE OF SECURE DESTRUCTION{{ end }}

Certificate No: {{ .Number }}
Date of Issue:  {{ .IssuedAt.Format "2006-01-02" }}
Issued By:      {{ .IssuedBy }}
Issued To:      {{ .Organisation.Client }}

Items ({{ len .Items }}):
{{ range .Items }}
  Asset ID:     {{ .AssetID }}
  Category:     {{ .Category }}
{{- if .SerialNumber }}
  Serial No:    {{ .SerialNumber }}
{{- end }}
  Condition:    {{ .Condition }}
  Final Stage:  {{ .Stage }}
{{- if .Method }}
  Method:       {{ .Method }}
{{- end }}
  Completed:    {{ .CompletedAt.Format "2006-01-02 15:04:05" }} UTC
{{- if .EvidenceRefs }}
  Evidence:     {{ len .EvidenceRefs }} photo(s) on file
{{- range .EvidenceRefs }}
                {{ . }}
{{- end }}
{{- end }}
{{ end }}
Compliance Standards:
{{- range .Organisation.Standards }}
  - {{ . }}
{{- end }}
`

// NewTemplateRenderer parses the document template once at startup.
func NewTemplateRenderer() (*TemplateRenderer, error) {
	tmpl, err := template.New("document").Parse(documentTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse document template: %w", err)
	}
	return &TemplateRenderer{tmpl: tmpl}, nil
}

// Render produces the document bytes for the given data.
func (r *TemplateRenderer) Render(_ context.Context, data Data) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render %s %s: %w", data.Kind, data.Number, err)
	}
	return buf.Bytes(), nil
}
