package report

import (
	"bytes"
	"context"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"mime"
	"os"
	"path/filepath"
)

//go:embed templates/report.html
var templatesFS embed.FS

var reportTemplate = template.Must(template.ParseFS(templatesFS, "templates/report.html"))

type reportView struct {
	*Document
	Word bool
	Logo template.URL
}

// HTMLRenderer renders the report as a standalone HTML page. It is also the
// source markup for the Word and PDF renderers.
type HTMLRenderer struct{}

func NewHTMLRenderer() *HTMLRenderer { return &HTMLRenderer{} }

func (r *HTMLRenderer) Render(_ context.Context, doc *Document) ([]byte, error) {
	return renderTemplate(doc, false)
}

func (r *HTMLRenderer) ContentType() string { return "text/html; charset=utf-8" }
func (r *HTMLRenderer) Extension() string   { return "html" }

// WordRenderer emits the report as Word-compatible HTML, which Word opens
// as a regular .doc document.
type WordRenderer struct{}

func NewWordRenderer() *WordRenderer { return &WordRenderer{} }

func (r *WordRenderer) Render(_ context.Context, doc *Document) ([]byte, error) {
	return renderTemplate(doc, true)
}

func (r *WordRenderer) ContentType() string { return "application/msword" }
func (r *WordRenderer) Extension() string   { return "doc" }

func renderTemplate(doc *Document, word bool) ([]byte, error) {
	view := reportView{Document: doc, Word: word, Logo: logoDataURL(doc.Display.LogoPath)}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("report: render template: %w", err)
	}
	return buf.Bytes(), nil
}

// logoDataURL inlines the logo so the document has no external references.
// A missing logo is not an error; the report is rendered without it.
func logoDataURL(path string) template.URL {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = "image/png"
	}
	return template.URL("data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data))
}
