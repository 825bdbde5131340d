// ABOUTME: Public API reference page rendered from embedded Markdown
// ABOUTME: Converted once with goldmark (GFM tables) and wrapped in an HTML template

package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed docs/api.md
var docsFS embed.FS

//go:embed templates/docs.html
var templateFS embed.FS

// renderDocs converts the embedded API reference into a complete HTML page.
func renderDocs() ([]byte, error) {
	md, err := docsFS.ReadFile("docs/api.md")
	if err != nil {
		return nil, fmt.Errorf("reading api reference: %w", err)
	}

	var body bytes.Buffer
	converter := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := converter.Convert(md, &body); err != nil {
		return nil, fmt.Errorf("converting api reference: %w", err)
	}

	tmpl, err := template.ParseFS(templateFS, "templates/docs.html")
	if err != nil {
		return nil, fmt.Errorf("parsing docs template: %w", err)
	}

	var page bytes.Buffer
	data := struct {
		Title   string
		Content template.HTML
	}{
		Title:   "Inventory API Reference",
		Content: template.HTML(body.String()),
	}
	if err := tmpl.Execute(&page, data); err != nil {
		return nil, fmt.Errorf("rendering docs template: %w", err)
	}
	return page.Bytes(), nil
}

// docsHandler serves a pre-rendered page.
func docsHandler(page []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(page)
	}
}
