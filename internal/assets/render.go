package assets

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// ScriptTags renders the <script> tags of an entry. Without a single
// runtime chunk the entry is an ES module and only the entry script is
// emitted; the browser loads its shared chunks through the imports.
func (p *Pipeline) ScriptTags(entry string) (template.HTML, error) {
	files, err := p.Entrypoint(entry)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if !p.config.SingleRuntimeChunk {
		if len(files.JS) > 0 {
			fmt.Fprintf(&b, `<script type="module" src="%s"></script>`, template.HTMLEscapeString(files.JS[0]))
		}
		return template.HTML(b.String()), nil //nolint:gosec
	}

	for _, src := range files.JS {
		fmt.Fprintf(&b, `<script src="%s" defer></script>`, template.HTMLEscapeString(src))
	}
	return template.HTML(b.String()), nil //nolint:gosec
}

// LinkTags renders the stylesheet <link> tags of an entry.
func (p *Pipeline) LinkTags(entry string) (template.HTML, error) {
	files, err := p.Entrypoint(entry)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, href := range files.CSS {
		fmt.Fprintf(&b, `<link rel="stylesheet" href="%s">`, template.HTMLEscapeString(href))
	}
	return template.HTML(b.String()), nil //nolint:gosec
}

// Asset returns the public URL of a logical asset such as "build/images/logo.png".
func (p *Pipeline) Asset(logical string) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.result == nil {
		return "", ErrNotBuilt
	}
	url, ok := p.result.Manifest[strings.TrimPrefix(logical, "/")]
	if !ok {
		return "", fmt.Errorf("asset %q not found in manifest", logical)
	}
	return url, nil
}

// Handler returns an http.HandlerFunc that renders the given template with the entry's scripts and styles
func (p *Pipeline) Handler(templateName, title, entry string, contextFn func(ctx context.Context) any) (http.HandlerFunc, error) {
	if p.tmpl == nil {
		return nil, errors.New("template not loaded, use NewWithTemplateDir")
	}

	if contextFn == nil {
		contextFn = func(ctx context.Context) any {
			return nil
		}
	}

	return func(w http.ResponseWriter, r *http.Request) {
		files, err := p.Entrypoint(entry)
		if err != nil {
			log.Error().Err(err).Msg("Failed to load entrypoint")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		data := map[string]any{
			"Title":   title,
			"Entry":   entry,
			"Scripts": files.JS,
			"Styles":  files.CSS,
			"Context": contextFn(r.Context()),
		}

		if err := p.tmpl.ExecuteTemplate(w, templateName, data); err != nil {
			log.Error().Err(err).Msg("Failed to render template")
		}
	}, nil
}
