package assets

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"maps"
	"sync"
)

type BuildMetadata struct {
	Outputs map[string]OutputInfo `json:"outputs"`
}

type OutputInfo struct {
	Bytes      int          `json:"bytes"`
	EntryPoint string       `json:"entryPoint"`
	CSSBundle  string       `json:"cssBundle"`
	Imports    []ImportInfo `json:"imports"`
}

type ImportInfo struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	External bool   `json:"external"`
}

// EntrypointFiles lists the public URLs a page needs for one entry.
type EntrypointFiles struct {
	JS  []string `json:"js,omitempty"`
	CSS []string `json:"css,omitempty"`
}

// Entrypoints is the content of entrypoints.json.
type Entrypoints struct {
	Entrypoints map[string]EntrypointFiles `json:"entrypoints"`
}

// Manifest maps logical asset names (e.g. "build/app.js") to their public
// URLs (e.g. "/build/app.3F2A7BC6.js").
type Manifest map[string]string

// Result describes one completed build.
type Result struct {
	Entrypoints Entrypoints
	Manifest    Manifest
	// Files are the absolute paths of every file written to the output directory
	Files []string
}

// Pipeline manages the asset build process and entry lookups
type Pipeline struct {
	config   Config
	styles   StyleCompiler
	result   *Result
	tmpl     *template.Template
	mu       sync.RWMutex
	onResult func(*Result)
}

// New creates a new asset pipeline. styles may be nil when Sass is disabled.
func New(config Config, styles StyleCompiler) *Pipeline {
	return &Pipeline{
		config: config,
		styles: styles,
	}
}

// NewWithTemplateDir creates a new asset pipeline and loads all templates from a directory
func NewWithTemplateDir(config Config, styles StyleCompiler, templateDir string) (*Pipeline, error) {
	return NewWithTemplateDirAndFuncs(config, styles, templateDir, nil)
}

// NewWithTemplateDirAndFuncs creates a new asset pipeline and loads all templates from a directory with custom functions
func NewWithTemplateDirAndFuncs(config Config, styles StyleCompiler, templateDir string, customFuncs template.FuncMap) (*Pipeline, error) {
	p := New(config, styles)

	funcs := template.FuncMap{
		"marshal":           marshal,
		"asset":             p.Asset,
		"entry_script_tags": p.ScriptTags,
		"entry_link_tags":   p.LinkTags,
		"safe": func(s string) template.HTML {
			return template.HTML(s) //nolint:gosec
		},
	}

	// Merge custom functions
	maps.Copy(funcs, customFuncs)

	tmpl, err := template.New(templateDir).Funcs(funcs).ParseGlob(templateDir + "/*.html")
	if err != nil {
		return nil, err
	}
	p.tmpl = tmpl
	return p, nil
}

// Config returns the configuration the pipeline was created with.
func (p *Pipeline) Config() Config {
	return p.config
}

// OnResult registers fn to be called after every successful build,
// including watch rebuilds.
func (p *Pipeline) OnResult(fn func(*Result)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onResult = fn
}

func marshal(value any) string {
	buf := new(bytes.Buffer)

	if err := json.NewEncoder(buf).Encode(value); err != nil {
		panic(errors.New("context can only be json serializable"))
	}

	return buf.String()
}
