package assets

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bep/godartsass/v2"
	"github.com/rs/zerolog/log"
)

// StyleCompiler compiles Sass sources to CSS.
type StyleCompiler interface {
	CompileStyle(req StyleRequest) (StyleResult, error)
}

type StyleRequest struct {
	Path         string
	Source       string
	Indented     bool
	IncludePaths []string
	Compressed   bool
	SourceMap    bool
}

type StyleResult struct {
	CSS       string
	SourceMap string
	// Files other than Path read while compiling, for watch mode
	LoadedFiles []string
}

// DartSass compiles Sass with the Dart Sass embedded protocol.
type DartSass struct {
	transpiler *godartsass.Transpiler
}

// NewDartSass starts the Dart Sass binary. An empty binary uses "sass"
// from PATH. Close must be called to stop it.
func NewDartSass(binary string) (*DartSass, error) {
	transpiler, err := godartsass.Start(godartsass.Options{
		DartSassEmbeddedFilename: binary,
		LogEventHandler: func(event godartsass.LogEvent) {
			log.Warn().Str("message", event.Message).Msg("Sass")
		},
	})
	if err != nil {
		return nil, err
	}
	return &DartSass{transpiler: transpiler}, nil
}

// CompileStyle compiles req. A source map is always requested because its
// sources list the partials Dart Sass loaded; it is only returned when
// req.SourceMap is set.
func (d *DartSass) CompileStyle(req StyleRequest) (StyleResult, error) {
	res, err := d.transpiler.Execute(godartsass.Args{
		Source:                  req.Source,
		URL:                     fileURL(req.Path),
		IncludePaths:            req.IncludePaths,
		OutputStyle:             cond(req.Compressed, godartsass.OutputStyleCompressed, godartsass.OutputStyleExpanded),
		SourceSyntax:            cond(req.Indented, godartsass.SourceSyntaxSASS, godartsass.SourceSyntaxSCSS),
		EnableSourceMap:         true,
		SourceMapIncludeSources: req.SourceMap,
	})
	if err != nil {
		return StyleResult{}, err
	}

	loaded, err := loadedFiles(res.SourceMap, req.Path)
	if err != nil {
		return StyleResult{}, err
	}

	out := StyleResult{CSS: res.CSS, LoadedFiles: loaded}
	if req.SourceMap {
		out.SourceMap = res.SourceMap
	}
	return out, nil
}

func (d *DartSass) Close() error {
	return d.transpiler.Close()
}

func fileURL(path string) string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}

func inlineSourceMap(sourceMap string) string {
	var b strings.Builder
	b.WriteString("/*# sourceMappingURL=data:application/json;base64,")
	b.WriteString(base64.StdEncoding.EncodeToString([]byte(sourceMap)))
	b.WriteString(" */")
	return b.String()
}

// loadedFiles returns the local files listed in a source map's sources,
// except entry.
func loadedFiles(sourceMap, entry string) ([]string, error) {
	if sourceMap == "" {
		return nil, nil
	}

	var m struct {
		Sources []string `json:"sources"`
	}
	if err := json.Unmarshal([]byte(sourceMap), &m); err != nil {
		return nil, fmt.Errorf("failed to parse sass source map: %w", err)
	}

	entry = filepath.Clean(entry)
	var files []string
	for _, source := range m.Sources {
		u, err := url.Parse(source)
		if err != nil || u.Scheme != "file" {
			continue
		}
		file := filepath.Clean(filepath.FromSlash(u.Path))
		if file == entry || slices.Contains(files, file) {
			continue
		}
		files = append(files, file)
	}
	return files, nil
}
