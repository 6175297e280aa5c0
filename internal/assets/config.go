package assets

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

var (
	ErrInvalidOptions    = errors.New("invalid asset options")
	ErrMissingEntry      = errors.New("entry source file not found")
	ErrMissingAlias      = errors.New("alias target directory not found")
	ErrOutputNotWritable = errors.New("output path is not writable")
)

// Entry names a source file the bundler starts from.
type Entry struct {
	Name string `yaml:"name" json:"name"`
	Path string `yaml:"path" json:"path"`
}

// Alias maps a logical import prefix to a directory.
type Alias struct {
	Prefix string `yaml:"prefix" json:"prefix"`
	Target string `yaml:"target" json:"target"`
}

// CopyFiles copies static files matched by Pattern under From into To,
// relative to the output directory.
type CopyFiles struct {
	From    string `yaml:"from" json:"from"`
	Pattern string `yaml:"pattern" json:"pattern"`
	To      string `yaml:"to" json:"to"`
}

// Options is the declarative option set, usually loaded from assets.yaml.
type Options struct {
	// Directory where compiled assets are stored
	OutputPath string `yaml:"output_path"`
	// Public path used by the web server to access the output path
	PublicPath string  `yaml:"public_path"`
	Entries    []Entry `yaml:"entries"`
	Aliases    []Alias `yaml:"aliases"`

	SingleRuntimeChunk bool `yaml:"single_runtime_chunk"`
	CleanupOutput      bool `yaml:"cleanup_output"`
	Sass               bool `yaml:"sass"`
	TypeScript         bool `yaml:"typescript"`

	CopyFiles   []CopyFiles `yaml:"copy_files"`
	Precompress bool        `yaml:"precompress"`
}

// DefaultOptions returns the options of the web demo application.
func DefaultOptions() Options {
	return Options{
		OutputPath:         "public/build",
		PublicPath:         "/build",
		Entries:            []Entry{{Name: "app", Path: "./assets/app.js"}},
		Aliases:            []Alias{{Prefix: "@web-base", Target: "packages/web-base/frontend"}},
		SingleRuntimeChunk: true,
		CleanupOutput:      true,
		Sass:               true,
		TypeScript:         true,
	}
}

// Config is the resolved build configuration for one build invocation.
// It is never mutated after Resolve returns it.
type Config struct {
	Mode       string `json:"mode"`
	Root       string `json:"root"`
	OutputDir  string `json:"outputDir"`
	PublicPath string `json:"publicPath"`

	Entries []Entry `json:"entries"`
	// Sorted longest prefix first so the most specific alias wins
	Aliases []Alias `json:"aliases"`

	SingleRuntimeChunk bool `json:"singleRuntimeChunk"`
	CleanupOutput      bool `json:"cleanupOutput"`
	SourceMaps         bool `json:"sourceMaps"`
	Versioning         bool `json:"versioning"`
	Minify             bool `json:"minify"`
	Sass               bool `json:"sass"`
	TypeScript         bool `json:"typeScript"`
	Precompress        bool `json:"precompress"`

	CopyFiles []CopyFiles `json:"copyFiles,omitempty"`

	EntryNames        string            `json:"entryNames"`
	ChunkNames        string            `json:"chunkNames"`
	AssetNames        string            `json:"assetNames"`
	Loaders           map[string]string `json:"loaders"`
	ResolveExtensions []string          `json:"resolveExtensions"`
}

// Resolve turns mode and opts into a Config. Relative paths are resolved
// against root. Identical inputs always produce an identical Config.
func Resolve(mode Mode, opts Options, root string) (Config, error) {
	if mode == nil {
		return Config{}, fmt.Errorf("%w: mode is required", ErrUnknownMode)
	}

	root, err := filepath.Abs(root)
	if err != nil {
		return Config{}, fmt.Errorf("failed to resolve root: %w", err)
	}

	if strings.TrimSpace(opts.OutputPath) == "" {
		return Config{}, fmt.Errorf("%w: output_path is required", ErrInvalidOptions)
	}
	if len(opts.Entries) == 0 {
		return Config{}, fmt.Errorf("%w: at least one entry is required", ErrInvalidOptions)
	}

	p := mode.policy()
	cfg := Config{
		Mode:               mode.Name(),
		Root:               root,
		OutputDir:          absPath(root, opts.OutputPath),
		PublicPath:         normalizePublicPath(opts.PublicPath),
		SingleRuntimeChunk: opts.SingleRuntimeChunk,
		CleanupOutput:      opts.CleanupOutput,
		SourceMaps:         p.SourceMaps,
		Versioning:         p.Versioning,
		Minify:             p.Minify,
		Sass:               opts.Sass,
		TypeScript:         opts.TypeScript,
		Precompress:        opts.Precompress,
		EntryNames:         cond(p.Versioning, "[name].[hash]", "[name]"),
		ChunkNames:         cond(p.Versioning, "[name].[hash]", "[name]-[hash]"),
		AssetNames:         cond(p.Versioning, "[name].[hash]", "[name]"),
		Loaders:            loaders(opts.TypeScript),
		ResolveExtensions:  resolveExtensions(opts.TypeScript, opts.Sass),
	}

	seen := make(map[string]bool, len(opts.Entries))
	for _, e := range opts.Entries {
		if e.Name == "" || e.Path == "" {
			return Config{}, fmt.Errorf("%w: entry requires a name and a path", ErrInvalidOptions)
		}
		if seen[e.Name] {
			return Config{}, fmt.Errorf("%w: duplicate entry %q", ErrInvalidOptions, e.Name)
		}
		seen[e.Name] = true
		cfg.Entries = append(cfg.Entries, Entry{Name: e.Name, Path: absPath(root, e.Path)})
	}
	sort.Slice(cfg.Entries, func(i, j int) bool { return cfg.Entries[i].Name < cfg.Entries[j].Name })

	for _, a := range opts.Aliases {
		prefix := strings.TrimSuffix(a.Prefix, "/")
		if prefix == "" || a.Target == "" {
			return Config{}, fmt.Errorf("%w: alias requires a prefix and a target", ErrInvalidOptions)
		}
		cfg.Aliases = append(cfg.Aliases, Alias{Prefix: prefix, Target: absPath(root, a.Target)})
	}
	sort.Slice(cfg.Aliases, func(i, j int) bool {
		if len(cfg.Aliases[i].Prefix) != len(cfg.Aliases[j].Prefix) {
			return len(cfg.Aliases[i].Prefix) > len(cfg.Aliases[j].Prefix)
		}
		return cfg.Aliases[i].Prefix < cfg.Aliases[j].Prefix
	})

	for _, c := range opts.CopyFiles {
		if c.From == "" {
			return Config{}, fmt.Errorf("%w: copy_files requires from", ErrInvalidOptions)
		}
		cfg.CopyFiles = append(cfg.CopyFiles, CopyFiles{
			From:    absPath(root, c.From),
			Pattern: cond(c.Pattern == "", "**/*", c.Pattern),
			To:      filepath.ToSlash(filepath.Clean(c.To)),
		})
	}

	return cfg, nil
}

// ResolveAlias rewrites importPath using the alias table. It reports false
// when no alias prefix matches.
func (c Config) ResolveAlias(importPath string) (string, bool) {
	for _, a := range c.Aliases {
		if importPath == a.Prefix {
			return a.Target, true
		}
		if rest, ok := strings.CutPrefix(importPath, a.Prefix+"/"); ok {
			return filepath.Join(a.Target, filepath.FromSlash(rest)), true
		}
	}
	return "", false
}

// Validate checks the filesystem invariants: entry files exist, alias
// targets are directories and the output directory is writable.
func (c Config) Validate() error {
	for _, e := range c.Entries {
		info, err := os.Stat(e.Path)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrMissingEntry, e.Path, err)
		}
		if info.IsDir() {
			return fmt.Errorf("%w: %s is a directory", ErrMissingEntry, e.Path)
		}
	}

	for _, a := range c.Aliases {
		info, err := os.Stat(a.Target)
		if err != nil {
			return fmt.Errorf("%w: %s -> %s: %w", ErrMissingAlias, a.Prefix, a.Target, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("%w: %s -> %s is not a directory", ErrMissingAlias, a.Prefix, a.Target)
		}
	}

	if err := os.MkdirAll(c.OutputDir, 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrOutputNotWritable, err)
	}
	probe, err := os.CreateTemp(c.OutputDir, ".write-check-*")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOutputNotWritable, err)
	}
	_ = probe.Close()
	_ = os.Remove(probe.Name())

	return nil
}

// JSON returns the indented JSON form of the config.
func (c Config) JSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// PublicURL maps a file inside the output directory to its public URL.
func (c Config) PublicURL(file string) (string, error) {
	if !filepath.IsAbs(file) {
		file = filepath.Join(c.Root, file)
	}
	rel, err := filepath.Rel(c.OutputDir, file)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%s is outside of %s", file, c.OutputDir)
	}
	return path.Join(c.PublicPath, filepath.ToSlash(rel)), nil
}

// ManifestKey returns the manifest key of a logical output name, e.g.
// "build/app.js" for "app.js" with a public path of "/build".
func (c Config) ManifestKey(logical string) string {
	return strings.TrimPrefix(path.Join(c.PublicPath, logical), "/")
}

// BuildOptions translates the config into esbuild options.
func (c Config) BuildOptions(plugins ...api.Plugin) api.BuildOptions {
	entryPoints := make([]api.EntryPoint, 0, len(c.Entries))
	for _, e := range c.Entries {
		entryPoints = append(entryPoints, api.EntryPoint{InputPath: e.Path, OutputPath: e.Name})
	}

	loader := make(map[string]api.Loader, len(c.Loaders))
	for ext, name := range c.Loaders {
		loader[ext] = loaderByName[name]
	}

	return api.BuildOptions{
		EntryPointsAdvanced: entryPoints,
		AbsWorkingDir:       c.Root,
		Outdir:              c.OutputDir,
		PublicPath:          c.PublicPath,
		EntryNames:          c.EntryNames,
		ChunkNames:          c.ChunkNames,
		AssetNames:          c.AssetNames,
		Bundle:              true,
		// One self-contained script per entry carries the module bootstrap,
		// so there is exactly one runtime per page.
		Splitting:         !c.SingleRuntimeChunk,
		Format:            cond(c.SingleRuntimeChunk, api.FormatIIFE, api.FormatESModule),
		Platform:          api.PlatformBrowser,
		Target:            api.ES2020,
		Write:             true,
		Metafile:          true,
		MinifyWhitespace:  c.Minify,
		MinifyIdentifiers: c.Minify,
		MinifySyntax:      c.Minify,
		TreeShaking:       api.TreeShakingTrue,
		Sourcemap:         cond(c.SourceMaps, api.SourceMapLinked, api.SourceMapNone),
		Loader:            loader,
		ResolveExtensions: c.ResolveExtensions,
		Define: map[string]string{
			"process.env.NODE_ENV": fmt.Sprintf("%q", c.Mode),
		},
		LogLevel: api.LogLevelSilent,
		Plugins:  plugins,
	}
}

var loaderByName = map[string]api.Loader{
	"file": api.LoaderFile,
	"ts":   api.LoaderTS,
	"tsx":  api.LoaderTSX,
}

func loaders(typeScript bool) map[string]string {
	l := map[string]string{
		".eot":   "file",
		".gif":   "file",
		".jpg":   "file",
		".png":   "file",
		".svg":   "file",
		".ttf":   "file",
		".webp":  "file",
		".woff":  "file",
		".woff2": "file",
	}
	if typeScript {
		l[".ts"] = "ts"
		l[".tsx"] = "tsx"
	}
	return l
}

func resolveExtensions(typeScript, sass bool) []string {
	exts := []string{".js", ".mjs", ".cjs", ".jsx"}
	if typeScript {
		exts = append(exts, ".ts", ".tsx")
	}
	exts = append(exts, ".css", ".json")
	if sass {
		exts = append(exts, ".scss", ".sass")
	}
	return exts
}

func absPath(root, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, filepath.FromSlash(p))
}

func normalizePublicPath(p string) string {
	trimmed := strings.Trim(p, "/")
	if trimmed == "" {
		return "/"
	}
	return "/" + trimmed
}
