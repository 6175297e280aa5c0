package assets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"
)

var (
	ErrBuildFailed   = errors.New("esbuild failed with errors")
	ErrNotBuilt      = errors.New("assets not built yet, call Build() first")
	ErrEntryNotFound = errors.New("entrypoint not found")
)

// Build cleans the output directory when configured, runs esbuild and
// writes entrypoints.json and manifest.json next to the bundles.
func (p *Pipeline) Build(ctx context.Context) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := p.prepare(p.config.CleanupOutput); err != nil {
		return nil, err
	}

	entries := make([]string, 0, len(p.config.Entries))
	for _, e := range p.config.Entries {
		entries = append(entries, e.Name)
	}
	log.Info().Strs("entrypoints", entries).Str("mode", p.config.Mode).Msg("Building assets")

	result := api.Build(p.config.BuildOptions(p.plugins()...))

	return p.finish(&result)
}

// prepare validates the config and cleans the output directory when clean
// is set.
func (p *Pipeline) prepare(clean bool) error {
	if err := p.config.Validate(); err != nil {
		return err
	}

	if clean {
		if err := cleanDir(p.config.OutputDir); err != nil {
			return fmt.Errorf("failed to clean output directory: %w", err)
		}
		log.Debug().Str("dir", p.config.OutputDir).Msg("Cleaned output directory")
	}

	return nil
}

func (p *Pipeline) plugins() []api.Plugin {
	plugins := []api.Plugin{}
	if len(p.config.Aliases) > 0 {
		plugins = append(plugins, aliasPlugin(p.config))
	}
	if p.config.Sass {
		plugins = append(plugins, sassPlugin(p.config, p.styles))
	}
	if !p.config.TypeScript {
		plugins = append(plugins, typeScriptDisabledPlugin())
	}
	return plugins
}

// finish turns an esbuild result into entrypoints and manifest files and
// caches them for lookups.
func (p *Pipeline) finish(result *api.BuildResult) (*Result, error) {
	for _, msg := range result.Warnings {
		log.Warn().Str("warning", formatMessage(msg)).Msg("Build warning")
	}

	if len(result.Errors) > 0 {
		for _, msg := range result.Errors {
			log.Error().Str("error", formatMessage(msg)).Msg("Build error")
		}
		return nil, fmt.Errorf("%w: %s", ErrBuildFailed, formatMessage(result.Errors[0]))
	}

	files := make([]string, 0, len(result.OutputFiles))
	contents := make(map[string][]byte, len(result.OutputFiles))
	for _, file := range result.OutputFiles {
		log.Info().Str("file", file.Path).Msg("Built file")
		files = append(files, file.Path)
		contents[file.Path] = file.Contents
	}

	var metadata BuildMetadata
	if err := json.Unmarshal([]byte(result.Metafile), &metadata); err != nil {
		return nil, fmt.Errorf("failed to parse metafile: %w", err)
	}

	entrypoints, manifest, err := p.config.entrypoints(metadata)
	if err != nil {
		return nil, err
	}

	copied, err := p.config.copyFiles(manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to copy files: %w", err)
	}
	files = append(files, copied...)

	if p.config.Precompress {
		compressed, err := precompress(files, contents)
		if err != nil {
			return nil, fmt.Errorf("failed to precompress assets: %w", err)
		}
		files = append(files, compressed...)
	}

	written, err := p.config.writeEntrypoints(entrypoints, manifest)
	if err != nil {
		return nil, err
	}
	files = append(files, written...)

	res := &Result{
		Entrypoints: entrypoints,
		Manifest:    manifest,
		Files:       files,
	}

	p.mu.Lock()
	p.result = res
	onResult := p.onResult
	p.mu.Unlock()

	if onResult != nil {
		onResult(res)
	}

	return res, nil
}

// Entrypoint returns the script and stylesheet URLs of the named entry.
func (p *Pipeline) Entrypoint(name string) (EntrypointFiles, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.result == nil {
		return EntrypointFiles{}, ErrNotBuilt
	}

	files, ok := p.result.Entrypoints.Entrypoints[name]
	if !ok {
		return EntrypointFiles{}, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
	}
	return files, nil
}

// Manifest returns a copy of the logical to public URL map of the last build.
func (p *Pipeline) Manifest() (Manifest, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.result == nil {
		return nil, ErrNotBuilt
	}

	m := make(Manifest, len(p.result.Manifest))
	for k, v := range p.result.Manifest {
		m[k] = v
	}
	return m, nil
}

// cleanDir removes the contents of dir but keeps dir itself.
func cleanDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

func formatMessage(msg api.Message) string {
	if msg.Location == nil {
		return msg.Text
	}
	return fmt.Sprintf("%s:%d:%d: %s", msg.Location.File, msg.Location.Line, msg.Location.Column, msg.Text)
}

func cond[T any](condition bool, trueVal, falseVal T) T {
	if condition {
		return trueVal
	}
	return falseVal
}
