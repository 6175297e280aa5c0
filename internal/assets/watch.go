package assets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

var ErrOptionsChanged = errors.New("asset options changed")

// Watch builds once and then rebuilds whenever a bundled source or a copied
// file changes, until ctx is done. A change to optionsFile returns
// ErrOptionsChanged so the caller can resolve a fresh Config. The output
// directory is only cleaned when the pipeline has not built yet, so files
// being served stay in place.
func (p *Pipeline) Watch(ctx context.Context, optionsFile string) error {
	p.mu.RLock()
	built := p.result != nil
	p.mu.RUnlock()

	if err := p.prepare(p.config.CleanupOutput && !built); err != nil {
		return err
	}

	plugins := append(p.plugins(), p.resultPlugin())
	bctx, cerr := api.Context(p.config.BuildOptions(plugins...))
	if cerr != nil {
		for _, msg := range cerr.Errors {
			log.Error().Str("error", formatMessage(msg)).Msg("Build error")
		}
		return ErrBuildFailed
	}
	defer bctx.Dispose()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if optionsFile != "" {
		optionsFile = filepath.Clean(optionsFile)
		if _, err := os.Stat(optionsFile); err == nil {
			if err := watcher.Add(optionsFile); err != nil {
				return fmt.Errorf("failed to watch %s: %w", optionsFile, err)
			}
		}
	}
	for _, cf := range p.config.CopyFiles {
		if err := watchTree(watcher, cf.From); err != nil {
			return fmt.Errorf("failed to watch %s: %w", cf.From, err)
		}
	}

	if err := bctx.Watch(api.WatchOptions{}); err != nil {
		return fmt.Errorf("failed to start watch: %w", err)
	}
	log.Info().Str("output", p.config.OutputDir).Msg("Watching for changes")

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if filepath.Clean(event.Name) == optionsFile {
				log.Info().Str("file", event.Name).Msg("Options changed")
				return ErrOptionsChanged
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watchTree(watcher, event.Name)
				}
			}
			log.Debug().Str("file", event.Name).Msg("Copied file changed")
			bctx.Rebuild()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("Error watching files")
		}
	}
}

// resultPlugin post-processes every build esbuild runs in watch mode.
func (p *Pipeline) resultPlugin() api.Plugin {
	return api.Plugin{
		Name: "result",
		Setup: func(build api.PluginBuild) {
			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				if _, err := p.finish(result); err != nil {
					log.Error().Err(err).Msg("Rebuild failed")
				}
				return api.OnEndResult{}, nil
			})
		},
	}
}

// watchTree adds dir and its subdirectories to watcher.
func watchTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
