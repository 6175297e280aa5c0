package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

var (
	ErrNoStyleCompiler    = errors.New("sass is enabled but no style compiler is configured")
	ErrTypeScriptDisabled = errors.New("typescript is disabled")
)

// aliasPlugin rewrites imports that start with an alias prefix to the
// alias target and hands the result back to esbuild's resolver, so
// extension probing and index files still work.
func aliasPlugin(cfg Config) api.Plugin {
	prefixes := make([]string, 0, len(cfg.Aliases))
	for _, a := range cfg.Aliases {
		prefixes = append(prefixes, regexp.QuoteMeta(a.Prefix))
	}
	filter := "^(?:" + strings.Join(prefixes, "|") + ")(?:/|$)"

	return api.Plugin{
		Name: "alias",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: filter}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
				target, ok := cfg.ResolveAlias(args.Path)
				if !ok {
					return api.OnResolveResult{}, nil
				}

				resolved := build.Resolve(target, api.ResolveOptions{
					Importer:   args.Importer,
					ResolveDir: args.ResolveDir,
					Kind:       args.Kind,
				})
				if len(resolved.Errors) > 0 {
					return api.OnResolveResult{}, fmt.Errorf("could not resolve %q (aliased to %s): %s", args.Path, target, resolved.Errors[0].Text)
				}

				return api.OnResolveResult{
					Path:      resolved.Path,
					External:  resolved.External,
					Namespace: resolved.Namespace,
					Suffix:    resolved.Suffix,
				}, nil
			})
		},
	}
}

// sassPlugin compiles .scss and .sass files to CSS before esbuild bundles
// them.
func sassPlugin(cfg Config, styles StyleCompiler) api.Plugin {
	return api.Plugin{
		Name: "sass",
		Setup: func(build api.PluginBuild) {
			build.OnLoad(api.OnLoadOptions{Filter: `\.s[ac]ss$`, Namespace: "file"}, func(args api.OnLoadArgs) (api.OnLoadResult, error) {
				if styles == nil {
					return api.OnLoadResult{}, ErrNoStyleCompiler
				}

				source, err := os.ReadFile(args.Path)
				if err != nil {
					return api.OnLoadResult{}, err
				}

				out, err := styles.CompileStyle(StyleRequest{
					Path:         args.Path,
					Source:       string(source),
					Indented:     strings.HasSuffix(args.Path, ".sass"),
					IncludePaths: []string{filepath.Dir(args.Path), filepath.Join(cfg.Root, "node_modules")},
					Compressed:   cfg.Minify,
					SourceMap:    cfg.SourceMaps,
				})
				if err != nil {
					return api.OnLoadResult{}, fmt.Errorf("failed to compile %s: %w", args.Path, err)
				}

				contents := out.CSS
				if out.SourceMap != "" {
					contents += "\n" + inlineSourceMap(out.SourceMap)
				}

				return api.OnLoadResult{
					Contents:   &contents,
					Loader:     api.LoaderCSS,
					ResolveDir: filepath.Dir(args.Path),
					WatchFiles: out.LoadedFiles,
				}, nil
			})
		},
	}
}

// typeScriptDisabledPlugin fails every TypeScript load, including explicit
// .ts imports that esbuild would otherwise compile with its built-in loader.
func typeScriptDisabledPlugin() api.Plugin {
	return api.Plugin{
		Name: "typescript-disabled",
		Setup: func(build api.PluginBuild) {
			build.OnLoad(api.OnLoadOptions{Filter: `\.[mc]?tsx?$`, Namespace: "file"}, func(args api.OnLoadArgs) (api.OnLoadResult, error) {
				return api.OnLoadResult{}, fmt.Errorf("%w: %s", ErrTypeScriptDisabled, args.Path)
			})
		},
	}
}
