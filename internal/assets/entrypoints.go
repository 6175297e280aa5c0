package assets

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"sort"
	"strings"
)

const (
	EntrypointsFile = "entrypoints.json"
	ManifestFile    = "manifest.json"

	sharedChunkName = "chunk"
)

// versionedName matches "<name>.<hash>.<ext>" where hash is the 8 character
// base32 content hash used for versioned files.
var versionedName = regexp.MustCompile(`^(.+)\.([A-Z2-7]{8})(\.[A-Za-z0-9]+(?:\.map)?)$`)

// IsVersioned reports whether a file name carries a content hash.
func IsVersioned(name string) bool {
	return versionedName.MatchString(path.Base(filepath.ToSlash(name)))
}

// logicalName strips the content hash from a file name.
func logicalName(name string) string {
	m := versionedName.FindStringSubmatch(name)
	if m == nil {
		return name
	}
	return m[1] + m[3]
}

// entrypoints derives entrypoints.json and manifest.json content from an
// esbuild metafile.
func (c Config) entrypoints(meta BuildMetadata) (Entrypoints, Manifest, error) {
	byInput := make(map[string]string, len(c.Entries))
	for _, e := range c.Entries {
		byInput[e.Path] = e.Name
	}

	result := Entrypoints{Entrypoints: make(map[string]EntrypointFiles, len(c.Entries))}
	manifest := make(Manifest, len(meta.Outputs))

	outputs := make([]string, 0, len(meta.Outputs))
	for output := range meta.Outputs {
		outputs = append(outputs, output)
	}
	sort.Strings(outputs)

	for _, output := range outputs {
		key, url, err := c.manifestEntry(output)
		if err != nil {
			return Entrypoints{}, nil, err
		}
		manifest[key] = url

		info := meta.Outputs[output]
		if info.EntryPoint == "" {
			continue
		}

		name, ok := byInput[absPath(c.Root, info.EntryPoint)]
		if !ok {
			continue
		}

		files := result.Entrypoints[name]
		if strings.HasSuffix(output, ".css") {
			files.CSS = appendUnique(files.CSS, url)
			result.Entrypoints[name] = files
			continue
		}

		files.JS = appendUnique(files.JS, url)
		chunks, err := c.chunks(meta, info, map[string]bool{output: true})
		if err != nil {
			return Entrypoints{}, nil, err
		}
		files.JS = appendUnique(files.JS, chunks...)

		if info.CSSBundle != "" {
			cssURL, err := c.PublicURL(info.CSSBundle)
			if err != nil {
				return Entrypoints{}, nil, err
			}
			files.CSS = appendUnique(files.CSS, cssURL)
		}
		result.Entrypoints[name] = files
	}

	for _, e := range c.Entries {
		if _, ok := result.Entrypoints[e.Name]; !ok {
			return Entrypoints{}, nil, fmt.Errorf("%w: %s missing from build output", ErrEntryNotFound, e.Name)
		}
	}

	return result, manifest, nil
}

// chunks returns the shared chunks an output imports, depth first. Only
// code splitting builds produce them.
func (c Config) chunks(meta BuildMetadata, output OutputInfo, visited map[string]bool) ([]string, error) {
	var urls []string
	for _, imp := range output.Imports {
		if imp.External || imp.Kind == "dynamic-import" || visited[imp.Path] {
			continue
		}
		visited[imp.Path] = true

		url, err := c.PublicURL(imp.Path)
		if err != nil {
			return nil, err
		}
		urls = append(urls, url)

		if chunkInfo, exists := meta.Outputs[imp.Path]; exists {
			nested, err := c.chunks(meta, chunkInfo, visited)
			if err != nil {
				return nil, err
			}
			urls = append(urls, nested...)
		}
	}
	return urls, nil
}

func appendUnique(list []string, values ...string) []string {
	for _, v := range values {
		if !slices.Contains(list, v) {
			list = append(list, v)
		}
	}
	return list
}

func (c Config) manifestEntry(output string) (string, string, error) {
	url, err := c.PublicURL(output)
	if err != nil {
		return "", "", err
	}
	rel := strings.TrimPrefix(strings.TrimPrefix(url, c.PublicPath), "/")
	logical := rel
	// Shared chunks all share the name "chunk" and are keyed by their hash
	if !strings.HasPrefix(path.Base(rel), sharedChunkName+".") {
		logical = path.Join(path.Dir(rel), logicalName(path.Base(rel)))
	}
	return c.ManifestKey(logical), url, nil
}

// writeEntrypoints writes entrypoints.json and manifest.json into the
// output directory and returns their paths.
func (c Config) writeEntrypoints(entrypoints Entrypoints, manifest Manifest) ([]string, error) {
	files := []string{}
	for name, value := range map[string]any{EntrypointsFile: entrypoints, ManifestFile: manifest} {
		data, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return nil, err
		}
		target := filepath.Join(c.OutputDir, name)
		if err := os.WriteFile(target, append(data, '\n'), 0o644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", name, err)
		}
		files = append(files, target)
	}
	sort.Strings(files)
	return files, nil
}

// ReadEntrypoints loads entrypoints.json from an output directory.
func ReadEntrypoints(outputDir string) (Entrypoints, error) {
	var e Entrypoints
	data, err := os.ReadFile(filepath.Join(outputDir, EntrypointsFile))
	if err != nil {
		return e, err
	}
	err = json.Unmarshal(data, &e)
	return e, err
}

// ReadManifest loads manifest.json from an output directory.
func ReadManifest(outputDir string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(filepath.Join(outputDir, ManifestFile))
	if err != nil {
		return nil, err
	}
	err = json.Unmarshal(data, &m)
	return m, err
}
