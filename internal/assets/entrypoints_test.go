package assets

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsVersioned(t *testing.T) {
	tests := []struct {
		name     string
		expected bool
	}{
		{name: "app.3F2A7BC6.js", expected: true},
		{name: "/build/app.3F2A7BC6.css", expected: true},
		{name: "images/logo.ABCDEFGH.png", expected: true},
		{name: "app.3F2A7BC6.js.map", expected: true},
		{name: "app.js", expected: false},
		{name: "app.js.map", expected: false},
		{name: "jquery.min.js", expected: false},
		{name: "app.abcdefgh.js", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsVersioned(tt.name))
		})
	}
}

func TestLogicalName(t *testing.T) {
	assert.Equal(t, "app.js", logicalName("app.3F2A7BC6.js"))
	assert.Equal(t, "app.js.map", logicalName("app.3F2A7BC6.js.map"))
	assert.Equal(t, "vendor.min.js", logicalName("vendor.min.ABCDEFGH.js"))
	assert.Equal(t, "app.js", logicalName("app.js"))
}

func TestConfig_Entrypoints(t *testing.T) {
	root := t.TempDir()
	opts := DefaultOptions()
	opts.Entries = append(opts.Entries, Entry{Name: "admin", Path: "./assets/admin.ts"})
	cfg, err := Resolve(Production{}, opts, root)
	require.NoError(t, err)

	meta := BuildMetadata{Outputs: map[string]OutputInfo{
		"public/build/app.AAAAAAAA.js": {
			EntryPoint: "assets/app.js",
			CSSBundle:  "public/build/app.BBBBBBBB.css",
			Imports: []ImportInfo{
				{Path: "public/build/chunk.CCCCCCCC.js", Kind: "import-statement"},
				{Path: "public/build/lazy.DDDDDDDD.js", Kind: "dynamic-import"},
				{Path: "https://cdn.example.com/x.js", Kind: "import-statement", External: true},
			},
		},
		"public/build/app.BBBBBBBB.css": {EntryPoint: "assets/app.js"},
		"public/build/chunk.CCCCCCCC.js": {
			Imports: []ImportInfo{{Path: "public/build/shared.EEEEEEEE.js", Kind: "import-statement"}},
		},
		"public/build/shared.EEEEEEEE.js": {},
		"public/build/lazy.DDDDDDDD.js":   {},
		"public/build/admin.FFFFFFFF.js": {
			EntryPoint: "assets/admin.ts",
			Imports:    []ImportInfo{{Path: "public/build/chunk.CCCCCCCC.js", Kind: "import-statement"}},
		},
		"public/build/logo.GGGGGGGG.png": {},
	}}

	entrypoints, manifest, err := cfg.entrypoints(meta)
	require.NoError(t, err)

	assert.Equal(t, map[string]EntrypointFiles{
		"app": {
			JS: []string{
				"/build/app.AAAAAAAA.js",
				"/build/chunk.CCCCCCCC.js",
				"/build/shared.EEEEEEEE.js",
			},
			CSS: []string{"/build/app.BBBBBBBB.css"},
		},
		"admin": {
			JS: []string{
				"/build/admin.FFFFFFFF.js",
				"/build/chunk.CCCCCCCC.js",
				"/build/shared.EEEEEEEE.js",
			},
		},
	}, entrypoints.Entrypoints)

	assert.Equal(t, Manifest{
		"build/app.js":    "/build/app.AAAAAAAA.js",
		"build/app.css":   "/build/app.BBBBBBBB.css",
		"build/chunk.js":  "/build/chunk.CCCCCCCC.js",
		"build/shared.js": "/build/shared.EEEEEEEE.js",
		"build/lazy.js":   "/build/lazy.DDDDDDDD.js",
		"build/admin.js":  "/build/admin.FFFFFFFF.js",
		"build/logo.png":  "/build/logo.GGGGGGGG.png",
	}, manifest)
}

func TestConfig_EntrypointsMissingEntry(t *testing.T) {
	cfg := resolveProject(t, Development{}, t.TempDir())

	_, _, err := cfg.entrypoints(BuildMetadata{Outputs: map[string]OutputInfo{
		"public/build/other.js": {EntryPoint: "assets/other.js"},
	}})
	require.ErrorIs(t, err, ErrEntryNotFound)
}

func TestConfig_WriteEntrypoints(t *testing.T) {
	cfg := resolveProject(t, Development{}, t.TempDir())
	require.NoError(t, cfg.Validate())

	entrypoints := Entrypoints{Entrypoints: map[string]EntrypointFiles{
		"app": {JS: []string{"/build/app.js"}, CSS: []string{"/build/app.css"}},
	}}
	manifest := Manifest{"build/app.js": "/build/app.js"}

	files, err := cfg.writeEntrypoints(entrypoints, manifest)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(cfg.OutputDir, EntrypointsFile),
		filepath.Join(cfg.OutputDir, ManifestFile),
	}, files)

	gotEntrypoints, err := ReadEntrypoints(cfg.OutputDir)
	require.NoError(t, err)
	assert.Equal(t, entrypoints, gotEntrypoints)

	gotManifest, err := ReadManifest(cfg.OutputDir)
	require.NoError(t, err)
	assert.Equal(t, manifest, gotManifest)
}
