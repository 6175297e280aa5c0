package assets

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOptions_MissingFileUsesDefaults(t *testing.T) {
	opts, err := LoadOptions(filepath.Join(t.TempDir(), DefaultOptionsFile))
	require.NoError(t, err)
	assert.Equal(t, DefaultOptions(), opts)
}

func TestLoadOptions_EmptyFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{DefaultOptionsFile: ""})

	opts, err := LoadOptions(filepath.Join(dir, DefaultOptionsFile))
	require.NoError(t, err)
	assert.Equal(t, DefaultOptions(), opts)
}

func TestLoadOptions_Overrides(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{DefaultOptionsFile: `
output_path: web/dist
public_path: /static
entries:
  - name: app
    path: ./assets/app.js
  - name: admin
    path: ./assets/admin.ts
typescript: false
copy_files:
  - from: assets/images
    pattern: "**/*.png"
    to: images
precompress: true
`})

	opts, err := LoadOptions(filepath.Join(dir, DefaultOptionsFile))
	require.NoError(t, err)

	assert.Equal(t, "web/dist", opts.OutputPath)
	assert.Equal(t, "/static", opts.PublicPath)
	assert.Equal(t, []Entry{{Name: "app", Path: "./assets/app.js"}, {Name: "admin", Path: "./assets/admin.ts"}}, opts.Entries)
	assert.False(t, opts.TypeScript)
	assert.True(t, opts.Precompress)
	assert.Equal(t, []CopyFiles{{From: "assets/images", Pattern: "**/*.png", To: "images"}}, opts.CopyFiles)

	// Untouched keys keep their defaults
	assert.Equal(t, DefaultOptions().Aliases, opts.Aliases)
	assert.True(t, opts.Sass)
	assert.True(t, opts.CleanupOutput)
	assert.True(t, opts.SingleRuntimeChunk)
}

func TestLoadOptions_UnknownKey(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{DefaultOptionsFile: "ouput_path: typo\n"})

	_, err := LoadOptions(filepath.Join(dir, DefaultOptionsFile))
	require.ErrorIs(t, err, ErrInvalidOptions)
}

func TestLoadOptions_RepositoryFile(t *testing.T) {
	opts, err := LoadOptions(filepath.Join("..", "..", DefaultOptionsFile))
	require.NoError(t, err)
	assert.Equal(t, DefaultOptions(), opts)
}
