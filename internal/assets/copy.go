package assets

import (
	"crypto/sha256"
	"encoding/base32"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog/log"
)

// copyFiles copies the configured static files into the output directory,
// adding a content hash to their names when versioning. Every copied file is
// recorded in manifest.
func (c Config) copyFiles(manifest Manifest) ([]string, error) {
	var written []string

	for _, cf := range c.CopyFiles {
		err := doublestar.GlobWalk(os.DirFS(cf.From), cf.Pattern, func(rel string, d fs.DirEntry) error {
			if d.IsDir() {
				return nil
			}

			data, err := os.ReadFile(filepath.Join(cf.From, filepath.FromSlash(rel)))
			if err != nil {
				return err
			}

			logical := path.Join(cf.To, rel)
			name := logical
			if c.Versioning {
				name = versionName(logical, data)
			}

			target := filepath.Join(c.OutputDir, filepath.FromSlash(name))
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(target, data, 0o644); err != nil {
				return err
			}

			url, err := c.PublicURL(target)
			if err != nil {
				return err
			}
			manifest[c.ManifestKey(logical)] = url
			written = append(written, target)

			log.Debug().Str("file", target).Msg("Copied file")
			return nil
		}, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("copy %s: %w", cf.From, err)
		}
	}

	return written, nil
}

// versionName inserts an 8 character content hash before the extension,
// e.g. "images/logo.png" becomes "images/logo.4FZQ2KXA.png".
func versionName(name string, data []byte) string {
	sum := sha256.Sum256(data)
	hash := base32.StdEncoding.EncodeToString(sum[:])[:8]
	ext := path.Ext(name)
	return strings.TrimSuffix(name, ext) + "." + hash + ext
}
