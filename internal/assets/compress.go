package assets

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var compressible = map[string]bool{
	".css":  true,
	".js":   true,
	".json": true,
	".svg":  true,
}

// precompress writes .gz and .zst siblings for every compressible file and
// returns the paths written. Contents already in memory are taken from
// contents instead of disk.
func precompress(files []string, contents map[string][]byte) ([]string, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return nil, err
	}
	defer encoder.Close()

	var written []string
	for _, file := range files {
		if !compressible[filepath.Ext(file)] {
			continue
		}

		data, ok := contents[file]
		if !ok {
			var err error
			if data, err = os.ReadFile(file); err != nil {
				return nil, err
			}
		}

		var buf bytes.Buffer
		gz, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
		if err != nil {
			return nil, err
		}
		if _, err := gz.Write(data); err != nil {
			return nil, err
		}
		if err := gz.Close(); err != nil {
			return nil, err
		}
		if err := os.WriteFile(file+".gz", buf.Bytes(), 0o644); err != nil {
			return nil, err
		}

		if err := os.WriteFile(file+".zst", encoder.EncodeAll(data, nil), 0o644); err != nil {
			return nil, err
		}

		written = append(written, file+".gz", file+".zst")
	}
	return written, nil
}
