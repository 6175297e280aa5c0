package http

import (
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	immutableCache = "public, max-age=31536000, immutable"
	revalidate     = "no-cache"
)

// precompressed lists the sibling encodings tried in order of preference.
var precompressed = []struct {
	encoding string
	suffix   string
}{
	{encoding: "zstd", suffix: ".zst"},
	{encoding: "gzip", suffix: ".gz"},
}

// StaticHandler serves files from dir. Files for which versioned returns
// true are cached forever, everything else is revalidated. When a .zst or
// .gz sibling exists and the client accepts it, the sibling is served.
func StaticHandler(dir string, versioned func(name string) bool) http.Handler {
	files := http.FileServer(http.Dir(dir))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := path.Clean("/" + r.URL.Path)

		if versioned != nil && versioned(name) {
			w.Header().Set("Cache-Control", immutableCache)
		} else {
			w.Header().Set("Cache-Control", revalidate)
		}

		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			if serveCompressed(w, r, dir, name) {
				return
			}
		}

		files.ServeHTTP(w, r)
	})
}

func serveCompressed(w http.ResponseWriter, r *http.Request, dir, name string) bool {
	if strings.HasSuffix(name, "/") {
		return false
	}
	accept := r.Header.Get("Accept-Encoding")

	varied := false
	for _, pc := range precompressed {
		f, err := os.Open(filepath.Join(dir, filepath.FromSlash(name+pc.suffix)))
		if err != nil {
			continue
		}
		info, err := f.Stat()
		if err != nil || info.IsDir() {
			_ = f.Close()
			continue
		}

		// The response depends on Accept-Encoding as soon as a sibling exists
		if !varied {
			w.Header().Add("Vary", "Accept-Encoding")
			varied = true
		}
		if !acceptsEncoding(accept, pc.encoding) {
			_ = f.Close()
			continue
		}

		contentType := mime.TypeByExtension(path.Ext(name))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Encoding", pc.encoding)

		http.ServeContent(w, r, name, info.ModTime(), f)
		_ = f.Close()
		return true
	}
	return false
}

// acceptsEncoding reports whether header lists encoding with a non-zero
// quality value.
func acceptsEncoding(header, encoding string) bool {
	for _, part := range strings.Split(header, ",") {
		value, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if !strings.EqualFold(strings.TrimSpace(value), encoding) {
			continue
		}
		for _, param := range strings.Split(params, ";") {
			key, q, ok := strings.Cut(strings.TrimSpace(param), "=")
			if !ok || !strings.EqualFold(strings.TrimSpace(key), "q") {
				continue
			}
			quality, err := strconv.ParseFloat(strings.TrimSpace(q), 64)
			if err != nil || quality <= 0 {
				return false
			}
		}
		return true
	}
	return false
}
