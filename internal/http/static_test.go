package http

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func versionedForTest(name string) bool {
	return strings.Contains(name, ".ABCDEFGH.")
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestStaticHandler_CacheControl(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.ABCDEFGH.js", "console.log(1)")
	writeFile(t, dir, "app.js", "console.log(2)")

	handler := StaticHandler(dir, versionedForTest)

	tests := []struct {
		path     string
		expected string
	}{
		{path: "/app.ABCDEFGH.js", expected: immutableCache},
		{path: "/app.js", expected: revalidate},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.expected, w.Header().Get("Cache-Control"))
		})
	}
}

func TestStaticHandler_Precompressed(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.css", "body{}")
	writeFile(t, dir, "app.css.gz", "gzip-bytes")
	writeFile(t, dir, "app.css.zst", "zstd-bytes")

	handler := StaticHandler(dir, nil)

	tests := []struct {
		name     string
		accept   string
		encoding string
		body     string
	}{
		{name: "zstd preferred", accept: "gzip, zstd", encoding: "zstd", body: "zstd-bytes"},
		{name: "gzip only", accept: "gzip", encoding: "gzip", body: "gzip-bytes"},
		{name: "zstd refused", accept: "zstd;q=0, gzip", encoding: "gzip", body: "gzip-bytes"},
		{name: "zstd refused with decimal quality", accept: "zstd;q=0.000, gzip;q=0.5", encoding: "gzip", body: "gzip-bytes"},
		{name: "all refused", accept: "zstd; q=0.0, gzip;q=0", encoding: "", body: "body{}"},
		{name: "identity", accept: "", encoding: "", body: "body{}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/app.css", nil)
			if tt.accept != "" {
				r.Header.Set("Accept-Encoding", tt.accept)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.encoding, w.Header().Get("Content-Encoding"))
			assert.Equal(t, tt.body, w.Body.String())
			assert.Contains(t, w.Header().Get("Content-Type"), "text/css")
			assert.Equal(t, "Accept-Encoding", w.Header().Get("Vary"))
		})
	}
}

func TestStaticHandler_NoVaryWithoutSiblings(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.js", "console.log(1)")

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/app.js", nil)
	r.Header.Set("Accept-Encoding", "gzip, zstd")
	StaticHandler(dir, nil).ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Vary"))
	assert.Empty(t, w.Header().Get("Content-Encoding"))
}

func TestAcceptsEncoding(t *testing.T) {
	tests := []struct {
		header   string
		encoding string
		expected bool
	}{
		{header: "gzip", encoding: "gzip", expected: true},
		{header: "GZIP", encoding: "gzip", expected: true},
		{header: "br, gzip;q=0.8", encoding: "gzip", expected: true},
		{header: "gzip;q=0", encoding: "gzip", expected: false},
		{header: "gzip;q=0.0", encoding: "gzip", expected: false},
		{header: "gzip; q=0.000", encoding: "gzip", expected: false},
		{header: "gzip;q=abc", encoding: "gzip", expected: false},
		{header: "deflate", encoding: "gzip", expected: false},
		{header: "", encoding: "zstd", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.header+"/"+tt.encoding, func(t *testing.T) {
			assert.Equal(t, tt.expected, acceptsEncoding(tt.header, tt.encoding))
		})
	}
}

func TestStaticHandler_NotFound(t *testing.T) {
	handler := StaticHandler(t.TempDir(), nil)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/missing.js", nil)
	r.Header.Set("Accept-Encoding", "gzip")
	handler.ServeHTTP(w, r)

	require.Equal(t, http.StatusNotFound, w.Code)
}
