package assets

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// passthroughStyles treats Sass sources as plain CSS so builds run without
// a Dart Sass binary.
type passthroughStyles struct {
	mu       sync.Mutex
	requests []StyleRequest
}

func (p *passthroughStyles) CompileStyle(req StyleRequest) (StyleResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	return StyleResult{CSS: req.Source}, nil
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		target := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o755))
		require.NoError(t, os.WriteFile(target, []byte(content), 0o644))
	}
}

// writeProject lays out a small copy of the web demo without Bootstrap.
func writeProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"assets/app.js": `import './styles/app.scss';
import '@web-base/scripts/navbar-shrink';
import '@web-base/scripts/theme-toggle';
import '@web-base/scripts/contact-form';

console.log('Web Demo application initialized');
`,
		"assets/styles/app.scss": "body { padding-top: 4.5rem; }\n",
		"packages/web-base/frontend/scripts/navbar-shrink.js": `document.addEventListener('scroll', () => {
  document.querySelector('#mainNav')?.classList.toggle('navbar-shrink', window.scrollY > 0);
});
`,
		"packages/web-base/frontend/scripts/theme-toggle.ts": `const theme: string = localStorage.getItem('theme') ?? 'light';
document.documentElement.setAttribute('data-bs-theme', theme);
`,
		"packages/web-base/frontend/scripts/contact-form.js": `window.addEventListener('DOMContentLoaded', () => {
  document.querySelector('#contactForm')?.addEventListener('submit', (e) => e.preventDefault());
});
`,
	})
	return root
}

func resolveProject(t *testing.T, mode Mode, root string) Config {
	t.Helper()
	cfg, err := Resolve(mode, DefaultOptions(), root)
	require.NoError(t, err)
	return cfg
}

// resolveSplitProject adds a second entry that shares contact-form with app
// and turns the single runtime chunk off, so esbuild emits ES modules with a
// shared chunk.
func resolveSplitProject(t *testing.T, mode Mode, root string) Config {
	t.Helper()
	writeFiles(t, root, map[string]string{
		"assets/contact.js": "import '@web-base/scripts/contact-form';\n\nconsole.log('contact page');\n",
	})

	opts := DefaultOptions()
	opts.SingleRuntimeChunk = false
	opts.Entries = append(opts.Entries, Entry{Name: "contact", Path: "./assets/contact.js"})

	cfg, err := Resolve(mode, opts, root)
	require.NoError(t, err)
	return cfg
}
