package commands

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/wolfeidau/assetkit/internal/assets"
)

type Globals struct {
	Debug   bool
	Version string
}

// ProjectFlags locate the project and select the build mode.
type ProjectFlags struct {
	Root    string `help:"project root directory" default:"." env:"ASSETKIT_ROOT"`
	Options string `help:"asset options file, relative to the root" default:"assets.yaml" env:"ASSETKIT_CONFIG"`
	Mode    string `help:"build mode (dev or production), defaults to NODE_ENV then dev" default:"" env:"NODE_ENV"`
	Sass    string `help:"Dart Sass binary used for .scss files" default:"sass" env:"ASSETKIT_SASS"`
}

// OptionsPath returns the absolute path of the options file.
func (f ProjectFlags) OptionsPath() string {
	if filepath.IsAbs(f.Options) {
		return f.Options
	}
	return filepath.Join(f.Root, f.Options)
}

// Resolve loads the options file and resolves the build configuration.
func (f ProjectFlags) Resolve() (assets.Config, error) {
	mode, err := f.mode()
	if err != nil {
		return assets.Config{}, err
	}

	opts, err := assets.LoadOptions(f.OptionsPath())
	if err != nil {
		return assets.Config{}, err
	}

	cfg, err := assets.Resolve(mode, opts, f.Root)
	if err != nil {
		return assets.Config{}, fmt.Errorf("failed to resolve build configuration: %w", err)
	}
	return cfg, nil
}

func (f ProjectFlags) mode() (assets.Mode, error) {
	if f.Mode != "" {
		return assets.ParseMode(f.Mode)
	}
	return assets.ModeFromEnv(os.LookupEnv)
}

// styleCompiler starts Dart Sass when the config needs it. The returned
// close function is always safe to call.
func (f ProjectFlags) styleCompiler(cfg assets.Config) (assets.StyleCompiler, func(), error) {
	if !cfg.Sass {
		return nil, func() {}, nil
	}

	sass, err := assets.NewDartSass(f.Sass)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start dart sass (%s): %w", f.Sass, err)
	}
	return sass, func() { _ = sass.Close() }, nil
}

func configureHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Minute,
		IdleTimeout:       5 * time.Minute,
		MaxHeaderBytes:    8 * 1024, // 8KiB
	}
}
