package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"filippo.io/csrf"
	"github.com/rs/cors"
	"github.com/wolfeidau/assetkit/internal/assets"
	httpx "github.com/wolfeidau/assetkit/internal/http"
	"github.com/wolfeidau/assetkit/internal/logger"
)

// ServeCmd builds the assets once, optionally keeps rebuilding them, and
// serves the output directory together with the demo page.
type ServeCmd struct {
	ProjectFlags `embed:""`

	Listen      string   `help:"HTTP server listen address" default:"127.0.0.1:8080" env:"ASSETKIT_LISTEN"`
	Templates   string   `help:"template directory, relative to the root" default:"templates" env:"ASSETKIT_TEMPLATES"`
	Public      string   `help:"document root served at /, relative to the root" default:"public" env:"ASSETKIT_PUBLIC"`
	CORSOrigins []string `help:"origins allowed to load assets" default:"*" env:"ASSETKIT_CORS_ORIGINS"`
	Watch       bool     `help:"rebuild assets on change" default:"false"`
}

func (c *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)

	cfg, err := c.Resolve()
	if err != nil {
		return err
	}

	styles, closeStyles, err := c.styleCompiler(cfg)
	if err != nil {
		return err
	}
	defer closeStyles()

	pipeline, err := assets.NewWithTemplateDir(cfg, styles, c.path(c.Templates))
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}
	if _, err = pipeline.Build(ctx); err != nil {
		return fmt.Errorf("failed to build assets: %w", err)
	}

	if c.Watch {
		go func() {
			if err := pipeline.Watch(ctx, ""); err != nil {
				log.Error().Err(err).Msg("Watch stopped")
			}
		}()
	}

	handler, err := c.handler(pipeline)
	if err != nil {
		return err
	}

	srv := configureHTTPServer(c.Listen, logger.Requests(log)(handler))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Failed to shutdown server")
		}
	}()

	log.Info().Str("addr", c.Listen).Str("mode", cfg.Mode).Msg("Starting HTTP server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (c *ServeCmd) handler(pipeline *assets.Pipeline) (http.Handler, error) {
	cfg := pipeline.Config()
	mux := http.NewServeMux()

	page, err := pipeline.Handler("index.html", "Web Demo", "app", nil)
	if err != nil {
		return nil, err
	}
	mux.HandleFunc("GET /{$}", page)
	mux.HandleFunc("POST /contact", contactHandler)

	// Built assets under the public path, everything else from the document root
	prefix := strings.TrimSuffix(cfg.PublicPath, "/") + "/"
	mux.Handle(prefix, withCORS(c.CORSOrigins,
		http.StripPrefix(strings.TrimSuffix(prefix, "/"), httpx.StaticHandler(cfg.OutputDir, assets.IsVersioned))))
	if prefix != "/" {
		mux.Handle("/", httpx.StaticHandler(c.path(c.Public), nil))
	}

	// CSRF protection for HTML pages and form posts, not for asset requests
	protection := csrf.New()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, prefix) {
			mux.ServeHTTP(w, r)
			return
		}
		protection.Handler(mux).ServeHTTP(w, r)
	}), nil
}

func (c *ServeCmd) path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}

// withCORS lets other origins load the built assets, e.g. a page served by
// another backend during development.
func withCORS(allowedOrigins []string, h http.Handler) http.Handler {
	middleware := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead},
	})
	return middleware.Handler(h)
}
