package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/wolfeidau/assetkit/internal/assets"
	"github.com/wolfeidau/assetkit/internal/logger"
)

// BuildCmd runs a single build.
type BuildCmd struct {
	ProjectFlags `embed:""`

	Precompress bool `help:"also write .gz and .zst files" default:"false" env:"ASSETKIT_PRECOMPRESS"`
}

func (c *BuildCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)

	cfg, err := c.Resolve()
	if err != nil {
		return err
	}
	if c.Precompress {
		cfg.Precompress = true
	}

	styles, closeStyles, err := c.styleCompiler(cfg)
	if err != nil {
		return err
	}
	defer closeStyles()

	started := time.Now()
	result, err := assets.New(cfg, styles).Build(ctx)
	if err != nil {
		return fmt.Errorf("failed to build assets: %w", err)
	}

	log.Info().
		Str("mode", cfg.Mode).
		Int("files", len(result.Files)).
		Dur("duration", time.Since(started)).
		Msg("Assets built")

	return nil
}
