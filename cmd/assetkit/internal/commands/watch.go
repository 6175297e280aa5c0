package commands

import (
	"context"
	"errors"

	"github.com/wolfeidau/assetkit/internal/assets"
	"github.com/wolfeidau/assetkit/internal/logger"
)

// WatchCmd builds and rebuilds on change. Editing the options file restarts
// the watch with the new configuration.
type WatchCmd struct {
	ProjectFlags `embed:""`
}

func (c *WatchCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)

	for {
		err := c.watchOnce(ctx)
		if errors.Is(err, assets.ErrOptionsChanged) {
			log.Info().Msg("Restarting watch with new options")
			continue
		}
		return err
	}
}

func (c *WatchCmd) watchOnce(ctx context.Context) error {
	cfg, err := c.Resolve()
	if err != nil {
		return err
	}

	styles, closeStyles, err := c.styleCompiler(cfg)
	if err != nil {
		return err
	}
	defer closeStyles()

	return assets.New(cfg, styles).Watch(ctx, c.OptionsPath())
}
