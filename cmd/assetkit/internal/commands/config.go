package commands

import (
	"context"
	"fmt"
	"io"
	"os"
)

// ConfigCmd prints the resolved build configuration as JSON.
type ConfigCmd struct {
	ProjectFlags `embed:""`

	Validate bool `help:"also check entry files, alias targets and the output path" default:"false"`

	out io.Writer `kong:"-"`
}

func (c *ConfigCmd) Run(ctx context.Context, globals *Globals) error {
	cfg, err := c.Resolve()
	if err != nil {
		return err
	}

	if c.Validate {
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	data, err := cfg.JSON()
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}

	out := c.out
	if out == nil {
		out = os.Stdout
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}
