package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/assetkit/cmd/assetkit/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Debug   bool `help:"Enable debug mode."`
		Version kong.VersionFlag
		Build   commands.BuildCmd  `cmd:"" help:"Build assets once"`
		Watch   commands.WatchCmd  `cmd:"" help:"Build assets and rebuild on change"`
		Serve   commands.ServeCmd  `cmd:"" help:"Build assets and serve them with the demo page"`
		Config  commands.ConfigCmd `cmd:"" help:"Print the resolved build configuration"`
	}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := kong.Parse(&cli,
		kong.Description("Frontend asset pipeline for the web demo application."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
