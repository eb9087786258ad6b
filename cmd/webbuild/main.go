package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/webbuild/cmd/webbuild/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Debug     bool   `help:"Enable debug mode." env:"WEBBUILD_DEBUG"`
		Tracing   bool   `help:"Export traces and metrics over OTLP." env:"WEBBUILD_TRACING"`
		Root      string `help:"Project root directory." default:"." type:"existingdir" env:"WEBBUILD_ROOT"`
		Config    string `help:"Config file, defaults to the first webbuild.{yaml,yml,json} in the root." env:"WEBBUILD_CONFIG"`
		Framework string `help:"Framework plugin applied before user plugins (react, preact or none)." default:"react" env:"WEBBUILD_FRAMEWORK"`
		Version   kong.VersionFlag

		Resolve commands.ResolveCmd `cmd:"" help:"Print the resolved build config"`
		Build   commands.BuildCmd   `cmd:"" help:"Build the entries into the output directory"`
		Dev     commands.DevCmd     `cmd:"" help:"Watch sources and serve the output directory"`
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("webbuild"),
		kong.Description("Build web entries with esbuild from a layered config."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{
		Debug:     cli.Debug,
		Tracing:   cli.Tracing,
		Root:      cli.Root,
		Config:    cli.Config,
		Framework: cli.Framework,
		Version:   version,
	})
	cmd.FatalIfErrorf(err)
}
