package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/wolfeidau/webbuild/internal/bundler"
	"github.com/wolfeidau/webbuild/internal/devserver"
)

type DevCmd struct {
	Overrides `embed:""`
}

func (c *DevCmd) Run(ctx context.Context, globals *Globals) error {
	log, done := setup(ctx, globals)
	defer done()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := loadProject(ctx, globals, c.Overrides)
	if err != nil {
		return err
	}

	// unminified output while developing, sourcemaps still follow the config
	cfg := p.config
	cfg.Build.Minify = false

	opts := bundler.DefaultOptions(p.root)
	opts.Mode = bundler.ModeDevelopment

	b, err := bundler.New(cfg, opts)
	if err != nil {
		return fmt.Errorf("failed to create bundler: %w", err)
	}

	srv := devserver.New(cfg, b, log)

	log.Info().
		Str("version", globals.Version).
		Str("addr", srv.Addr()).
		Msg("Starting dev server")

	return srv.Run(ctx)
}
