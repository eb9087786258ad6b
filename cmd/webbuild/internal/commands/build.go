package commands

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/wolfeidau/webbuild/internal/bundler"
)

type BuildCmd struct {
	Overrides `embed:""`

	Mode string `help:"Build mode, exposed as import.meta.env.MODE." default:"production" enum:"production,development" env:"WEBBUILD_MODE"`
}

func (c *BuildCmd) Run(ctx context.Context, globals *Globals) error {
	log, done := setup(ctx, globals)
	defer done()

	log.Info().Str("version", globals.Version).Str("mode", c.Mode).Msg("Starting build")

	p, err := loadProject(ctx, globals, c.Overrides)
	if err != nil {
		return err
	}

	opts := bundler.DefaultOptions(p.root)
	opts.Mode = c.Mode

	b, err := bundler.New(p.config, opts)
	if err != nil {
		return fmt.Errorf("failed to create bundler: %w", err)
	}

	started := time.Now()
	res, err := b.Build(ctx)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	for _, name := range slices.Sorted(maps.Keys(res.Manifest.Entries)) {
		entry := res.Manifest.Entries[name]
		log.Info().
			Str("entry", name).
			Str("source", entry.Source).
			Str("file", entry.File).
			Strs("css", entry.CSS).
			Msg("Built entry")
	}

	log.Info().
		Str("build_id", res.BuildID).
		Str("outdir", b.OutDir()).
		Int("files", len(res.Files)).
		Dur("took", time.Since(started)).
		Msg("Build complete")

	return nil
}
