package bundler

import (
	"context"
	"fmt"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"
)

// Watch starts an esbuild context that rebuilds whenever a source changes.
// onBuild is called after the initial build and after every rebuild. The
// returned function stops watching.
func (b *Bundler) Watch(ctx context.Context, onBuild func(*Result, error)) (func(), error) {
	b.mu.Lock()
	pl, err := b.plan()
	b.mu.Unlock()
	if err != nil {
		return nil, err
	}

	opts := b.buildOptions(pl)

	var started time.Time
	opts.Plugins = append(opts.Plugins, api.Plugin{
		Name: "webbuild:finish",
		Setup: func(build api.PluginBuild) {
			build.OnStart(func() (api.OnStartResult, error) {
				started = time.Now()
				return api.OnStartResult{}, nil
			})
			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				_, span := b.tracer.Start(ctx, "bundler.Rebuild")
				defer span.End()

				b.mu.Lock()
				res, err := b.finish(ctx, pl, *result)
				b.mu.Unlock()

				b.record(ctx, started, res, err)
				if onBuild != nil {
					onBuild(res, err)
				}
				return api.OnEndResult{}, nil
			})
		},
	})

	bctx, cerr := api.Context(opts)
	if cerr != nil {
		for _, msg := range cerr.Errors {
			log.Error().Str("error", msg.Text).Msg("Build error")
		}
		return nil, fmt.Errorf("%w: %d error(s)", ErrBuildFailed, len(cerr.Errors))
	}

	if err := bctx.Watch(api.WatchOptions{}); err != nil {
		bctx.Dispose()
		return nil, fmt.Errorf("failed to start watcher: %w", err)
	}

	log.Info().Str("outdir", b.outDir).Msg("Watching for changes")
	return bctx.Dispose, nil
}
