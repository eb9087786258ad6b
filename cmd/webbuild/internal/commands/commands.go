package commands

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/webbuild/internal/buildconfig"
	"github.com/wolfeidau/webbuild/internal/logger"
	"github.com/wolfeidau/webbuild/internal/plugins"
	"github.com/wolfeidau/webbuild/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type Globals struct {
	Debug     bool
	Tracing   bool
	Root      string
	Config    string
	Framework string
	Version   string
}

// Overrides are flags laid over the config file before resolving.
type Overrides struct {
	Host   *string `help:"Dev server host." env:"WEBBUILD_HOST"`
	Port   *int    `help:"Dev server port." env:"WEBBUILD_PORT"`
	OutDir *string `help:"Output directory, relative to the root." name:"outdir" env:"WEBBUILD_OUTDIR"`
}

func (o Overrides) partial() buildconfig.PartialBuildConfig {
	return buildconfig.PartialBuildConfig{
		Server: buildconfig.PartialServerOptions{
			Host: o.Host,
			Port: o.Port,
		},
		Build: buildconfig.PartialBuildOptions{
			OutDir: o.OutDir,
		},
	}
}

type project struct {
	root   string
	config buildconfig.BuildConfig
}

// setup configures logging and, when enabled, telemetry. The returned
// function flushes telemetry and must run before the command returns.
func setup(ctx context.Context, globals *Globals) (zerolog.Logger, func()) {
	l := logger.Setup(globals.Debug)

	if !globals.Tracing {
		return l, func() {}
	}

	l.Info().Msg("Tracing is enabled")
	shutdown, err := telemetry.Init(ctx, "webbuild", globals.Version)
	if err != nil {
		l.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without it")
		return l, func() {}
	}

	return l, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			l.Error().Err(err).Msg("Failed to shutdown telemetry")
		}
	}
}

// loadProject finds and loads the config file, lays the flag overrides over
// it and resolves the result against the defaults.
func loadProject(ctx context.Context, globals *Globals, overrides Overrides) (*project, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "config.Resolve")
	defer span.End()

	fail := func(err error) (*project, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	root, err := filepath.Abs(globals.Root)
	if err != nil {
		return fail(fmt.Errorf("failed to resolve root: %w", err))
	}

	registry := plugins.DefaultRegistry()

	file, err := loadFile(root, globals.Config, registry)
	if err != nil {
		return fail(err)
	}

	user, err := buildconfig.Overlay(overrides.partial(), file)
	if err != nil {
		return fail(fmt.Errorf("failed to apply flag overrides: %w", err))
	}

	framework, err := registry.Framework(globals.Framework)
	if err != nil {
		return fail(fmt.Errorf("failed to load framework: %w", err))
	}

	cfg, err := buildconfig.NewResolver(root, framework...).Resolve(user, buildconfig.DefaultConfig())
	if err != nil {
		telemetry.GetMetrics().ResolveFailuresTotal.Add(ctx, 1)
		return fail(fmt.Errorf("failed to resolve config: %w", err))
	}

	span.SetAttributes(
		attribute.String("project.root", root),
		attribute.Int("config.entries", len(cfg.Build.RollupOptions.Input)),
		attribute.Int("config.plugins", len(cfg.Plugins)),
	)

	return &project{root: root, config: cfg}, nil
}

// loadFile reads the explicit config file, or the first one found in root.
// A project without a config file resolves to the defaults.
func loadFile(root, path string, registry *plugins.Registry) (buildconfig.PartialBuildConfig, error) {
	if path == "" {
		found, err := buildconfig.FindConfigFile(root)
		if errors.Is(err, buildconfig.ErrConfigNotFound) {
			log.Debug().Str("root", root).Msg("No config file, using defaults")
			return buildconfig.PartialBuildConfig{}, nil
		}
		if err != nil {
			return buildconfig.PartialBuildConfig{}, err
		}
		path = found
	} else if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}

	log.Debug().Str("path", path).Msg("Loading config file")
	return buildconfig.LoadFile(path, registry)
}
