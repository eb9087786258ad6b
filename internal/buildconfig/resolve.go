package buildconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
)

const maxPort = 65535

// Resolver turns user partials into resolved configs for one project root.
type Resolver struct {
	root      string
	framework []Plugin
}

// NewResolver creates a resolver checking entry paths against root. The
// framework plugins are placed, in order, ahead of every user plugin.
func NewResolver(root string, framework ...Plugin) *Resolver {
	return &Resolver{
		root:      root,
		framework: slices.Clone(framework),
	}
}

// Root returns the project root entry paths are resolved against.
func (r *Resolver) Root() string {
	return r.root
}

// Resolve merges user over defaults and validates the result. It either
// returns a complete config or an error joining every violation found.
func (r *Resolver) Resolve(user PartialBuildConfig, defaults BuildConfig) (BuildConfig, error) {
	merged, err := Overlay(user, defaults.AsPartial())
	if err != nil {
		return BuildConfig{}, err
	}

	plugins := make([]Plugin, 0, len(r.framework)+len(merged.Plugins))
	plugins = append(plugins, r.framework...)
	plugins = append(plugins, merged.Plugins...)

	cfg := BuildConfig{
		Plugins: plugins,
		Server: ServerOptions{
			Host:        valueOr(merged.Server.Host, ""),
			Port:        valueOr(merged.Server.Port, 0),
			CORSOrigins: merged.Server.CORSOrigins,
		},
		Build: BuildOptions{
			OutDir:    valueOr(merged.Build.OutDir, ""),
			Minify:    valueOr(merged.Build.Minify, false),
			SourceMap: valueOr(merged.Build.SourceMap, false),
			Compress:  valueOr(merged.Build.Compress, false),
			RollupOptions: RollupOptions{
				Input: merged.Build.RollupOptions.Input,
			},
		},
		framework: len(r.framework),
	}

	if err := r.validate(cfg); err != nil {
		return BuildConfig{}, err
	}

	return cfg, nil
}

func (r *Resolver) validate(cfg BuildConfig) error {
	var errs []error

	if cfg.Server.Port < 0 || cfg.Server.Port > maxPort {
		errs = append(errs, fmt.Errorf("%w: %d is outside [0,%d]", ErrInvalidPort, cfg.Server.Port, maxPort))
	}

	input := cfg.Build.RollupOptions.Input
	if len(input) == 0 {
		errs = append(errs, fmt.Errorf("%w: build.rollupOptions.input needs at least one entry", ErrEmptyEntryMap))
	}

	names := make([]string, 0, len(input))
	for name := range input {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := r.checkPath(input[name]); err != nil {
			errs = append(errs, fmt.Errorf("%w: entry %q: %w", ErrUnresolvablePath, name, err))
		}
	}

	return errors.Join(errs...)
}

func (r *Resolver) checkPath(path string) error {
	if path == "" {
		return errors.New("empty path")
	}

	info, err := os.Stat(r.Abs(path))
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}

// Abs returns path joined to the project root unless it is already absolute.
func (r *Resolver) Abs(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(r.root, path)
}
