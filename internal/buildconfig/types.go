package buildconfig

import (
	"maps"
	"slices"

	"github.com/evanw/esbuild/pkg/api"
)

// Plugin is an opaque transform handle handed to the bundler. The position of
// a plugin in BuildConfig.Plugins is its application order.
type Plugin interface {
	Name() string
	Setup(build api.PluginBuild)
}

// EntryMap maps a logical entry name to a source path.
type EntryMap map[string]string

// BuildConfig is a fully resolved configuration. It is produced by Resolve and
// must not be modified afterwards.
type BuildConfig struct {
	Plugins []Plugin
	Server  ServerOptions
	Build   BuildOptions

	// number of leading framework plugins in Plugins
	framework int
}

type ServerOptions struct {
	Host        string
	Port        int
	CORSOrigins []string
}

type BuildOptions struct {
	OutDir        string
	Minify        bool
	SourceMap     bool
	Compress      bool
	RollupOptions RollupOptions
}

type RollupOptions struct {
	Input EntryMap
}

// PartialBuildConfig is the user authored shape. Nil leaves are absent and
// are filled from defaults; zero values that are present are kept.
type PartialBuildConfig struct {
	Plugins []Plugin             `yaml:"-"`
	Server  PartialServerOptions `yaml:"server"`
	Build   PartialBuildOptions  `yaml:"build"`
}

type PartialServerOptions struct {
	Host        *string  `yaml:"host"`
	Port        *int     `yaml:"port"`
	CORSOrigins []string `yaml:"cors"`
}

type PartialBuildOptions struct {
	OutDir        *string              `yaml:"outDir"`
	Minify        *bool                `yaml:"minify"`
	SourceMap     *bool                `yaml:"sourcemap"`
	Compress      *bool                `yaml:"compress"`
	RollupOptions PartialRollupOptions `yaml:"rollupOptions"`
}

type PartialRollupOptions struct {
	Input EntryMap `yaml:"input"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() BuildConfig {
	return BuildConfig{
		Plugins: []Plugin{},
		Server: ServerOptions{
			Host: "localhost",
			Port: 5173,
		},
		Build: BuildOptions{
			OutDir: "dist",
			Minify: true,
			RollupOptions: RollupOptions{
				Input: EntryMap{"main": "index.html"},
			},
		},
	}
}

// UserPlugins returns the plugins that came from the user config or the
// defaults, without the framework plugins the resolver prepended.
func (c BuildConfig) UserPlugins() []Plugin {
	return slices.Clone(c.Plugins[min(c.framework, len(c.Plugins)):])
}

// AsPartial converts a resolved config back to the partial it could have been
// resolved from. Framework plugins are dropped since Resolve adds them again.
func (c BuildConfig) AsPartial() PartialBuildConfig {
	return PartialBuildConfig{
		Plugins: c.UserPlugins(),
		Server: PartialServerOptions{
			Host:        ptr(c.Server.Host),
			Port:        ptr(c.Server.Port),
			CORSOrigins: slices.Clone(c.Server.CORSOrigins),
		},
		Build: PartialBuildOptions{
			OutDir:    ptr(c.Build.OutDir),
			Minify:    ptr(c.Build.Minify),
			SourceMap: ptr(c.Build.SourceMap),
			Compress:  ptr(c.Build.Compress),
			RollupOptions: PartialRollupOptions{
				Input: maps.Clone(c.Build.RollupOptions.Input),
			},
		},
	}
}

// clone returns a deep copy so merging never aliases caller owned values.
func (p PartialBuildConfig) clone() PartialBuildConfig {
	return PartialBuildConfig{
		Plugins: slices.Clone(p.Plugins),
		Server: PartialServerOptions{
			Host:        clonePtr(p.Server.Host),
			Port:        clonePtr(p.Server.Port),
			CORSOrigins: slices.Clone(p.Server.CORSOrigins),
		},
		Build: PartialBuildOptions{
			OutDir:    clonePtr(p.Build.OutDir),
			Minify:    clonePtr(p.Build.Minify),
			SourceMap: clonePtr(p.Build.SourceMap),
			Compress:  clonePtr(p.Build.Compress),
			RollupOptions: PartialRollupOptions{
				Input: maps.Clone(p.Build.RollupOptions.Input),
			},
		},
	}
}

func ptr[T any](v T) *T {
	return &v
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	return ptr(*p)
}

func valueOr[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}
