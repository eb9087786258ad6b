package bundler

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/wolfeidau/webbuild/internal/buildconfig"
	"github.com/wolfeidau/webbuild/internal/telemetry"
	"go.opentelemetry.io/otel/trace"
)

type BuildMetadata struct {
	Outputs map[string]OutputInfo `json:"outputs"`
}

type OutputInfo struct {
	EntryPoint string       `json:"entryPoint"`
	CSSBundle  string       `json:"cssBundle"`
	Bytes      int64        `json:"bytes"`
	Imports    []ImportInfo `json:"imports"`
}

type ImportInfo struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	External bool   `json:"external"`
}

// Result describes a finished build.
type Result struct {
	BuildID  string
	Manifest *Manifest
	// Paths written to the output dir, relative to it
	Files []string
}

// Bundler builds the entries of a resolved config with esbuild and keeps the
// metadata of the last successful build.
type Bundler struct {
	config   buildconfig.BuildConfig
	options  Options
	outDir   string
	metadata *BuildMetadata
	mu       sync.RWMutex

	tracer  trace.Tracer
	metrics *telemetry.Metrics
}

// New creates a bundler for a resolved config.
func New(config buildconfig.BuildConfig, options Options) (*Bundler, error) {
	switch options.Mode {
	case ModeProduction, ModeDevelopment:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, options.Mode)
	}

	return &Bundler{
		config:  config,
		options: options,
		outDir:  options.abs(config.Build.OutDir),
		tracer:  telemetry.Tracer(),
		metrics: telemetry.GetMetrics(),
	}, nil
}

// OutDir returns the absolute output directory.
func (b *Bundler) OutDir() string {
	return b.outDir
}

// url maps a metafile output key to the URL it is served from.
func (b *Bundler) url(outputPath string) string {
	rel, err := filepath.Rel(b.outDir, b.options.abs(filepath.FromSlash(outputPath)))
	if err != nil {
		return "/" + outputPath
	}
	return "/" + filepath.ToSlash(rel)
}
