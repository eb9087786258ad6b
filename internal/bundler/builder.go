package bundler

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

// plan is the set of esbuild entry points derived from the entry map.
type plan struct {
	entryPoints []api.EntryPoint
	pages       []*page
	// entry name -> script input, for script entries
	scripts map[string]string
}

func (b *Bundler) plan() (*plan, error) {
	input := b.config.Build.RollupOptions.Input

	names := slices.Sorted(maps.Keys(input))

	pl := &plan{scripts: make(map[string]string)}
	planned := make(map[string]bool)

	add := func(in, out string) {
		if planned[in] {
			return
		}
		planned[in] = true
		pl.entryPoints = append(pl.entryPoints, api.EntryPoint{
			InputPath:  "./" + in,
			OutputPath: out,
		})
	}

	for _, name := range names {
		source := input[name]

		if !isHTML(source) {
			in := b.options.rel(source)
			pl.scripts[name] = in
			add(in, name)
			continue
		}

		p, err := b.planPage(name, source)
		if err != nil {
			return nil, err
		}
		pl.pages = append(pl.pages, p)

		srcs := slices.Sorted(maps.Keys(p.scripts))
		for i, src := range srcs {
			out := name
			if len(srcs) > 1 {
				out = name + "-" + strconv.Itoa(i)
			}
			add(p.scripts[src], out)
		}
	}

	return pl, nil
}

func (b *Bundler) buildOptions(pl *plan) api.BuildOptions {
	cfg := b.config.Build
	mode := strconv.Quote(b.options.Mode)

	plugins := make([]api.Plugin, 0, len(b.config.Plugins))
	for _, p := range b.config.Plugins {
		plugins = append(plugins, api.Plugin{Name: p.Name(), Setup: p.Setup})
	}

	return api.BuildOptions{
		AbsWorkingDir:       b.options.Root,
		EntryPointsAdvanced: pl.entryPoints,
		Bundle:              true,
		Splitting:           true,
		Write:               true,
		Outdir:              b.outDir,
		EntryNames:          "assets/[name]-[hash]",
		ChunkNames:          "assets/chunk-[hash]",
		AssetNames:          "assets/[name]-[hash]",
		Format:              api.FormatESModule,
		Platform:            api.PlatformBrowser,
		MinifyWhitespace:    cfg.Minify,
		MinifyIdentifiers:   cfg.Minify,
		MinifySyntax:        cfg.Minify,
		TreeShaking:         api.TreeShakingTrue,
		Sourcemap:           cond(cfg.SourceMap, api.SourceMapLinked, api.SourceMapNone),
		Metafile:            true,
		LogLevel:            api.LogLevelSilent,
		Define: map[string]string{
			"import.meta.env.MODE": mode,
			"process.env.NODE_ENV": mode,
		},
		Loader: map[string]api.Loader{
			".png":   api.LoaderFile,
			".jpg":   api.LoaderFile,
			".svg":   api.LoaderFile,
			".woff2": api.LoaderFile,
		},
		Plugins: plugins,
	}
}

// Build runs esbuild with the resolved config and writes pages, metafile and
// manifest into the output dir.
func (b *Bundler) Build(ctx context.Context) (*Result, error) {
	ctx, span := b.tracer.Start(ctx, "bundler.Build")
	defer span.End()

	b.mu.Lock()
	defer b.mu.Unlock()

	pl, err := b.plan()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	names := slices.Sorted(maps.Keys(b.config.Build.RollupOptions.Input))
	log.Info().Strs("entrypoints", names).Str("outdir", b.outDir).Msg("Building assets")

	started := time.Now()
	result := api.Build(b.buildOptions(pl))

	res, err := b.finish(ctx, pl, result)
	b.record(ctx, started, res, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String("build.id", res.BuildID),
		attribute.Int("build.files", len(res.Files)),
	)

	return res, nil
}

func (b *Bundler) record(ctx context.Context, started time.Time, res *Result, err error) {
	attrs := metric.WithAttributes(attribute.String("mode", b.options.Mode))
	b.metrics.BuildDuration.Record(ctx, float64(time.Since(started).Milliseconds()), attrs)
	if err != nil {
		b.metrics.BuildFailuresTotal.Add(ctx, 1, attrs)
		return
	}
	b.metrics.BuildOutputFiles.Record(ctx, int64(len(res.Files)), attrs)
}

// finish turns an esbuild result into written pages, metafile and manifest.
// The caller holds b.mu.
func (b *Bundler) finish(ctx context.Context, pl *plan, result api.BuildResult) (*Result, error) {
	if len(result.Errors) > 0 {
		for _, msg := range result.Errors {
			ev := log.Error().Str("error", msg.Text)
			if msg.Location != nil {
				ev = ev.Str("file", msg.Location.File).Int("line", msg.Location.Line)
			}
			ev.Msg("Build error")
		}
		return nil, fmt.Errorf("%w: %d error(s)", ErrBuildFailed, len(result.Errors))
	}

	for _, msg := range result.Warnings {
		log.Warn().Str("warning", msg.Text).Msg("Build warning")
	}

	// Parse and cache metadata
	var metadata BuildMetadata
	if err := json.Unmarshal([]byte(result.Metafile), &metadata); err != nil {
		return nil, fmt.Errorf("failed to parse metafile: %w", err)
	}
	b.metadata = &metadata

	files := make([]string, 0, len(metadata.Outputs)+len(pl.pages))
	for outputPath := range metadata.Outputs {
		file := b.url(outputPath)[1:]
		log.Debug().Str("file", file).Msg("Built file")
		files = append(files, file)
	}

	for _, p := range pl.pages {
		data, err := b.renderPage(p)
		if err != nil {
			return nil, err
		}
		if err := b.writeFile(p.output, data); err != nil {
			return nil, err
		}
		log.Info().Str("page", p.output).Msg("Built page")
		files = append(files, p.output)
	}
	sort.Strings(files)

	// Write metafile
	if err := b.writeFile(b.options.MetafileName, []byte(result.Metafile)); err != nil {
		return nil, err
	}

	manifest, err := b.manifest(uuid.NewString(), pl, files)
	if err != nil {
		return nil, err
	}
	if err := b.writeManifest(manifest); err != nil {
		return nil, err
	}

	// development servers compress on the fly
	if b.config.Build.Compress && b.options.Mode == ModeProduction {
		if err := b.compress(ctx, files); err != nil {
			return nil, err
		}
	}

	log.Info().Str("build_id", manifest.BuildID).Int("files", len(files)).Msg("Build complete")

	return &Result{BuildID: manifest.BuildID, Manifest: manifest, Files: files}, nil
}

func (b *Bundler) writeFile(name string, data []byte) error {
	p := filepath.Join(b.outDir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

// LoadScripts returns the ordered list of script paths needed for the given entrypoint
// and the main entrypoint file path
func (b *Bundler) LoadScripts(entryPointPath string) ([]string, string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.loadScripts(b.options.rel(entryPointPath))
}

func (b *Bundler) loadScripts(entryPointPath string) ([]string, string, error) {
	if b.metadata == nil {
		return nil, "", ErrNotBuilt
	}

	scripts := []string{}
	visited := make(map[string]bool)

	// Find the output file for this entrypoint
	for outputPath, info := range b.metadata.Outputs {
		if info.EntryPoint == entryPointPath && filepath.Ext(outputPath) == ".js" {
			entrypoint := b.url(outputPath)
			scripts = append(scripts, entrypoint)
			visited[outputPath] = true
			b.addDependencies(info, &scripts, visited)
			return scripts, entrypoint, nil
		}
	}

	return nil, "", fmt.Errorf("%w: %s", ErrEntryNotFound, entryPointPath)
}

func (b *Bundler) addDependencies(output OutputInfo, scripts *[]string, visited map[string]bool) {
	for _, imp := range output.Imports {
		if imp.External || imp.Kind != "import-statement" {
			continue
		}
		if !visited[imp.Path] {
			visited[imp.Path] = true
			*scripts = append(*scripts, b.url(imp.Path))

			if chunkInfo, exists := b.metadata.Outputs[imp.Path]; exists {
				b.addDependencies(chunkInfo, scripts, visited)
			}
		}
	}
}

// stylesheets returns the CSS bundle of an entry and of the chunks it
// statically imports.
func (b *Bundler) stylesheets(entryPointPath string) []string {
	var css []string
	for outputPath, info := range b.metadata.Outputs {
		if info.EntryPoint != entryPointPath || filepath.Ext(outputPath) != ".js" {
			continue
		}
		if info.CSSBundle != "" {
			css = append(css, b.url(info.CSSBundle))
		}
	}
	sort.Strings(css)
	return css
}

func cond[T any](condition bool, trueVal, falseVal T) T {
	if condition {
		return trueVal
	}
	return falseVal
}
