package bundler

import (
	"path/filepath"
)

const (
	ModeProduction  = "production"
	ModeDevelopment = "development"
)

type Options struct {
	// Project root; entry paths and the output dir are relative to it
	Root string
	// "production" or "development", exposed as import.meta.env.MODE
	Mode string
	// Name of the esbuild metafile written into the output dir
	MetafileName string
	// Name of the manifest written into the output dir
	ManifestName string
	// Files smaller than this are not precompressed
	CompressThreshold int
}

// DefaultOptions returns a sensible default configuration for root.
func DefaultOptions(root string) Options {
	return Options{
		Root:              root,
		Mode:              ModeProduction,
		MetafileName:      "meta.json",
		ManifestName:      "manifest.json",
		CompressThreshold: 1024,
	}
}

func (o Options) abs(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(o.Root, path)
}

// rel returns path relative to the root in slash form, the shape esbuild
// uses for metafile keys.
func (o Options) rel(path string) string {
	r, err := filepath.Rel(o.Root, o.abs(path))
	if err != nil {
		return filepath.ToSlash(filepath.Clean(path))
	}
	return filepath.ToSlash(r)
}
