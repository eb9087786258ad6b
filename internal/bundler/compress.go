package bundler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
)

var compressible = map[string]bool{
	".js":   true,
	".css":  true,
	".html": true,
	".svg":  true,
	".json": true,
	".map":  true,
}

// compress writes .gz and .zst siblings for text outputs above the threshold.
func (b *Bundler) compress(ctx context.Context, files []string) error {
	_, span := b.tracer.Start(ctx, "bundler.compress")
	defer span.End()

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return fmt.Errorf("failed to create encoder: %w", err)
	}
	defer enc.Close()

	var written int
	for _, file := range files {
		if !compressible[strings.ToLower(filepath.Ext(file))] {
			continue
		}

		src := filepath.Join(b.outDir, filepath.FromSlash(file))
		data, err := os.ReadFile(src)
		if err != nil {
			return err
		}
		if len(data) < b.options.CompressThreshold {
			continue
		}

		if err := os.WriteFile(src+".zst", enc.EncodeAll(data, nil), 0o644); err != nil {
			return fmt.Errorf("failed to write %s.zst: %w", file, err)
		}
		if err := writeGzip(src+".gz", data); err != nil {
			return fmt.Errorf("failed to write %s.gz: %w", file, err)
		}
		written++
	}

	log.Debug().Int("files", written).Msg("Precompressed assets")
	return nil
}

func writeGzip(path string, data []byte) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}

	zw, err := gzip.NewWriterLevel(dst, gzip.BestCompression)
	if err != nil {
		dst.Close()
		return err
	}

	if _, err := zw.Write(data); err != nil {
		zw.Close()
		dst.Close()
		os.Remove(path) // Clean up partial file
		return err
	}
	if err := zw.Close(); err != nil {
		dst.Close()
		os.Remove(path)
		return err
	}
	return dst.Close()
}
