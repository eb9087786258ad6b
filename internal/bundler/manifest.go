package bundler

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/minio/crc64nvme"
)

// Manifest maps entries to the files a server has to emit for them.
type Manifest struct {
	BuildID string                   `json:"buildId"`
	Mode    string                   `json:"mode"`
	Entries map[string]ManifestEntry `json:"entries"`
	Files   map[string]FileInfo      `json:"files"`
}

type ManifestEntry struct {
	Source  string   `json:"src"`
	File    string   `json:"file"`
	Imports []string `json:"imports,omitempty"`
	CSS     []string `json:"css,omitempty"`
}

type FileInfo struct {
	Size  int64  `json:"size"`
	CRC64 string `json:"crc64nvme"`
}

func (b *Bundler) manifest(buildID string, pl *plan, files []string) (*Manifest, error) {
	m := &Manifest{
		BuildID: buildID,
		Mode:    b.options.Mode,
		Entries: make(map[string]ManifestEntry),
		Files:   make(map[string]FileInfo, len(files)),
	}

	for name, input := range pl.scripts {
		scripts, entrypoint, err := b.loadScripts(input)
		if err != nil {
			return nil, err
		}
		m.Entries[name] = ManifestEntry{
			Source:  input,
			File:    entrypoint,
			Imports: scripts[1:],
			CSS:     b.stylesheets(input),
		}
	}

	for _, p := range pl.pages {
		entry := ManifestEntry{
			Source: b.options.rel(p.source),
			File:   "/" + p.output,
		}
		for _, input := range p.scripts {
			scripts, _, err := b.loadScripts(input)
			if err != nil {
				return nil, err
			}
			entry.Imports = appendMissing(entry.Imports, scripts...)
			entry.CSS = appendMissing(entry.CSS, b.stylesheets(input)...)
		}
		slices.Sort(entry.Imports)
		slices.Sort(entry.CSS)
		m.Entries[p.name] = entry
	}

	for _, file := range files {
		data, err := os.ReadFile(filepath.Join(b.outDir, filepath.FromSlash(file)))
		if err != nil {
			return nil, fmt.Errorf("failed to checksum %s: %w", file, err)
		}
		m.Files["/"+file] = FileInfo{
			Size:  int64(len(data)),
			CRC64: computeCRC64(data),
		}
	}

	return m, nil
}

func (b *Bundler) writeManifest(m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return b.writeFile(b.options.ManifestName, data)
}

// ReadManifest loads a manifest written by Build.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}

// Verify checks every file listed in the manifest against its checksum.
func (m *Manifest) Verify(outDir string) error {
	for file, info := range m.Files {
		data, err := os.ReadFile(filepath.Join(outDir, filepath.FromSlash(file)))
		if err != nil {
			return err
		}
		if sum := computeCRC64(data); sum != info.CRC64 {
			return fmt.Errorf("checksum mismatch for %s: %s != %s", file, sum, info.CRC64)
		}
	}
	return nil
}

// computeCRC64 computes CRC64-NVME checksum
func computeCRC64(data []byte) string {
	h := crc64nvme.New()
	h.Write(data)
	return strconv.FormatUint(h.Sum64(), 16)
}

func appendMissing(dst []string, values ...string) []string {
	for _, v := range values {
		if !slices.Contains(dst, v) {
			dst = append(dst, v)
		}
	}
	return dst
}
