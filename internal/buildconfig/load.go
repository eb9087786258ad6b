package buildconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFileNames are probed in order by FindConfigFile.
var ConfigFileNames = []string{"webbuild.yaml", "webbuild.yml", "webbuild.json"}

// PluginLookup builds a plugin handle from its config file reference.
type PluginLookup interface {
	Lookup(name string, options map[string]any) (Plugin, error)
}

// PluginSpec is a plugin reference in a config file, written either as a bare
// name or as a mapping with name and options.
type PluginSpec struct {
	Name    string         `yaml:"name"`
	Options map[string]any `yaml:"options"`
}

func (s *PluginSpec) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		s.Name = value.Value
		return nil
	}

	type plain PluginSpec
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*s = PluginSpec(p)
	return nil
}

type fileConfig struct {
	Plugins []PluginSpec         `yaml:"plugins"`
	Server  PartialServerOptions `yaml:"server"`
	Build   PartialBuildOptions  `yaml:"build"`
}

// FindConfigFile returns the first config file present in root.
func FindConfigFile(root string) (string, error) {
	for _, name := range ConfigFileNames {
		path := filepath.Join(root, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w in %s", ErrConfigNotFound, root)
}

// LoadFile reads a YAML or JSON config file into a partial config.
func LoadFile(path string, plugins PluginLookup) (PartialBuildConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PartialBuildConfig{}, fmt.Errorf("failed to read config: %w", err)
	}

	cfg, err := Parse(bytes.NewReader(data), plugins)
	if err != nil {
		return PartialBuildConfig{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a config document. Unknown keys are rejected.
func Parse(r io.Reader, plugins PluginLookup) (PartialBuildConfig, error) {
	var fc fileConfig

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return PartialBuildConfig{}, err
	}

	cfg := PartialBuildConfig{
		Server: fc.Server,
		Build:  fc.Build,
	}

	if fc.Plugins != nil {
		cfg.Plugins = make([]Plugin, 0, len(fc.Plugins))
		for _, spec := range fc.Plugins {
			p, err := plugins.Lookup(spec.Name, spec.Options)
			if err != nil {
				return PartialBuildConfig{}, fmt.Errorf("plugin %q: %w", spec.Name, err)
			}
			cfg.Plugins = append(cfg.Plugins, p)
		}
	}

	return cfg, nil
}
