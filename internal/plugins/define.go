package plugins

import (
	"encoding/json"
	"fmt"
	"maps"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/wolfeidau/webbuild/internal/buildconfig"
)

// define replaces global identifiers with constant expressions at build time.
type define struct {
	values map[string]string
}

// NewDefine creates a plugin from identifier -> value options. Values are
// JSON encoded, so strings become string literals.
func NewDefine(options map[string]any) (buildconfig.Plugin, error) {
	values := make(map[string]string, len(options))
	for key, v := range options {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidOption, key, err)
		}
		values[key] = string(b)
	}
	return &define{values: values}, nil
}

func (p *define) Name() string {
	return "define"
}

func (p *define) Setup(build api.PluginBuild) {
	if build.InitialOptions.Define == nil {
		build.InitialOptions.Define = make(map[string]string, len(p.values))
	}
	maps.Copy(build.InitialOptions.Define, p.values)
}
