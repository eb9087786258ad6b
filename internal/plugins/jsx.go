package plugins

import (
	"errors"
	"fmt"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/wolfeidau/webbuild/internal/buildconfig"
)

// ErrInvalidOption indicates a plugin option has the wrong type.
var ErrInvalidOption = errors.New("invalid plugin option")

// jsxFramework switches esbuild to the automatic JSX runtime of a framework.
type jsxFramework struct {
	name         string
	importSource string
}

var _ buildconfig.Plugin = (*jsxFramework)(nil)

// NewReact creates the React integration. Options: importSource.
func NewReact(options map[string]any) (buildconfig.Plugin, error) {
	return newJSXFramework("react", "react", options)
}

// NewPreact creates the Preact integration. Options: importSource.
func NewPreact(options map[string]any) (buildconfig.Plugin, error) {
	return newJSXFramework("preact", "preact", options)
}

func newJSXFramework(name, importSource string, options map[string]any) (*jsxFramework, error) {
	source, err := stringOption(options, "importSource", importSource)
	if err != nil {
		return nil, err
	}
	return &jsxFramework{name: name, importSource: source}, nil
}

func (p *jsxFramework) Name() string {
	return p.name
}

func (p *jsxFramework) Setup(build api.PluginBuild) {
	build.InitialOptions.JSX = api.JSXAutomatic
	build.InitialOptions.JSXImportSource = p.importSource
}

func stringOption(options map[string]any, key, fallback string) (string, error) {
	v, ok := options[key]
	if !ok {
		return fallback, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidOption, key, v)
	}
	return s, nil
}
