package plugins

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/wolfeidau/webbuild/internal/buildconfig"
)

// FrameworkNone disables the framework plugin.
const FrameworkNone = "none"

// ErrNotFramework indicates a registered plugin was requested as a framework
// but does not integrate a UI framework.
var ErrNotFramework = errors.New("plugin is not a framework integration")

// Factory builds a plugin from the options given in the config file.
type Factory func(options map[string]any) (buildconfig.Plugin, error)

type entry struct {
	factory   Factory
	framework bool
}

// Registry maps plugin names used in config files to factories.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

var _ buildconfig.PluginLookup = (*Registry)(nil)

func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]entry),
	}
}

// DefaultRegistry returns a registry holding the built-in plugins.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.RegisterFramework("react", NewReact)
	r.RegisterFramework("preact", NewPreact)
	r.Register("define", NewDefine)
	r.Register("alias", NewAlias)
	return r
}

// Register adds or replaces a plugin factory.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = entry{factory: factory}
}

// RegisterFramework adds a factory that may be selected as the mandatory
// framework plugin.
func (r *Registry) RegisterFramework(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = entry{factory: factory, framework: true}
}

// Lookup builds the named plugin with options.
func (r *Registry) Lookup(name string, options map[string]any) (buildconfig.Plugin, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %v)", buildconfig.ErrUnknownPlugin, name, r.Names())
	}
	return e.factory(options)
}

// Framework returns the framework plugins for name, an empty list for
// FrameworkNone.
func (r *Registry) Framework(name string) ([]buildconfig.Plugin, error) {
	if name == FrameworkNone || name == "" {
		return nil, nil
	}

	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", buildconfig.ErrUnknownPlugin, name)
	}
	if !e.framework {
		return nil, fmt.Errorf("%w: %q", ErrNotFramework, name)
	}

	p, err := e.factory(nil)
	if err != nil {
		return nil, err
	}
	return []buildconfig.Plugin{p}, nil
}

// Names returns the registered plugin names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
