package buildconfig

import (
	"fmt"
	"reflect"

	"dario.cat/mergo"
)

// leafTypes are merged as a whole: a present value in dst is kept, an absent
// one is taken from src. Without this mergo would key-merge entry maps and
// replace present but empty slices.
var leafTypes = map[reflect.Type]bool{
	reflect.TypeFor[*string]():  true,
	reflect.TypeFor[*int]():     true,
	reflect.TypeFor[*bool]():    true,
	reflect.TypeFor[[]string](): true,
	reflect.TypeFor[EntryMap](): true,
}

type keepPresent struct{}

func (keepPresent) Transformer(typ reflect.Type) func(dst, src reflect.Value) error {
	if !leafTypes[typ] {
		return nil
	}
	// mergo only consults transformers for non-nil dst values, so reaching
	// here means the leaf is present.
	return func(dst, src reflect.Value) error {
		return nil
	}
}

// Overlay lays top over base field by field. Leaves present in top win; the
// plugin list is taken from top when present, otherwise from base. Neither
// argument is modified.
func Overlay(top, base PartialBuildConfig) (PartialBuildConfig, error) {
	out := top.clone()
	src := base.clone()

	plugins := out.Plugins
	if plugins == nil {
		plugins = src.Plugins
	}
	out.Plugins, src.Plugins = nil, nil

	if err := mergo.Merge(&out, src, mergo.WithTransformers(keepPresent{})); err != nil {
		return PartialBuildConfig{}, fmt.Errorf("failed to merge config: %w", err)
	}

	out.Plugins = plugins
	return out, nil
}
