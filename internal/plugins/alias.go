package plugins

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/webbuild/internal/buildconfig"
)

type aliasMarker struct{}

// alias rewrites import specifiers that start with a configured prefix.
type alias struct {
	// longest prefix first
	prefixes []string
	targets  map[string]string
}

// NewAlias creates a plugin from prefix -> replacement options. A replacement
// starting with "." or "/" is a path relative to the project root, anything
// else is resolved as a package.
func NewAlias(options map[string]any) (buildconfig.Plugin, error) {
	p := &alias{targets: make(map[string]string, len(options))}

	for prefix := range options {
		target, err := stringOption(options, prefix, "")
		if err != nil {
			return nil, err
		}
		if prefix == "" {
			return nil, fmt.Errorf("%w: empty alias prefix", ErrInvalidOption)
		}
		p.prefixes = append(p.prefixes, prefix)
		p.targets[prefix] = target
	}

	sort.Slice(p.prefixes, func(i, j int) bool {
		return len(p.prefixes[i]) > len(p.prefixes[j])
	})

	return p, nil
}

func (p *alias) Name() string {
	return "alias"
}

// filter matches a prefix exactly or followed by a path separator.
func (p *alias) filter() string {
	quoted := make([]string, 0, len(p.prefixes))
	for _, prefix := range p.prefixes {
		quoted = append(quoted, regexp.QuoteMeta(prefix))
	}
	return `^(?:` + strings.Join(quoted, "|") + `)(?:/|$)`
}

// rewrite returns the replaced specifier, or false when nothing matches.
func (p *alias) rewrite(path, root string) (string, bool) {
	for _, prefix := range p.prefixes {
		rest, ok := strings.CutPrefix(path, prefix)
		if !ok || (rest != "" && !strings.HasPrefix(rest, "/")) {
			continue
		}

		target := p.targets[prefix]
		if strings.HasPrefix(target, ".") || strings.HasPrefix(target, "/") {
			target = filepath.Join(root, target)
		}
		return target + rest, true
	}
	return "", false
}

func (p *alias) Setup(build api.PluginBuild) {
	if len(p.prefixes) == 0 {
		return
	}

	root := build.InitialOptions.AbsWorkingDir

	build.OnResolve(api.OnResolveOptions{Filter: p.filter()}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
		if _, ok := args.PluginData.(aliasMarker); ok {
			return api.OnResolveResult{}, nil
		}

		replaced, ok := p.rewrite(args.Path, root)
		if !ok {
			return api.OnResolveResult{}, nil
		}

		result := build.Resolve(replaced, api.ResolveOptions{
			Importer:   args.Importer,
			ResolveDir: args.ResolveDir,
			Kind:       args.Kind,
			PluginData: aliasMarker{},
		})
		if len(result.Errors) > 0 {
			return api.OnResolveResult{Errors: result.Errors}, nil
		}

		log.Debug().Str("from", args.Path).Str("to", result.Path).Msg("Alias resolved")

		return api.OnResolveResult{
			Path:      result.Path,
			External:  result.External,
			Namespace: result.Namespace,
			Suffix:    result.Suffix,
		}, nil
	})
}
