package buildconfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/stretchr/testify/require"
)

type testPlugin struct {
	name string
}

func (p *testPlugin) Name() string                { return p.name }
func (p *testPlugin) Setup(build api.PluginBuild) {}

func newTestPlugin(name string) *testPlugin {
	return &testPlugin{name: name}
}

// projectDir creates a temp project root containing the given files.
func projectDir(t *testing.T, files ...string) string {
	t.Helper()

	root := t.TempDir()
	for _, f := range files {
		path := filepath.Join(root, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("<!doctype html>"), 0o600))
	}
	return root
}

func scenarioDefaults() BuildConfig {
	return BuildConfig{
		Plugins: []Plugin{},
		Server:  ServerOptions{Port: 5173},
		Build: BuildOptions{
			RollupOptions: RollupOptions{Input: EntryMap{}},
		},
	}
}

func TestResolve_scenario(t *testing.T) {
	root := projectDir(t, "index.html")
	framework := newTestPlugin("vue")

	user := PartialBuildConfig{
		Server: PartialServerOptions{Port: ptr(3000)},
		Build: PartialBuildOptions{
			RollupOptions: PartialRollupOptions{
				Input: EntryMap{"main": "./index.html"},
			},
		},
	}

	cfg, err := NewResolver(root, framework).Resolve(user, scenarioDefaults())
	require.NoError(t, err)

	require.Equal(t, []Plugin{framework}, cfg.Plugins)
	require.Equal(t, 3000, cfg.Server.Port)
	require.Equal(t, EntryMap{"main": "./index.html"}, cfg.Build.RollupOptions.Input)
}

func TestResolve_scenarioInvalidPort(t *testing.T) {
	root := projectDir(t, "index.html")

	user := PartialBuildConfig{
		Server: PartialServerOptions{Port: ptr(70000)},
	}

	_, err := NewResolver(root).Resolve(user, DefaultConfig())
	require.ErrorIs(t, err, ErrInvalidPort)
}

func TestResolve_port(t *testing.T) {
	tests := []struct {
		name    string
		port    *int
		want    int
		wantErr bool
	}{
		{name: "absent uses default", port: nil, want: 5173},
		{name: "zero is kept", port: ptr(0), want: 0},
		{name: "upper bound", port: ptr(65535), want: 65535},
		{name: "above range", port: ptr(65536), wantErr: true},
		{name: "negative", port: ptr(-1), wantErr: true},
		{name: "far above range", port: ptr(70000), wantErr: true},
	}

	root := projectDir(t, "index.html")
	r := NewResolver(root)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := PartialBuildConfig{Server: PartialServerOptions{Port: tt.port}}

			cfg, err := r.Resolve(user, DefaultConfig())
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidPort)
				require.Equal(t, BuildConfig{}, cfg)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, cfg.Server.Port)
		})
	}
}

func TestResolve_invalidDefaultPort(t *testing.T) {
	root := projectDir(t, "index.html")
	defaults := DefaultConfig()
	defaults.Server.Port = 99999

	_, err := NewResolver(root).Resolve(PartialBuildConfig{}, defaults)
	require.ErrorIs(t, err, ErrInvalidPort)
}

func TestResolve_emptyEntryMap(t *testing.T) {
	root := projectDir(t, "index.html")
	r := NewResolver(root)

	t.Run("present but empty", func(t *testing.T) {
		user := PartialBuildConfig{
			Build: PartialBuildOptions{RollupOptions: PartialRollupOptions{Input: EntryMap{}}},
		}

		_, err := r.Resolve(user, DefaultConfig())
		require.ErrorIs(t, err, ErrEmptyEntryMap)
	})

	t.Run("absent with empty defaults", func(t *testing.T) {
		_, err := r.Resolve(PartialBuildConfig{}, scenarioDefaults())
		require.ErrorIs(t, err, ErrEmptyEntryMap)
	})

	t.Run("absent with default entry", func(t *testing.T) {
		cfg, err := r.Resolve(PartialBuildConfig{}, DefaultConfig())
		require.NoError(t, err)
		require.Equal(t, EntryMap{"main": "index.html"}, cfg.Build.RollupOptions.Input)
	})
}

func TestResolve_entryMapReplacesDefaults(t *testing.T) {
	root := projectDir(t, "index.html", "admin/index.html")

	user := PartialBuildConfig{
		Build: PartialBuildOptions{
			RollupOptions: PartialRollupOptions{Input: EntryMap{"admin": "admin/index.html"}},
		},
	}

	cfg, err := NewResolver(root).Resolve(user, DefaultConfig())
	require.NoError(t, err)
	require.Equal(t, EntryMap{"admin": "admin/index.html"}, cfg.Build.RollupOptions.Input)
}

func TestResolve_unresolvablePath(t *testing.T) {
	root := projectDir(t, "index.html", "pages/about.html")
	r := NewResolver(root)

	tests := []struct {
		name    string
		input   EntryMap
		wantErr bool
	}{
		{name: "relative with dot", input: EntryMap{"main": "./index.html"}},
		{name: "nested", input: EntryMap{"about": "pages/about.html"}},
		{name: "absolute", input: EntryMap{"main": filepath.Join(root, "index.html")}},
		{name: "missing file", input: EntryMap{"main": "./missing.html"}, wantErr: true},
		{name: "directory", input: EntryMap{"pages": "pages"}, wantErr: true},
		{name: "empty path", input: EntryMap{"main": ""}, wantErr: true},
		{name: "one of many missing", input: EntryMap{"main": "index.html", "other": "nope.html"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := PartialBuildConfig{
				Build: PartialBuildOptions{RollupOptions: PartialRollupOptions{Input: tt.input}},
			}

			_, err := r.Resolve(user, DefaultConfig())
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnresolvablePath)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestResolve_reportsEveryViolation(t *testing.T) {
	root := projectDir(t)

	user := PartialBuildConfig{
		Server: PartialServerOptions{Port: ptr(-20)},
		Build: PartialBuildOptions{
			RollupOptions: PartialRollupOptions{Input: EntryMap{"b": "b.html", "a": "a.html"}},
		},
	}

	_, err := NewResolver(root).Resolve(user, DefaultConfig())
	require.ErrorIs(t, err, ErrInvalidPort)
	require.ErrorIs(t, err, ErrUnresolvablePath)
	require.NotErrorIs(t, err, ErrEmptyEntryMap)

	var joined interface{ Unwrap() []error }
	require.True(t, errors.As(err, &joined))
	errs := joined.Unwrap()
	require.Len(t, errs, 3)
	require.ErrorIs(t, errs[0], ErrInvalidPort)
	require.Contains(t, errs[1].Error(), `entry "a"`)
	require.Contains(t, errs[2].Error(), `entry "b"`)
}

func TestResolve_pluginOrder(t *testing.T) {
	root := projectDir(t, "index.html")

	fw1, fw2 := newTestPlugin("framework-a"), newTestPlugin("framework-b")
	u1, u2 := newTestPlugin("user-1"), newTestPlugin("user-2")

	user := PartialBuildConfig{Plugins: []Plugin{u2, u1, u2}}

	cfg, err := NewResolver(root, fw1, fw2).Resolve(user, DefaultConfig())
	require.NoError(t, err)
	require.Equal(t, []Plugin{fw1, fw2, u2, u1, u2}, cfg.Plugins)
	require.Equal(t, []Plugin{u2, u1, u2}, cfg.UserPlugins())
}

func TestResolve_defaultPlugins(t *testing.T) {
	root := projectDir(t, "index.html")

	fw := newTestPlugin("framework")
	def := newTestPlugin("default")
	usr := newTestPlugin("user")

	defaults := DefaultConfig()
	defaults.Plugins = []Plugin{def}
	r := NewResolver(root, fw)

	t.Run("absent takes defaults", func(t *testing.T) {
		cfg, err := r.Resolve(PartialBuildConfig{}, defaults)
		require.NoError(t, err)
		require.Equal(t, []Plugin{fw, def}, cfg.Plugins)
	})

	t.Run("present replaces defaults", func(t *testing.T) {
		cfg, err := r.Resolve(PartialBuildConfig{Plugins: []Plugin{usr}}, defaults)
		require.NoError(t, err)
		require.Equal(t, []Plugin{fw, usr}, cfg.Plugins)
	})

	t.Run("present but empty", func(t *testing.T) {
		cfg, err := r.Resolve(PartialBuildConfig{Plugins: []Plugin{}}, defaults)
		require.NoError(t, err)
		require.Equal(t, []Plugin{fw}, cfg.Plugins)
	})
}

func TestResolve_idempotent(t *testing.T) {
	root := projectDir(t, "index.html", "admin.html", "src/main.ts")
	fw := newTestPlugin("framework")
	usr := newTestPlugin("user")
	r := NewResolver(root, fw)

	users := map[string]PartialBuildConfig{
		"empty": {},
		"port only": {
			Server: PartialServerOptions{Port: ptr(0)},
		},
		"everything": {
			Plugins: []Plugin{usr, usr},
			Server: PartialServerOptions{
				Host:        ptr("0.0.0.0"),
				Port:        ptr(3000),
				CORSOrigins: []string{"http://localhost:3000"},
			},
			Build: PartialBuildOptions{
				OutDir:    ptr("public"),
				Minify:    ptr(false),
				SourceMap: ptr(true),
				Compress:  ptr(true),
				RollupOptions: PartialRollupOptions{
					Input: EntryMap{"main": "./index.html", "admin": "admin.html", "app": "src/main.ts"},
				},
			},
		},
		"empty plugins and cors": {
			Plugins: []Plugin{},
			Server:  PartialServerOptions{CORSOrigins: []string{}},
		},
	}

	for name, user := range users {
		t.Run(name, func(t *testing.T) {
			first, err := r.Resolve(user, DefaultConfig())
			require.NoError(t, err)

			second, err := r.Resolve(first.AsPartial(), DefaultConfig())
			require.NoError(t, err)
			require.Equal(t, first, second)
		})
	}
}

func TestAsPartial_truncatedPlugins(t *testing.T) {
	root := projectDir(t, "index.html")
	fw := newTestPlugin("framework")
	usr := newTestPlugin("user")

	cfg, err := NewResolver(root, fw).Resolve(PartialBuildConfig{Plugins: []Plugin{usr}}, DefaultConfig())
	require.NoError(t, err)
	require.Equal(t, []Plugin{usr}, cfg.UserPlugins())

	cfg.Plugins = nil
	require.NotPanics(t, func() {
		require.Empty(t, cfg.AsPartial().Plugins)
	})

	again, err := NewResolver(root, fw).Resolve(cfg.AsPartial(), DefaultConfig())
	require.NoError(t, err)
	require.Equal(t, []Plugin{fw}, again.Plugins)
}

func TestResolve_doesNotShareState(t *testing.T) {
	root := projectDir(t, "index.html", "other.html")

	defaults := DefaultConfig()
	user := PartialBuildConfig{
		Server: PartialServerOptions{CORSOrigins: []string{"http://a"}},
	}

	cfg, err := NewResolver(root).Resolve(user, defaults)
	require.NoError(t, err)

	cfg.Build.RollupOptions.Input["other"] = "other.html"
	cfg.Server.CORSOrigins[0] = "http://b"

	require.Equal(t, EntryMap{"main": "index.html"}, defaults.Build.RollupOptions.Input)
	require.Equal(t, []string{"http://a"}, user.Server.CORSOrigins)
}

func TestResolver_Abs(t *testing.T) {
	r := NewResolver("/srv/app")

	require.Equal(t, filepath.Join("/srv/app", "index.html"), r.Abs("./index.html"))
	require.Equal(t, filepath.Clean("/tmp/x.html"), r.Abs("/tmp/x.html"))
}
