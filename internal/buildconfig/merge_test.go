package buildconfig

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOverlay(t *testing.T) {
	p1, p2 := newTestPlugin("one"), newTestPlugin("two")

	base := PartialBuildConfig{
		Plugins: []Plugin{p1},
		Server: PartialServerOptions{
			Host:        ptr("localhost"),
			Port:        ptr(5173),
			CORSOrigins: []string{"http://base"},
		},
		Build: PartialBuildOptions{
			OutDir: ptr("dist"),
			Minify: ptr(true),
			RollupOptions: PartialRollupOptions{
				Input: EntryMap{"main": "index.html", "admin": "admin.html"},
			},
		},
	}

	tests := []struct {
		name   string
		top    PartialBuildConfig
		verify func(t *testing.T, got PartialBuildConfig)
	}{
		{
			name: "empty top keeps base",
			top:  PartialBuildConfig{},
			verify: func(t *testing.T, got PartialBuildConfig) {
				require.Equal(t, base, got)
			},
		},
		{
			name: "present zero values win",
			top: PartialBuildConfig{
				Server: PartialServerOptions{Port: ptr(0), Host: ptr("")},
				Build:  PartialBuildOptions{Minify: ptr(false)},
			},
			verify: func(t *testing.T, got PartialBuildConfig) {
				require.Equal(t, 0, *got.Server.Port)
				require.Equal(t, "", *got.Server.Host)
				require.False(t, *got.Build.Minify)
				require.Equal(t, "dist", *got.Build.OutDir)
			},
		},
		{
			name: "entry map is replaced whole",
			top: PartialBuildConfig{
				Build: PartialBuildOptions{RollupOptions: PartialRollupOptions{Input: EntryMap{"app": "app.html"}}},
			},
			verify: func(t *testing.T, got PartialBuildConfig) {
				require.Equal(t, EntryMap{"app": "app.html"}, got.Build.RollupOptions.Input)
			},
		},
		{
			name: "empty slices are kept",
			top: PartialBuildConfig{
				Plugins: []Plugin{},
				Server:  PartialServerOptions{CORSOrigins: []string{}},
			},
			verify: func(t *testing.T, got PartialBuildConfig) {
				require.NotNil(t, got.Plugins)
				require.Empty(t, got.Plugins)
				require.NotNil(t, got.Server.CORSOrigins)
				require.Empty(t, got.Server.CORSOrigins)
			},
		},
		{
			name: "plugins are not concatenated",
			top:  PartialBuildConfig{Plugins: []Plugin{p2}},
			verify: func(t *testing.T, got PartialBuildConfig) {
				require.Equal(t, []Plugin{p2}, got.Plugins)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Overlay(tt.top, base)
			require.NoError(t, err)
			tt.verify(t, got)
		})
	}
}

func TestOverlay_doesNotAlias(t *testing.T) {
	base := PartialBuildConfig{
		Server: PartialServerOptions{Port: ptr(5173)},
		Build: PartialBuildOptions{
			RollupOptions: PartialRollupOptions{Input: EntryMap{"main": "index.html"}},
		},
	}

	got, err := Overlay(PartialBuildConfig{}, base)
	require.NoError(t, err)

	*got.Server.Port = 1
	got.Build.RollupOptions.Input["main"] = "changed.html"

	require.Equal(t, 5173, *base.Server.Port)
	require.Equal(t, "index.html", base.Build.RollupOptions.Input["main"])
}
