package bundler

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/webbuild/internal/buildconfig"
)

type watchBuild struct {
	res *Result
	err error
}

// replaceFile swaps content in with a rename so the watcher never sees a
// half written file.
func replaceFile(t *testing.T, path, content string) {
	t.Helper()

	tmp := path + ".tmp"
	require.NoError(t, os.WriteFile(tmp, []byte(content), 0o600))
	require.NoError(t, os.Rename(tmp, path))
}

func TestWatch(t *testing.T) {
	root := sampleProject(t)
	b := newBundler(t, root, resolve(t, root, buildconfig.PartialBuildConfig{}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	builds := make(chan watchBuild, 16)
	stop, err := b.Watch(ctx, func(res *Result, err error) {
		builds <- watchBuild{res: res, err: err}
	})
	require.NoError(t, err)
	defer stop()

	next := func(t *testing.T) watchBuild {
		t.Helper()
		select {
		case wb := <-builds:
			return wb
		case <-time.After(30 * time.Second):
			t.Fatal("no build finished")
			return watchBuild{}
		}
	}

	first := next(t)
	require.NoError(t, first.err)
	require.NotEmpty(t, first.res.BuildID)

	main := first.res.Manifest.Entries["main"]
	require.Len(t, main.CSS, 1)

	page, err := os.ReadFile(filepath.Join(b.OutDir(), "index.html"))
	require.NoError(t, err)
	require.Contains(t, string(page), `src="/assets/main-`)
	require.Contains(t, string(page), `rel="stylesheet" href="`+main.CSS[0]+`"`)

	greet := filepath.Join(root, "src", "greet.ts")

	t.Run("rebuild on change", func(t *testing.T) {
		replaceFile(t, greet, "export const greet = (name: string): string => 'hi ' + name\n")

		second := next(t)
		require.NoError(t, second.err)
		require.NotEqual(t, first.res.BuildID, second.res.BuildID)

		m, err := ReadManifest(filepath.Join(b.OutDir(), "manifest.json"))
		require.NoError(t, err)
		require.Equal(t, second.res.BuildID, m.BuildID)
		require.NoError(t, m.Verify(b.OutDir()))
	})

	t.Run("failed rebuild", func(t *testing.T) {
		replaceFile(t, greet, "export const greet = (\n")

		broken := next(t)
		require.ErrorIs(t, broken.err, ErrBuildFailed)
		require.Nil(t, broken.res)
	})
}
