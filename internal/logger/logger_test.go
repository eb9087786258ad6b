package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_json(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, false)

	log.Debug().Msg("hidden")
	log.Info().Str("outdir", "dist").Msg("Building assets")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "info", entry["level"])
	require.Equal(t, "dist", entry["outdir"])
	require.Equal(t, "Building assets", entry["message"])
	require.Contains(t, entry, "time")
}

func TestNew_debug(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, true)

	log.Debug().Str("file", "assets/main.js").Msg("Built file")

	require.Contains(t, buf.String(), "Built file")
	require.Contains(t, buf.String(), "assets/main.js")
	require.NotContains(t, buf.String(), `"level"`)
}
