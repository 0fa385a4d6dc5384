package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARNING"))
	assert.Equal(t, slog.LevelError, ParseLevel(" ERROR "))
	assert.Equal(t, slog.LevelInfo, ParseLevel("whatever"))
}

func TestConfigureWriterJSON(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	ConfigureWriter(&buf, "WARN", "json")

	slog.Info("hidden")
	slog.Warn("catalog reload failed", "source", "data/tnved.json")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &rec))
	assert.Equal(t, "catalog reload failed", rec["msg"])
	assert.Equal(t, "data/tnved.json", rec["source"])
}

func TestSetLevelAppliesToInstalledHandler(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	ConfigureWriter(&buf, "info", "text")
	slog.Debug("hidden")
	assert.Zero(t, buf.Len())

	SetLevel(slog.LevelDebug)
	assert.Equal(t, slog.LevelDebug, Level())
	slog.Debug("cache sweep", "removed", 3)
	assert.Contains(t, buf.String(), "cache sweep")
}
