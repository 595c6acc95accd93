package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsNormalized(t *testing.T) {
	cfg := Default()
	before := cfg
	require.NoError(t, cfg.Normalize())
	assert.Equal(t, before, cfg)
	assert.Equal(t, ":50053", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.Timeout)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codeanalysis.yaml")
	data := `log_level: debug
analysis:
  low_threshold: 3
  abstract_markers: [Interface]
server:
  http_addr: "127.0.0.1:8080"
  framing: line
  timeout: 2s
batch:
  extensions: [py]
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 3, cfg.Analysis.LowThreshold)
	assert.Equal(t, 10, cfg.Analysis.MediumThreshold)
	assert.Equal(t, []string{"Interface"}, cfg.Analysis.AbstractMarkers)
	assert.Equal(t, ":50053", cfg.Server.Addr)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.HTTPAddr)
	assert.Equal(t, FramingLine, cfg.Server.Framing)
	assert.Equal(t, 2*time.Second, cfg.Server.Timeout)
	assert.Equal(t, []string{".py"}, cfg.Batch.Extensions)

	opts := cfg.AnalysisOptions(slog.Default())
	assert.Equal(t, 3, opts.LowThreshold)
	assert.Equal(t, []string{"Interface"}, opts.AbstractMarkers)
}

func TestLoadRejectsBadValues(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"thresholds": "analysis:\n  low_threshold: 8\n  medium_threshold: 4\n",
		"framing":    "server:\n  framing: grpc\n",
		"log level":  "log_level: chatty\n",
		"yaml":       "analysis: [",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
	_, err = Load("")
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Server.Timeout = 3 * time.Second
	cfg.Analysis.DocstringLimit = 80

	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}
