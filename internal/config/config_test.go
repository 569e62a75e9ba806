package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/require"

	"github.com/drand/drand-mcp/common/log"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "drand-mcp.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	c := Default()
	require.Equal(t, "https://api.drand.sh", c.URL)
	require.Equal(t, 5000*time.Millisecond, c.Timeout.Duration)
	require.Empty(t, c.MetricsAddr)
	require.NoError(t, c.Validate())

	lvl, err := c.Level()
	require.NoError(t, err)
	require.Equal(t, log.InfoLevel, lvl)
}

func TestLoadFileOverlays(t *testing.T) {
	path := writeFile(t, `
url = "http://localhost:8080"
timeout = "1500ms"
json_logs = true
`)
	c := Default()
	require.NoError(t, c.LoadFile(path))

	require.Equal(t, "http://localhost:8080", c.URL)
	require.Equal(t, 1500*time.Millisecond, c.Timeout.Duration)
	require.True(t, c.JSONLogs)
	// untouched keys keep their defaults
	require.Equal(t, "info", c.LogLevel)
	require.Empty(t, c.MetricsAddr)
}

func TestLoadFileUnknownKey(t *testing.T) {
	path := writeFile(t, `
url = "http://localhost:8080"
chain_hash = "8990e7a9"
`)
	c := Default()
	err := c.LoadFile(path)
	require.ErrorIs(t, err, ErrUnknownKeys)
	require.ErrorContains(t, err, "chain_hash")
}

func TestLoadFileErrors(t *testing.T) {
	c := Default()
	require.Error(t, c.LoadFile(filepath.Join(t.TempDir(), "missing.toml")))

	c = Default()
	require.Error(t, c.LoadFile(writeFile(t, `timeout = "soon"`)))
}

func TestValidateCollectsAllErrors(t *testing.T) {
	c := Config{
		URL:         "ftp://api.drand.sh",
		Timeout:     Duration{0},
		MetricsAddr: "9090",
		LogLevel:    "loud",
	}

	err := c.Validate()
	require.Error(t, err)

	merr, ok := err.(*multierror.Error)
	require.True(t, ok)
	require.Len(t, merr.Errors, 4)
	require.ErrorContains(t, err, "scheme must be http or https")
	require.ErrorContains(t, err, "timeout must be positive")
	require.ErrorContains(t, err, `unknown log level "loud"`)
	require.ErrorContains(t, err, "invalid metrics address")
}

func TestValidateMissingHost(t *testing.T) {
	c := Default()
	c.URL = "http://"
	require.ErrorContains(t, c.Validate(), "missing host")

	c = Default()
	c.MetricsAddr = "127.0.0.1:9090"
	require.NoError(t, c.Validate())
}

func TestDurationText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("2s")))
	require.Equal(t, 2*time.Second, d.Duration)

	out, err := d.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "2s", string(out))
}
