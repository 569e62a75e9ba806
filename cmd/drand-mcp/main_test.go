package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/drand/drand-mcp/client"
	"github.com/drand/drand-mcp/client/test/http/mock"
	"github.com/drand/drand-mcp/common"
)

func TestVersion(t *testing.T) {
	var stderr bytes.Buffer
	app := newApp(io.NopCloser(&bytes.Buffer{}), nopWriteCloser{io.Discard}, &stderr)

	require.NoError(t, app.Run([]string{common.AppName, "--version"}))
	require.Contains(t, stderr.String(), common.AppName+" "+common.GetAppVersion().String())
}

func TestInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		args []string
		err  string
	}{
		{"zero timeout", []string{"--timeout", "0s"}, "timeout must be positive"},
		{"bad url", []string{"--url", "drand.sh"}, "scheme must be http or https"},
		{"bad level", []string{"--log-level", "chatty"}, "unknown log level"},
		{"missing file", []string{"--config", filepath.Join(t.TempDir(), "nope.toml")}, "reading config"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			app := newApp(io.NopCloser(&bytes.Buffer{}), nopWriteCloser{io.Discard}, io.Discard)
			err := app.Run(append([]string{common.AppName}, test.args...))
			require.ErrorContains(t, err, test.err)
		})
	}
}

func TestFlagsOverrideConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drand-mcp.toml")
	require.NoError(t, os.WriteFile(path, []byte("url = \"http://file.example\"\ntimeout = \"2s\"\n"), 0o600))

	app := newApp(io.NopCloser(&bytes.Buffer{}), nopWriteCloser{io.Discard}, io.Discard)
	app.Action = func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		require.NoError(t, err)
		require.Equal(t, "http://flag.example", cfg.URL)
		require.Equal(t, 2*time.Second, cfg.Timeout.Duration)
		return nil
	}
	require.NoError(t, app.Run([]string{common.AppName, "--config", path, "--url", "http://flag.example"}))
}

func TestServeOverPipes(t *testing.T) {
	srv := mock.NewMockHTTPPublicServer(t, client.RandomData{Rnd: 100, Random: "abc123", Sig: "sig1", PreviousSignature: "sig0"})

	stdinR, stdinW := io.Pipe()
	stdoutR, stdoutW := io.Pipe()
	var stderr bytes.Buffer

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		app := newApp(stdinR, stdoutW, &stderr)
		done <- app.RunContext(ctx, []string{common.AppName, "--url", srv.URL, "--timeout", "1s"})
	}()

	host := mcp.NewClient(&mcp.Implementation{Name: "test-host", Version: "v0.0.1"}, nil)
	cs, err := host.Connect(context.Background(), &mcp.IOTransport{Reader: stdoutR, Writer: stdinW}, nil)
	require.NoError(t, err)
	defer cs.Close()

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: "get_latest_randomness"})
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Equal(t, "Latest randomness: abc123", res.Content[0].(*mcp.TextContent).Text)

	_, err = cs.CallTool(context.Background(), &mcp.CallToolParams{Name: "nonexistent_tool"})
	require.ErrorContains(t, err, "Unknown tool: nonexistent_tool")

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after cancellation")
	}
	require.Equal(t, int64(1), srv.Hits())
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
