package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap/zapcore"

	dhttp "github.com/drand/drand-mcp/client/http"
	"github.com/drand/drand-mcp/common"
	"github.com/drand/drand-mcp/common/log"
	"github.com/drand/drand-mcp/internal/adapter"
	"github.com/drand/drand-mcp/internal/config"
	"github.com/drand/drand-mcp/internal/metrics"
)

var configFlag = &cli.PathFlag{
	Name:    "config",
	Usage:   "TOML file holding the settings below, overridden by flags",
	EnvVars: []string{"DRAND_MCP_CONFIG"},
}

var urlFlag = &cli.StringFlag{
	Name:    "url",
	Usage:   "root URL of the drand HTTP API",
	Value:   dhttp.DefaultURL,
	EnvVars: []string{"DRAND_MCP_URL"},
}

var timeoutFlag = &cli.DurationFlag{
	Name:    "timeout",
	Usage:   "timeout of each beacon request",
	Value:   dhttp.DefaultTimeout,
	EnvVars: []string{"DRAND_MCP_TIMEOUT"},
}

var metricsFlag = &cli.StringFlag{
	Name:    "metrics",
	Usage:   "local host:port to bind a metrics servlet (optional)",
	EnvVars: []string{"DRAND_MCP_METRICS"},
}

var logLevelFlag = &cli.StringFlag{
	Name:    "log-level",
	Usage:   "one of debug, info, warn, error",
	Value:   "info",
	EnvVars: []string{"DRAND_MCP_LOG_LEVEL"},
}

var jsonFlag = &cli.BoolFlag{
	Name:    "json",
	Usage:   "Set the log output as json format",
	EnvVars: []string{"DRAND_MCP_JSON_LOGS"},
}

func newApp(stdin io.ReadCloser, stdout io.WriteCloser, stderr io.Writer) *cli.App {
	version := common.GetAppVersion()

	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Fprintf(c.App.Writer, "%s %v (date %v, commit %v)\n", c.App.Name, c.App.Version, common.BUILDDATE, common.COMMIT)
	}

	app := &cli.App{
		Name:      common.AppName,
		Version:   version.String(),
		Usage:     "Serve drand randomness to MCP hosts over stdio",
		Flags:     []cli.Flag{configFlag, urlFlag, timeoutFlag, metricsFlag, logLevelFlag, jsonFlag},
		Writer:    stderr,
		ErrWriter: stderr,
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			return serve(c.Context, cfg, &mcp.IOTransport{Reader: stdin, Writer: stdout}, stderr)
		},
	}
	return app
}

// loadConfig layers defaults, the config file and explicitly set flags.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := c.Path(configFlag.Name); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return cfg, err
		}
	}
	if c.IsSet(urlFlag.Name) {
		cfg.URL = c.String(urlFlag.Name)
	}
	if c.IsSet(timeoutFlag.Name) {
		cfg.Timeout = config.Duration{Duration: c.Duration(timeoutFlag.Name)}
	}
	if c.IsSet(metricsFlag.Name) {
		cfg.MetricsAddr = c.String(metricsFlag.Name)
	}
	if c.IsSet(logLevelFlag.Name) {
		cfg.LogLevel = c.String(logLevelFlag.Name)
	}
	if c.IsSet(jsonFlag.Name) {
		cfg.JSONLogs = c.Bool(jsonFlag.Name)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cfg config.Config, t mcp.Transport, stderr io.Writer) error {
	level, err := cfg.Level()
	if err != nil {
		return err
	}
	log.ConfigureDefaultLogger(zapcore.Lock(zapcore.AddSync(stderr)), level, cfg.JSONLogs)
	l := log.DefaultLogger().Named(common.AppName)

	if cfg.MetricsAddr != "" {
		if ln := metrics.Start(l, cfg.MetricsAddr); ln != nil {
			defer ln.Close()
		}
	}

	beacons := dhttp.New(l.Named("beacon"), cfg.URL, dhttp.WithTimeout(cfg.Timeout.Duration))
	defer beacons.Close()
	l.Debugw("beacon client ready", "client", beacons.String(), "timeout", cfg.Timeout.String())

	return adapter.New(l.Named("adapter"), beacons).Serve(ctx, t)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdin, os.Stdout, os.Stderr).RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", common.AppName, err)
		stop()
		os.Exit(1)
	}
}
