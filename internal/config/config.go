// Package config holds the adapter settings. Values come from defaults, then
// an optional TOML file, then command line flags or their environment
// variables, each layer overriding the previous one.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-multierror"

	dhttp "github.com/drand/drand-mcp/client/http"
	"github.com/drand/drand-mcp/common/log"
)

// ErrUnknownKeys is returned by LoadFile when the file sets keys this
// package does not know about.
var ErrUnknownKeys = errors.New("unknown configuration keys")

// Duration is a time.Duration read from strings such as "5s" or "1500ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config holds everything needed to run the adapter.
type Config struct {
	// URL is the root of the beacon HTTP API.
	URL string `toml:"url"`
	// Timeout bounds each beacon request.
	Timeout Duration `toml:"timeout"`
	// MetricsAddr is the host:port of the metrics listener, empty to disable.
	MetricsAddr string `toml:"metrics"`
	LogLevel    string `toml:"log_level"`
	JSONLogs    bool   `toml:"json_logs"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		URL:      dhttp.DefaultURL,
		Timeout:  Duration{dhttp.DefaultTimeout},
		LogLevel: "info",
	}
}

// LoadFile overlays the TOML file at path onto c. Keys absent from the file
// keep their current value.
func (c *Config) LoadFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("%w in %s: %s", ErrUnknownKeys, path, strings.Join(keys, ", "))
	}
	return nil
}

// Level returns the parsed log level.
func (c Config) Level() (int, error) {
	return log.ParseLevel(c.LogLevel)
}

// Validate reports every problem found in c at once.
func (c Config) Validate() error {
	var result *multierror.Error

	u, err := url.Parse(c.URL)
	switch {
	case err != nil:
		result = multierror.Append(result, fmt.Errorf("invalid url %q: %w", c.URL, err))
	case u.Scheme != "http" && u.Scheme != "https":
		result = multierror.Append(result, fmt.Errorf("invalid url %q: scheme must be http or https", c.URL))
	case u.Host == "":
		result = multierror.Append(result, fmt.Errorf("invalid url %q: missing host", c.URL))
	}

	if c.Timeout.Duration <= 0 {
		result = multierror.Append(result, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}

	if _, err := c.Level(); err != nil {
		result = multierror.Append(result, err)
	}

	if c.MetricsAddr != "" {
		if _, _, err := net.SplitHostPort(c.MetricsAddr); err != nil {
			result = multierror.Append(result, fmt.Errorf("invalid metrics address %q: %w", c.MetricsAddr, err))
		}
	}

	return result.ErrorOrNil()
}
