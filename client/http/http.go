package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	nhttp "net/http"
	"net/url"
	"strings"
	"time"

	clock "github.com/jonboulle/clockwork"
	json "github.com/nikkolasg/hexjson"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/drand/drand-mcp/client"
	"github.com/drand/drand-mcp/common"
	"github.com/drand/drand-mcp/common/log"
	"github.com/drand/drand-mcp/internal/metrics"
)

// DefaultURL is the League of Entropy HTTP endpoint.
const DefaultURL = "https://api.drand.sh"

// DefaultTimeout bounds every request made by a Client.
const DefaultTimeout = 5 * time.Second

// LatestPath is where the latest beacon is served, relative to the root URL.
const LatestPath = "drand/public/latest"

// maxErrorBody caps how much of a failed response is read looking for a message.
const maxErrorBody = 64 << 10

var errNoSignature = errors.New("insufficient response - signature is not present")

// APIError is returned when the beacon server answers with a non-2xx status.
type APIError struct {
	StatusCode int
	// Message is the server supplied "message" field, if the body carried one.
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status code %d", e.StatusCode)
}

// Message renders err the way it is reported back to a tool caller: the
// server supplied message when there is one, otherwise the transport level
// description of the failure.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err.Error()
	}
	return err.Error()
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithTransport replaces the round tripper used underneath the
// instrumentation.
func WithTransport(rt nhttp.RoundTripper) Option {
	return func(c *Client) {
		c.transport = rt
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.agent = ua
	}
}

// WithClock sets the clock used to measure request latency.
func WithClock(clk clock.Clock) Option {
	return func(c *Client) {
		c.clock = clk
	}
}

// Client fetches beacons from a drand HTTP endpoint. It keeps no state
// between calls and is safe for concurrent use.
type Client struct {
	root      string
	timeout   time.Duration
	transport nhttp.RoundTripper
	agent     string
	clock     clock.Clock
	client    *nhttp.Client
	l         log.Logger
}

// New creates a client rooted at the given URL.
func New(l log.Logger, root string, opts ...Option) *Client {
	if !strings.HasSuffix(root, "/") {
		root += "/"
	}
	c := &Client{
		root:      root,
		timeout:   DefaultTimeout,
		transport: nhttp.DefaultTransport,
		agent:     common.UserAgent(),
		clock:     clock.NewRealClock(),
		l:         l,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.client = instrumentClient(c.transport, c.timeout)
	return c
}

// instrumentClient wraps transport with the client metrics.
func instrumentClient(transport nhttp.RoundTripper, timeout time.Duration) *nhttp.Client {
	transport = promhttp.InstrumentRoundTripperInFlight(metrics.ClientInFlight,
		promhttp.InstrumentRoundTripperCounter(metrics.ClientRequests,
			promhttp.InstrumentRoundTripperDuration(metrics.ClientLatency, transport)))

	return &nhttp.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// String returns the name of this client.
func (c *Client) String() string {
	return fmt.Sprintf("HTTP(%q)", c.root)
}

// Latest performs one request for the most recent beacon.
func (c *Client) Latest(ctx context.Context) (*client.RandomData, error) {
	u := c.root + LatestPath

	req, err := nhttp.NewRequestWithContext(ctx, nhttp.MethodGet, u, nhttp.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.agent)
	req.Header.Set("Accept", "application/json")

	start := c.clock.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.l.Debugw("beacon request failed", "url", u, "err", err)
		return nil, fmt.Errorf("doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: errorMessage(resp.Body)}
		c.l.Debugw("beacon request rejected", "url", u, "status", resp.StatusCode, "message", apiErr.Message)
		return nil, apiErr
	}

	rand := new(client.RandomData)
	if err := json.NewDecoder(resp.Body).Decode(rand); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if rand.Sig == "" {
		return nil, errNoSignature
	}

	metrics.LastBeaconRound.Set(float64(rand.Rnd))
	c.l.Debugw("fetched beacon", "url", u, "round", rand.Rnd, "took", c.clock.Since(start))
	return rand, nil
}

// errorMessage extracts the "message" field of a JSON error body, if any.
func errorMessage(body io.Reader) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(body, maxErrorBody)).Decode(&payload); err != nil {
		return ""
	}
	return payload.Message
}

// Close releases idle connections held by the client.
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
