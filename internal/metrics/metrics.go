package metrics

import (
	"errors"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/drand/drand-mcp/common"
	"github.com/drand/drand-mcp/common/log"
)

var (
	// ClientMetrics holds everything this process exposes.
	ClientMetrics = prometheus.NewRegistry()

	// ClientInFlight measures how many beacon requests are currently open.
	ClientInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "client_in_flight",
		Help: "A gauge of in-flight beacon http requests.",
	})

	// ClientRequests counts beacon requests that received a response.
	ClientRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "client_api_requests_total",
		Help: "A counter for requests sent to the beacon endpoint.",
	}, []string{"code", "method"})

	// ClientLatency tracks raw http request latencies.
	ClientLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "client_request_duration_seconds",
		Help:    "A histogram of beacon request latencies.",
		Buckets: prometheus.DefBuckets,
	}, nil)

	// LastBeaconRound is the most recent round fetched from the beacon.
	LastBeaconRound = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "last_beacon_round",
		Help: "Last beacon round returned by the upstream endpoint",
	})

	// ToolCalls counts tool invocations by name and outcome.
	ToolCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tool_calls_total",
		Help: "Number of MCP tool calls handled",
	}, []string{"tool", "outcome"})

	buildInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "build_info",
		Help: "Build information about this binary",
	}, []string{"version", "commit", "date"})
)

// Outcomes recorded on ToolCalls.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

var bindOnce sync.Once

func bindMetrics(l log.Logger) {
	all := []prometheus.Collector{
		ClientInFlight,
		ClientRequests,
		ClientLatency,
		LastBeaconRound,
		ToolCalls,
		buildInfo,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, c := range all {
		if err := ClientMetrics.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				l.Errorw("registering metric", "err", err)
			}
		}
	}
	buildInfo.WithLabelValues(common.GetAppVersion().String(), common.COMMIT, common.BUILDDATE).Set(1)
}

// Handler returns the router serving /metrics and /health. Requests are
// access logged to stderr.
func Handler(l log.Logger) http.Handler {
	bindOnce.Do(func() { bindMetrics(l) })

	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(ClientMetrics, promhttp.HandlerOpts{
		Registry: ClientMetrics,
		Timeout:  10 * time.Second,
	}))
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return handlers.CombinedLoggingHandler(os.Stderr, r)
}

// Start serves Handler on metricsBind in the background. The caller closes
// the returned listener to stop serving. Returns nil if the bind fails.
func Start(l log.Logger, metricsBind string) net.Listener {
	l = l.Named("metrics")

	ln, err := net.Listen("tcp", metricsBind)
	if err != nil {
		l.Warnw("metrics listener not started", "bind", metricsBind, "err", err)
		return nil
	}
	l.Infow("metrics listener started", "addr", ln.Addr().String())

	s := http.Server{Addr: ln.Addr().String(), ReadHeaderTimeout: 3 * time.Second, Handler: Handler(l)}
	go func() {
		if err := s.Serve(ln); err != nil && !errors.Is(err, net.ErrClosed) {
			l.Warnw("metrics listener stopped", "err", err)
		}
	}()
	return ln
}
