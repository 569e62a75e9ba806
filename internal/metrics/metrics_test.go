package metrics

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/drand/drand-mcp/common/testlogger"
)

func TestHandlerServesMetrics(t *testing.T) {
	h := Handler(testlogger.New(t))
	ToolCalls.WithLabelValues("get_round_info", OutcomeSuccess).Inc()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	require.Contains(t, body, "tool_calls_total")
	require.Contains(t, body, `tool="get_round_info"`)
	require.Contains(t, body, "build_info")
}

func TestHandlerHealth(t *testing.T) {
	h := Handler(testlogger.New(t))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "ok", rr.Body.String())

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nope", http.NoBody))
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestStart(t *testing.T) {
	before := testutil.ToFloat64(ToolCalls.WithLabelValues("get_latest_randomness", OutcomeError))
	ToolCalls.WithLabelValues("get_latest_randomness", OutcomeError).Inc()

	ln := Start(testlogger.New(t), "127.0.0.1:0")
	require.NotNil(t, ln)
	defer ln.Close()

	resp, err := http.Get(fmt.Sprintf("http://%s/metrics", ln.Addr()))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), fmt.Sprintf(`tool_calls_total{outcome="error",tool="get_latest_randomness"} %v`, before+1))
}

func TestStartBadBind(t *testing.T) {
	require.Nil(t, Start(testlogger.New(t), "not-an-address"))
}
