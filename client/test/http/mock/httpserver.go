package mock

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	json "github.com/nikkolasg/hexjson"

	"github.com/drand/drand-mcp/client"
)

// Server is a fake drand HTTP endpoint serving a configurable latest beacon.
type Server struct {
	*httptest.Server

	mu      sync.Mutex
	beacon  client.RandomData
	status  int
	errBody string
	agent   string
	hits    atomic.Int64
}

// NewMockHTTPPublicServer starts a server answering /drand/public/latest
// with beacon. It is closed when the test ends.
func NewMockHTTPPublicServer(t testing.TB, beacon client.RandomData) *Server {
	t.Helper()

	s := &Server{beacon: beacon, status: http.StatusOK}

	r := chi.NewRouter()
	r.Get("/drand/public/latest", s.latest)
	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

func (s *Server) latest(w http.ResponseWriter, r *http.Request) {
	s.hits.Add(1)

	s.mu.Lock()
	s.agent = r.UserAgent()
	beacon, status, errBody := s.beacon, s.status, s.errBody
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if status != http.StatusOK || errBody != "" {
		_, _ = w.Write([]byte(errBody))
		return
	}
	_ = json.NewEncoder(w).Encode(beacon)
}

// SetBeacon serves beacon from now on, clearing any failure set by Fail.
func (s *Server) SetBeacon(beacon client.RandomData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beacon = beacon
	s.status = http.StatusOK
	s.errBody = ""
}

// Fail makes every following request answer with status and the raw body.
// A 200 status with a body serves that body in place of the beacon.
func (s *Server) Fail(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	s.errBody = body
}

// Hits is the number of requests received so far.
func (s *Server) Hits() int64 {
	return s.hits.Load()
}

// UserAgent is the User-Agent of the last request.
func (s *Server) UserAgent() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agent
}
