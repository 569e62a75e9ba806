package testlogger

import (
	"os"
	"testing"

	"github.com/drand/drand-mcp/common/log"
)

// Level is debug when DRAND_MCP_TEST_LOGS=DEBUG is set, info otherwise.
func Level(t testing.TB) int {
	if v, ok := os.LookupEnv("DRAND_MCP_TEST_LOGS"); ok && v == "DEBUG" {
		t.Log("Enabling DebugLevel logs")
		return log.DebugLevel
	}
	return log.InfoLevel
}

// New returns a stderr logger tagged with the running test's name.
func New(t testing.TB) log.Logger {
	return log.New(nil, Level(t), true).With("testName", t.Name())
}
