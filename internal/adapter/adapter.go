// Package adapter exposes drand beacons as MCP tools.
//
// Two tools are declared, get_latest_randomness and get_round_info. Both take
// no arguments and perform exactly one request against the beacon endpoint.
// Upstream failures come back as tool results flagged with isError; calling a
// tool that does not exist is a protocol fault.
package adapter

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	json "github.com/nikkolasg/hexjson"

	"github.com/drand/drand-mcp/client"
	dhttp "github.com/drand/drand-mcp/client/http"
	"github.com/drand/drand-mcp/common"
	"github.com/drand/drand-mcp/common/log"
	"github.com/drand/drand-mcp/internal/metrics"
)

const (
	// LatestRandomnessTool returns the randomness of the latest round.
	LatestRandomnessTool = "get_latest_randomness"
	// RoundInfoTool returns the metadata of the latest round.
	RoundInfoTool = "get_round_info"

	randomnessLabel = "Latest randomness: "
)

// codeMethodNotFound is the JSON-RPC 2.0 "method not found" error code.
const codeMethodNotFound = -32601

// Fetcher retrieves the latest beacon.
type Fetcher interface {
	Latest(ctx context.Context) (*client.RandomData, error)
}

type handler func(ctx context.Context, l log.Logger) (*mcp.CallToolResult, error)

// Adapter binds a Fetcher to an MCP server.
type Adapter struct {
	fetcher Fetcher
	l       log.Logger
	server  *mcp.Server
	tools   map[string]struct{}
}

// New builds the MCP server and registers both tools on it.
func New(l log.Logger, fetcher Fetcher) *Adapter {
	a := &Adapter{
		fetcher: fetcher,
		l:       l,
		tools:   make(map[string]struct{}),
	}
	a.server = mcp.NewServer(&mcp.Implementation{
		Name:    common.AppName,
		Version: common.GetAppVersion().String(),
	}, nil)
	a.server.AddReceivingMiddleware(a.rejectUnknownTools)

	a.addTool(LatestRandomnessTool, "Get the latest randomness from drand League of Entropy", a.latestRandomness)
	a.addTool(RoundInfoTool, "Get information about the current drand round", a.roundInfo)
	return a
}

// Server returns the underlying MCP server.
func (a *Adapter) Server() *mcp.Server {
	return a.server
}

func (a *Adapter) addTool(name, description string, h handler) {
	a.tools[name] = struct{}{}
	a.server.AddTool(&mcp.Tool{
		Name:        name,
		Description: description,
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, func(ctx context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		l := a.l.With("tool", name, "call", uuid.NewString())
		l.Debugw("tool called")

		res, err := h(ctx, l)
		if err != nil {
			return nil, err
		}
		outcome := metrics.OutcomeSuccess
		if res.IsError {
			outcome = metrics.OutcomeError
		}
		metrics.ToolCalls.WithLabelValues(name, outcome).Inc()
		return res, nil
	})
}

// rejectUnknownTools turns calls to undeclared tools into a method not found
// fault before they reach the SDK dispatcher.
func (a *Adapter) rejectUnknownTools(next mcp.MethodHandler) mcp.MethodHandler {
	return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
		if call, ok := req.(*mcp.CallToolRequest); ok && call.Params != nil {
			if _, known := a.tools[call.Params.Name]; !known {
				a.l.Warnw("call to unknown tool", "tool", call.Params.Name)
				return nil, unknownTool(call.Params.Name)
			}
		}
		return next(ctx, method, req)
	}
}

func unknownTool(name string) error {
	return &jsonrpc.Error{
		Code:    codeMethodNotFound,
		Message: fmt.Sprintf("Unknown tool: %s", name),
	}
}

func (a *Adapter) latestRandomness(ctx context.Context, l log.Logger) (*mcp.CallToolResult, error) {
	beacon, err := a.fetcher.Latest(ctx)
	if err != nil {
		return upstreamFailure(l, err), nil
	}
	return textResult(randomnessLabel + beacon.Randomness()), nil
}

func (a *Adapter) roundInfo(ctx context.Context, l log.Logger) (*mcp.CallToolResult, error) {
	beacon, err := a.fetcher.Latest(ctx)
	if err != nil {
		return upstreamFailure(l, err), nil
	}
	out, err := json.MarshalIndent(beacon.Info(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding round info: %w", err)
	}
	return textResult(string(out)), nil
}

func upstreamFailure(l log.Logger, err error) *mcp.CallToolResult {
	l.Warnw("beacon request failed", "err", err)
	res := textResult(dhttp.Message(err))
	res.IsError = true
	return res
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}
