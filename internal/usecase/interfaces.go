package usecase

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/mark3labs/mcp-go/mcp"
	mcpGoServer "github.com/mark3labs/mcp-go/server"
)

// UpstreamFetcher defines the contract for executing one upstream API call.
// The endpoint is a path relative to the API base URL ("market/prices");
// params are the query parameters to forward. On success the returned payload
// is the upstream data document; upstream-reported failures come back as a
// normalized error document, not as a Go error.
// Implementations live under internal/adapter/outbound.
type UpstreamFetcher interface {
	Fetch(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error)
}

// MCPServerAdapter defines the interface required by this package to register
// tools with the underlying MCP server (like mcp-go).
// This avoids a direct dependency on a specific server implementation.
type MCPServerAdapter interface {
	// AddTool registers a tool and its handler with the server.
	// Use the specific type from the mcp-go/server package.
	AddTool(tool mcp.Tool, handler mcpGoServer.ToolHandlerFunc)
}
