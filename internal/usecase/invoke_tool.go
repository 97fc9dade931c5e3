package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	mcpGoServer "github.com/mark3labs/mcp-go/server"

	"github.com/finpulse/finpulse-mcp/internal/catalog"
	"github.com/finpulse/finpulse-mcp/internal/domain"
)

// InvokeToolUseCase handles receiving a tool invocation request and executing
// it against the upstream API. A single instance serves every catalog entry;
// the entry itself is bound into the handler at registration time.
type InvokeToolUseCase struct {
	fetcher UpstreamFetcher
	logger  *slog.Logger
}

// NewInvokeToolUseCase creates a new InvokeToolUseCase.
func NewInvokeToolUseCase(fetcher UpstreamFetcher, logger *slog.Logger) *InvokeToolUseCase {
	return &InvokeToolUseCase{
		fetcher: fetcher,
		logger:  logger.With("usecase", "InvokeTool"),
	}
}

// RegisterAll registers every given catalog entry with the MCP server,
// pairing its generated tool definition with a bound handler.
func (uc *InvokeToolUseCase) RegisterAll(srv MCPServerAdapter, specs []domain.ToolSpec) {
	for _, spec := range specs {
		srv.AddTool(catalog.MCPTool(spec), uc.Handler(spec))
	}
	uc.logger.Debug("Registered tools", slog.Int("count", len(specs)))
}

// Handler returns the mcp-go handler for one catalog entry.
func (uc *InvokeToolUseCase) Handler(spec domain.ToolSpec) mcpGoServer.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return uc.Execute(ctx, spec, req.GetArguments())
	}
}

// Execute performs one tool invocation: it collects the declared parameters
// from the raw arguments, fetches the endpoint, and wraps the payload in a
// single pretty-printed text content block. Errors from the fetcher (missing
// credential, transport or decoding failures) are returned as Go errors and
// left to the MCP runtime to surface; upstream business errors arrive as a
// payload and render like any other result.
func (uc *InvokeToolUseCase) Execute(ctx context.Context, spec domain.ToolSpec, args map[string]any) (*mcp.CallToolResult, error) {
	log := uc.logger.With(slog.String("tool_name", spec.Name))
	log.Info("Executing tool invocation")

	params := collectParams(spec, args)
	payload, err := uc.fetcher.Fetch(ctx, spec.Endpoint, params)
	if err != nil {
		log.Error("Failed to invoke upstream tool", slog.Any("error", err))
		return nil, fmt.Errorf("tool %s: %w", spec.Name, err)
	}

	log.Info("Tool invocation successful")
	return mcp.NewToolResultText(renderJSON(payload)), nil
}

// collectParams converts tool-call arguments into upstream query parameters.
// Only declared parameters are considered. Strings are forwarded when
// non-empty; booleans are forwarded whenever the argument is present, so an
// explicit false still reaches the upstream as "false".
func collectParams(spec domain.ToolSpec, args map[string]any) url.Values {
	params := url.Values{}
	for _, p := range spec.Params {
		raw, ok := args[p.Name]
		if !ok || raw == nil {
			continue
		}
		switch v := raw.(type) {
		case string:
			if v != "" {
				params.Set(p.Name, v)
			}
		case bool:
			params.Set(p.Name, strconv.FormatBool(v))
		case json.Number:
			params.Set(p.Name, v.String())
		case float64:
			params.Set(p.Name, strconv.FormatFloat(v, 'f', -1, 64))
		default:
			params.Set(p.Name, fmt.Sprintf("%v", v))
		}
	}
	return params
}

// renderJSON pretty-prints a payload with two-space indentation, preserving
// the upstream's key order. A payload that is not valid JSON is returned
// untouched.
func renderJSON(payload json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, payload, "", "  "); err != nil {
		return string(payload)
	}
	return buf.String()
}
