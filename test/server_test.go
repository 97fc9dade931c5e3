package test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"

	mcpGoServer "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finpulse/finpulse-mcp/internal/adapter/outbound/finpulse"
	"github.com/finpulse/finpulse-mcp/internal/catalog"
	"github.com/finpulse/finpulse-mcp/internal/usecase"
	"github.com/finpulse/finpulse-mcp/internal/version"
)

// recordedCall captures one request as seen by the fake upstream.
type recordedCall struct {
	path  string
	query url.Values
	key   string
}

// newFixture wires the full stack (catalog, use case, API client, MCP server)
// against an httptest upstream and returns the server plus the upstream's
// call log. Messages are driven through MCPServer.HandleMessage, exactly as
// the stdio and SSE transports do.
func newFixture(t *testing.T, apiKey string, respond http.HandlerFunc) (*mcpGoServer.MCPServer, *[]recordedCall) {
	t.Helper()

	calls := &[]recordedCall{}
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls = append(*calls, recordedCall{
			path:  r.URL.Path,
			query: r.URL.Query(),
			key:   r.Header.Get("X-API-Key"),
		})
		respond(w, r)
	}))
	t.Cleanup(upstream.Close)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	apiClient := finpulse.New(upstream.URL, apiKey, upstream.Client(), logger)
	srv := mcpGoServer.NewMCPServer("finpulse-mcp", version.Version, mcpGoServer.WithToolCapabilities(false))
	usecase.NewInvokeToolUseCase(apiClient, logger).RegisterAll(srv, catalog.Tools())
	return srv, calls
}

// rpcResponse is the subset of a JSON-RPC response the tests care about.
type rpcResponse struct {
	Result struct {
		Tools []struct {
			Name        string         `json:"name"`
			InputSchema map[string]any `json:"inputSchema"`
		} `json:"tools"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		IsError bool `json:"isError"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func send(t *testing.T, srv *mcpGoServer.MCPServer, method string, params any) rpcResponse {
	t.Helper()

	req := map[string]any{"jsonrpc": "2.0", "id": 1, "method": method}
	if params != nil {
		req["params"] = params
	}
	raw, err := json.Marshal(req)
	require.NoError(t, err)

	msg := srv.HandleMessage(context.Background(), raw)
	require.NotNil(t, msg)

	out, err := json.Marshal(msg)
	require.NoError(t, err)
	var resp rpcResponse
	require.NoError(t, json.Unmarshal(out, &resp))
	return resp
}

func callTool(t *testing.T, srv *mcpGoServer.MCPServer, name string, args map[string]any) rpcResponse {
	t.Helper()
	params := map[string]any{"name": name}
	if args != nil {
		params["arguments"] = args
	}
	return send(t, srv, "tools/call", params)
}

func successHandler(data string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"data":` + data + `}`))
	}
}

func TestServer_ListsCatalog(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	srv, _ := newFixture(t, "test-key", successHandler(`{}`))
	resp := send(t, srv, "tools/list", nil)
	require.Nil(resp.Error)

	var names []string
	for _, tool := range resp.Result.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch([]string{
		"market_overview", "prices", "indices", "forex", "earnings",
		"economic_events", "congressional_trades", "sentiment", "tweets", "news",
	}, names)

	for _, tool := range resp.Result.Tools {
		if tool.Name != "prices" {
			continue
		}
		required, ok := tool.InputSchema["required"].([]any)
		require.True(ok, "prices must declare required parameters")
		assert.Equal([]any{"symbol"}, required)
	}
}

func TestServer_CallsEveryToolOnce(t *testing.T) {
	srv, calls := newFixture(t, "test-key", successHandler(`{"ok":true}`))

	// prices is the only tool with a required parameter; everything else is
	// invoked with an empty argument set and must produce a bare URL.
	argsFor := map[string]map[string]any{
		"prices": {"symbol": "AAPL"},
	}
	queryFor := map[string]url.Values{
		"prices": {"symbol": {"AAPL"}},
	}

	for i, spec := range catalog.Tools() {
		t.Run(spec.Name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			resp := callTool(t, srv, spec.Name, argsFor[spec.Name])
			require.Nil(resp.Error)
			require.False(resp.Result.IsError)
			require.Len(resp.Result.Content, 1, "exactly one content block")
			assert.Equal("text", resp.Result.Content[0].Type)
			assert.Equal("{\n  \"ok\": true\n}", resp.Result.Content[0].Text)

			require.Len(*calls, i+1, "exactly one upstream request per invocation")
			got := (*calls)[i]
			assert.Equal("/"+spec.Endpoint, got.path)
			assert.Equal("test-key", got.key)
			want := queryFor[spec.Name]
			if want == nil {
				want = url.Values{}
			}
			assert.Equal(want, got.query)
		})
	}
}

func TestServer_NormalizesUpstreamErrors(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	srv, _ := newFixture(t, "test-key", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"success":false,"error":"rate limited","retry_after_seconds":30,"upgrade":null}`))
	})

	resp := callTool(t, srv, "prices", map[string]any{"symbol": "AAPL"})
	require.Nil(resp.Error, "upstream-reported errors are results, not protocol errors")
	require.False(resp.Result.IsError)
	require.Len(resp.Result.Content, 1)

	want := "{\n  \"error\": \"rate limited\",\n  \"retry_after_seconds\": 30\n}"
	assert.Equal(want, resp.Result.Content[0].Text)
	assert.NotContains(resp.Result.Content[0].Text, "upgrade")
	assert.NotContains(resp.Result.Content[0].Text, "success")
}

func TestServer_ForwardsBooleanFalse(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	srv, calls := newFixture(t, "test-key", successHandler(`[]`))

	resp := callTool(t, srv, "sentiment", map[string]any{"financial_only": false})
	require.Nil(resp.Error)
	require.Len(*calls, 1)
	assert.Equal(url.Values{"financial_only": {"false"}}, (*calls)[0].query)

	resp = callTool(t, srv, "tweets", map[string]any{
		"financial_only": true,
		"sentiment":      "bearish",
		"author":         "",
	})
	require.Nil(resp.Error)
	require.Len(*calls, 2)
	assert.Equal(url.Values{"financial_only": {"true"}, "sentiment": {"bearish"}}, (*calls)[1].query)
}

func TestServer_DropsEmptyAndUndeclaredArguments(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	srv, calls := newFixture(t, "test-key", successHandler(`[]`))

	resp := callTool(t, srv, "congressional_trades", map[string]any{
		"symbol": "NVDA",
		"party":  "Democrat",
		"from":   "",
		"bogus":  "ignored",
	})
	require.Nil(resp.Error)
	require.Len(*calls, 1)
	assert.Equal(url.Values{"symbol": {"NVDA"}, "party": {"Democrat"}}, (*calls)[0].query)
}

func TestServer_MissingCredential(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	srv, calls := newFixture(t, "", successHandler(`{}`))

	resp := callTool(t, srv, "market_overview", nil)

	// The handler returns a Go error; depending on the mcp-go version this
	// surfaces as a protocol error or an isError result. Either way the
	// message must name the variable and no upstream request may happen.
	var message string
	if resp.Error != nil {
		message = resp.Error.Message
	} else {
		require.True(resp.Result.IsError)
		require.NotEmpty(resp.Result.Content)
		message = resp.Result.Content[0].Text
	}
	assert.Contains(message, "FINPULSE_API_KEY")
	assert.Empty(*calls, "no network traffic without a credential")
}

func TestServer_UnknownTool(t *testing.T) {
	srv, calls := newFixture(t, "test-key", successHandler(`{}`))

	resp := callTool(t, srv, "quotes", nil)
	require.NotNil(t, resp.Error, "unknown tools are rejected by the server")
	assert.Empty(t, *calls)
}
