// Package finpulse is the outbound adapter for the FinPulse REST API. Every
// tool invocation funnels through Client.Fetch, which performs exactly one
// authenticated GET and translates the response envelope into the payload
// surfaced to the caller.
package finpulse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/finpulse/finpulse-mcp/internal/version"
)

// DefaultBaseURL is the production API root, including the versioned prefix.
const DefaultBaseURL = "https://api.finpulse.io/api/v1"

// apiKeyHeader carries the credential. The key travels in a header only,
// never in the query string.
const apiKeyHeader = "X-API-Key"

// ErrMissingAPIKey is returned before any network activity when the client
// was constructed without a credential. The message doubles as operator
// guidance, since it is usually surfaced verbatim by MCP hosts.
var ErrMissingAPIKey = errors.New(
	"FINPULSE_API_KEY is not set. Request a free key with " +
		`curl -X POST https://api.finpulse.io/api/v1/auth/register -H 'Content-Type: application/json' -d '{"email":"you@example.com"}'` +
		" or from https://finpulse.io/dashboard/keys, then export FINPULSE_API_KEY and restart the server")

// envelope is the fixed wrapper every FinPulse endpoint responds with,
// regardless of HTTP status code.
type envelope struct {
	Success           bool            `json:"success"`
	Data              json.RawMessage `json:"data,omitempty"`
	Error             string          `json:"error,omitempty"`
	Upgrade           json.RawMessage `json:"upgrade,omitempty"`
	RetryAfterSeconds json.Number     `json:"retry_after_seconds,omitempty"`
}

// apiError is the normalized payload handed back when the upstream reports a
// failure. Hint fields are included only when the upstream supplied them.
type apiError struct {
	Error             string          `json:"error"`
	Upgrade           json.RawMessage `json:"upgrade,omitempty"`
	RetryAfterSeconds json.Number     `json:"retry_after_seconds,omitempty"`
}

// Client implements the usecase.UpstreamFetcher interface using standard net/http.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *slog.Logger
	tracer  trace.Tracer
}

// New creates a FinPulse API client. An empty baseURL selects the production
// API; a nil client falls back to http.DefaultClient.
func New(baseURL, apiKey string, client *http.Client, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
		logger:  logger.With("component", "finpulse_client"),
		tracer:  otel.Tracer("github.com/finpulse/finpulse-mcp/internal/adapter/outbound/finpulse"),
	}
}

// Fetch performs one authenticated GET against the endpoint path (relative to
// the base URL, e.g. "market/prices") and returns the payload to surface to
// the caller: the envelope's data field on success, or a normalized error
// object when the upstream reports a failure. Query parameters with empty
// values are dropped. Transport and decoding problems come back as errors.
func (c *Client) Fetch(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	log := c.logger.With(slog.String("endpoint", endpoint))

	ctx, span := c.tracer.Start(ctx, "finpulse.fetch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("finpulse.endpoint", endpoint)))
	defer span.End()

	// --- 1. Construct Request --- //
	query := url.Values{}
	for name, values := range params {
		for _, v := range values {
			if v != "" {
				query.Add(name, v)
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request for %s: %w", endpoint, err)
	}
	if len(query) > 0 {
		req.URL.RawQuery = query.Encode()
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "finpulse-mcp/"+version.Version)

	// --- 2. Execute --- //
	log.Debug("Requesting upstream", slog.String("url", req.URL.String()))
	resp, err := c.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, "request failed")
		log.Error("Upstream request failed", slog.Any("error", err))
		return nil, fmt.Errorf("call %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(semconv.HTTPResponseStatusCode(resp.StatusCode))
	log = log.With(slog.Int("status_code", resp.StatusCode))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, "read body")
		log.Error("Failed to read response body", slog.Any("error", err))
		return nil, fmt.Errorf("read response from %s: %w", endpoint, err)
	}

	// --- 3. Decode Envelope --- //
	// The envelope carries the real outcome; the HTTP status line does not.
	// Rate limits and plan restrictions arrive as success=false bodies on
	// assorted status codes, so the body is decoded unconditionally.
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, "decode envelope")
		log.Error("Upstream returned a malformed body", slog.Any("error", err))
		return nil, fmt.Errorf("decode response from %s (HTTP %d): %w", endpoint, resp.StatusCode, err)
	}

	if !env.Success {
		log.Info("Upstream reported an error", slog.String("upstream_error", env.Error))
		apiErr := apiError{Error: env.Error, RetryAfterSeconds: env.RetryAfterSeconds}
		if len(env.Upgrade) > 0 && string(env.Upgrade) != "null" {
			apiErr.Upgrade = env.Upgrade
		}
		payload, err := json.Marshal(apiErr)
		if err != nil {
			return nil, fmt.Errorf("encode upstream error for %s: %w", endpoint, err)
		}
		return payload, nil
	}

	log.Debug("Upstream call succeeded", slog.Int("payload_bytes", len(env.Data)))
	if len(env.Data) == 0 {
		return json.RawMessage("null"), nil
	}
	return env.Data, nil
}
