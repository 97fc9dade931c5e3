// Package adminhttp exposes the small operational HTTP surface served next
// to the MCP SSE endpoint. It is not started in stdio mode.
package adminhttp

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/finpulse/finpulse-mcp/internal/version"
)

// Handlers struct holds dependencies for the HTTP handlers.
type Handlers struct {
	toolCount int
	logger    *slog.Logger
}

// NewHandlers creates a new Handlers struct.
func NewHandlers(toolCount int, logger *slog.Logger) *Handlers {
	return &Handlers{
		toolCount: toolCount,
		logger:    logger.With("component", "adminhttp_handler"),
	}
}

// RegisterRoutes sets up the HTTP routes for the admin endpoints.
func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

// healthResponse is the JSON body returned by GET /healthz.
type healthResponse struct {
	Status  string `json:"status"`
	Name    string `json:"name"`
	Version string `json:"version"`
	Tools   int    `json:"tools"`
}

// handleHealth implements GET /healthz.
func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	resp := healthResponse{
		Status:  "ok",
		Name:    "finpulse-mcp",
		Version: version.Version,
		Tools:   h.toolCount,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Warn("Failed to write health response", slog.Any("error", err))
	}
}
