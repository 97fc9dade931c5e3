package catalog

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/finpulse/finpulse-mcp/internal/domain"
)

// MCPTool converts a catalog entry into the mcp-go tool definition
// advertised by tools/list.
func MCPTool(spec domain.ToolSpec) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(spec.Description)}
	for _, p := range spec.Params {
		var propOpts []mcp.PropertyOption
		if p.Description != "" {
			propOpts = append(propOpts, mcp.Description(p.Description))
		}
		if p.Required {
			propOpts = append(propOpts, mcp.Required())
		}
		if len(p.Enum) > 0 {
			propOpts = append(propOpts, mcp.Enum(p.Enum...))
		}
		switch p.Type {
		case domain.ParamTypeBoolean:
			opts = append(opts, mcp.WithBoolean(p.Name, propOpts...))
		default:
			opts = append(opts, mcp.WithString(p.Name, propOpts...))
		}
	}
	return mcp.NewTool(spec.Name, opts...)
}
