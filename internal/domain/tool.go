package domain

// ParamType enumerates the JSON value kinds a tool parameter may carry.
// The upstream API is query-string based, so every parameter is ultimately
// serialized to text; the type governs the MCP input schema and how an
// argument is converted before it is placed on the wire.
type ParamType string

const (
	ParamTypeString  ParamType = "string"
	ParamTypeBoolean ParamType = "boolean"
)

// ParamSpec describes a single declared parameter of a tool.
type ParamSpec struct {
	// Name is both the MCP argument name and the upstream query key.
	Name string `json:"name"`

	// Type selects the JSON Schema type advertised to clients.
	Type ParamType `json:"type"`

	// Required marks the parameter as mandatory in the tool's input schema.
	Required bool `json:"required,omitempty"`

	// Enum restricts the accepted values when non-empty.
	Enum []string `json:"enum,omitempty"`

	// Description explains the parameter to the calling model.
	Description string `json:"description,omitempty"`
}

// ToolSpec declares one MCP tool backed by a fixed upstream endpoint,
// compliant with the Model Context Protocol (MCP).
// Based on MCP Spec 2025-03-26: https://modelcontextprotocol.io/specification/2025-03-26
type ToolSpec struct {
	// Name MUST be unique within the MCP server.
	Name string `json:"name"`

	// Description provides a natural language explanation of what the tool does.
	// This is crucial for the LLM to understand when to use the tool.
	Description string `json:"description"`

	// Endpoint is the upstream path the tool resolves to, relative to the
	// API base URL and without a leading slash, e.g. "market/prices".
	Endpoint string `json:"endpoint"`

	// Params lists every parameter the tool accepts. Arguments outside this
	// list are ignored at invocation time.
	Params []ParamSpec `json:"params,omitempty"`
}

// Param returns the declared parameter with the given name.
func (t ToolSpec) Param(name string) (ParamSpec, bool) {
	for _, p := range t.Params {
		if p.Name == name {
			return p, true
		}
	}
	return ParamSpec{}, false
}
