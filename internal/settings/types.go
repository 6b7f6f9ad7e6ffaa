package settings

// Tool is a toggleable integration exposed by the API. Name doubles as the
// key into the configuration blob's server map.
type Tool struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	Enabled     bool      `json:"enabled"`
	SubTools    []SubTool `json:"subTools,omitempty"`
}

// SubTool is a read-only nested capability of a Tool, discovered from the
// tool's MCP server. It is never independently toggleable.
type SubTool struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Enabled     bool   `json:"enabled"`
}
