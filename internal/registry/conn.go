package registry

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/michaelbrown/switchboard/internal/settings"
)

// Connection wraps an mcp-go stdio client for a single tool server. The
// entry it was launched from is kept so Sync can detect edits that
// require a restart.
type Connection struct {
	name   string
	entry  settings.ServerEntry
	client *client.Client
	tools  []mcp.Tool
}

// NewConnection launches the server subprocess described by entry,
// initializes the MCP protocol, and discovers its tools.
func NewConnection(name string, entry settings.ServerEntry) (*Connection, error) {
	if entry.Command == "" {
		return nil, fmt.Errorf("server %s has no command", name)
	}

	// Build environment variables
	var env []string
	env = append(env, os.Environ()...)
	for k, v := range entry.Env {
		// Expand environment variable references like ${VAR}
		if strings.HasPrefix(v, "${") && strings.HasSuffix(v, "}") {
			envVar := v[2 : len(v)-1]
			v = os.Getenv(envVar)
		}
		env = append(env, k+"="+v)
	}

	c, err := client.NewStdioMCPClient(entry.Command, env, entry.Args...)
	if err != nil {
		return nil, fmt.Errorf("starting MCP server %s (%s): %w", name, entry.Command, err)
	}

	ctx := context.Background()

	// Initialize the MCP protocol
	_, err = c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ClientInfo: mcp.Implementation{
				Name:    "switchboard",
				Version: "0.1.0",
			},
		},
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("initializing MCP server %s: %w", name, err)
	}

	// Discover tools
	result, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("listing tools from %s: %w", name, err)
	}

	return &Connection{
		name:   name,
		entry:  entry,
		client: c,
		tools:  result.Tools,
	}, nil
}

// SubTools converts the discovered MCP tool schemas to display entries.
// The enabled flag is left for the caller; sub-tools inherit it from the
// parent server.
func (c *Connection) SubTools() []settings.SubTool {
	subs := make([]settings.SubTool, 0, len(c.tools))
	for _, t := range c.tools {
		subs = append(subs, settings.SubTool{
			Name:        t.Name,
			Description: t.Description,
		})
	}
	return subs
}

// Close shuts down the MCP server subprocess.
func (c *Connection) Close() {
	if c.client != nil {
		c.client.Close()
	}
}
