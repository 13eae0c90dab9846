package client

// ClaudeConfig represents the configuration for Claude Desktop clients
type ClaudeConfig struct{}

// NewClaudeConfig creates a new Claude client configuration
func NewClaudeConfig() *ClaudeConfig {
	return &ClaudeConfig{}
}

// GetClientType returns the client type
func (c *ClaudeConfig) GetClientType() ClientType {
	return ClientTypeClaude
}

// Render wraps the SSE endpoint in mcp-remote, since Claude Desktop only
// launches local stdio servers.
func (c *ClaudeConfig) Render(target Target) ([]byte, error) {
	sseURL, err := target.url("/sse")
	if err != nil {
		return nil, err
	}
	return renderServers(target.Name, serverEntry{
		Command: "npx",
		Args: []string{
			"-y", "mcp-remote", sseURL,
			"--header", "Authorization:" + target.bearer(),
		},
	})
}
