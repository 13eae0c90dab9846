package client

// CursorConfig represents the configuration for Cursor IDE clients
type CursorConfig struct{}

// NewCursorConfig creates a new Cursor client configuration
func NewCursorConfig() *CursorConfig {
	return &CursorConfig{}
}

// GetClientType returns the client type
func (c *CursorConfig) GetClientType() ClientType {
	return ClientTypeCursor
}

// Render points Cursor at the SSE endpoint. Cursor sends the headers on the
// stream request and on every message post.
func (c *CursorConfig) Render(target Target) ([]byte, error) {
	sseURL, err := target.url("/sse")
	if err != nil {
		return nil, err
	}
	return renderServers(target.Name, serverEntry{
		URL:     sseURL,
		Headers: map[string]string{"Authorization": target.bearer()},
	})
}
