package client

// GenericConfig represents a generic client configuration
type GenericConfig struct{}

// NewGenericConfig creates a new generic client configuration
func NewGenericConfig() *GenericConfig {
	return &GenericConfig{}
}

// GetClientType returns the client type
func (c *GenericConfig) GetClientType() ClientType {
	return ClientTypeGeneric
}

// Render points at the single-request /mcp endpoint.
func (c *GenericConfig) Render(target Target) ([]byte, error) {
	mcpURL, err := target.url("/mcp")
	if err != nil {
		return nil, err
	}
	return renderServers(target.Name, serverEntry{
		URL:     mcpURL,
		Headers: map[string]string{"Authorization": target.bearer()},
	})
}
