// Package client renders connection snippets for the MCP clients the bridge
// is commonly used with.
package client

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/FreePeak/mcp-host-bridge/internal/domain/shared"
	"github.com/FreePeak/mcp-host-bridge/internal/infrastructure/logging"
)

// ClientType represents the type of client connecting to the server
type ClientType string

const (
	// ClientTypeCursor represents Cursor IDE client
	ClientTypeCursor ClientType = "cursor"
	// ClientTypeClaude represents Claude Desktop client
	ClientTypeClaude ClientType = "claude"
	// ClientTypeGeneric represents a generic client
	ClientTypeGeneric ClientType = "generic"
)

// Target is the server a snippet points at.
type Target struct {
	// Name is the key the server is registered under in the client config.
	Name string
	// Endpoint is the base URL, e.g. http://localhost:8080.
	Endpoint string
	Token    string
}

func (t Target) url(path string) (string, error) {
	base, err := url.Parse(strings.TrimRight(t.Endpoint, "/"))
	if err != nil {
		return "", errors.Wrap(err, "parsing endpoint")
	}
	if base.Scheme == "" || base.Host == "" {
		return "", errors.Errorf("endpoint %q must be an absolute URL", t.Endpoint)
	}
	return base.JoinPath(path).String(), nil
}

func (t Target) bearer() string {
	return "Bearer " + t.Token
}

// Config defines the interface for client-specific configurations
type Config interface {
	// GetClientType returns the type of client this configuration is for
	GetClientType() ClientType

	// Render returns a ready-to-paste JSON configuration for target.
	Render(target Target) ([]byte, error)
}

// ConfigRegistry is a registry of client configurations
type ConfigRegistry struct {
	configs map[ClientType]Config
}

// NewConfigRegistry creates a registry holding the built-in configurations.
func NewConfigRegistry() *ConfigRegistry {
	r := &ConfigRegistry{
		configs: make(map[ClientType]Config),
	}
	r.Register(NewCursorConfig())
	r.Register(NewClaudeConfig())
	r.Register(NewGenericConfig())
	return r
}

// Register registers a client configuration
func (r *ConfigRegistry) Register(config Config) {
	r.configs[config.GetClientType()] = config
}

// GetConfig returns the configuration for a specific client type
func (r *ConfigRegistry) GetConfig(clientType ClientType) Config {
	config, exists := r.configs[clientType]
	if !exists {
		// Return a generic config if the specific one doesn't exist
		return NewGenericConfig()
	}
	return config
}

// DetectClientType attempts to detect the client type from client info
func DetectClientType(clientInfo shared.ServerInfo, logger *logging.Logger) ClientType {
	clientName := strings.ToLower(clientInfo.Name)

	var clientType ClientType
	switch {
	case strings.Contains(clientName, "cursor"):
		clientType = ClientTypeCursor
	case strings.Contains(clientName, "claude"):
		clientType = ClientTypeClaude
	default:
		clientType = ClientTypeGeneric
	}

	if logger != nil {
		logger.Info("client connected", logging.Fields{
			"client_name":    clientInfo.Name,
			"client_version": clientInfo.Version,
			"client_type":    string(clientType),
		})
	}
	return clientType
}

type serverEntry struct {
	URL     string            `json:"url,omitempty"`
	Command string            `json:"command,omitempty"`
	Args    []string          `json:"args,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

func renderServers(name string, entry serverEntry) ([]byte, error) {
	if name == "" {
		return nil, errors.New("server name is required")
	}
	doc := map[string]map[string]serverEntry{
		"mcpServers": {name: entry},
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encoding client config")
	}
	return data, nil
}
