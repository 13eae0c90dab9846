package shared

import (
	"strings"

	"github.com/FreePeak/mcp-host-bridge/internal/domain"
)

// ProtocolVersion is the MCP revision announced during the handshake.
const ProtocolVersion = "2024-11-05"

// TransportStreamableHTTP is the transport name advertised by GET /mcp.
const TransportStreamableHTTP = "streamable-http"

// MCP method names
const (
	MethodInitialize    = "initialize"
	MethodPing          = "ping"
	MethodListTools     = "tools/list"
	MethodCallTool      = "tools/call"
	MethodListResources = "resources/list"
	MethodListPrompts   = "prompts/list"

	MethodNotificationsInitialized     = "notifications/initialized"
	MethodNotificationsToolsListChange = "notifications/tools/list_changed"

	notificationPrefix = "notifications/"
)

// IsNotification reports whether method is in the notifications namespace.
func IsNotification(method string) bool {
	return strings.HasPrefix(method, notificationPrefix)
}

// ServerInfo names an MCP peer.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ToolsCapability advertises tool support.
type ToolsCapability struct {
	ListChanged bool `json:"listChanged"`
}

// ResourcesCapability is an empty capability stub.
type ResourcesCapability struct{}

// PromptsCapability is an empty capability stub.
type PromptsCapability struct{}

// Capabilities is the capability set announced by initialize.
type Capabilities struct {
	Tools     ToolsCapability     `json:"tools"`
	Resources ResourcesCapability `json:"resources"`
	Prompts   PromptsCapability   `json:"prompts"`
}

// InitializeParams carries the fields of an initialize request we look at.
type InitializeParams struct {
	ProtocolVersion string     `json:"protocolVersion"`
	ClientInfo      ServerInfo `json:"clientInfo"`
}

// InitializeResult represents the result of the initialize method
type InitializeResult struct {
	ProtocolVersion string       `json:"protocolVersion"`
	Capabilities    Capabilities `json:"capabilities"`
	ServerInfo      ServerInfo   `json:"serverInfo"`
}

// NewInitializeResult builds the handshake answer for info.
func NewInitializeResult(info ServerInfo) InitializeResult {
	return InitializeResult{
		ProtocolVersion: ProtocolVersion,
		Capabilities: Capabilities{
			Tools: ToolsCapability{ListChanged: true},
		},
		ServerInfo: info,
	}
}

// ListToolsResult represents the result of the tools/list method
type ListToolsResult struct {
	Tools []domain.ToolDescriptor `json:"tools"`
}

// ListResourcesResult is always empty.
type ListResourcesResult struct {
	Resources []interface{} `json:"resources"`
}

// ListPromptsResult is always empty.
type ListPromptsResult struct {
	Prompts []interface{} `json:"prompts"`
}

// CallToolParams represents parameters for the tools/call method
type CallToolParams struct {
	Name      *string                `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// DiscoveryDescriptor is the static document served by GET /mcp.
type DiscoveryDescriptor struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Transport string `json:"transport"`
}
