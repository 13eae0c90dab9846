package tools

import (
	"github.com/FreePeak/mcp-host-bridge/internal/domain/handler"
)

// HostAccess is everything the host-bound tools need.
type HostAccess interface {
	CommandRunner
	ModuleLister
}

// Catalog returns the tool handlers in the order tools/list reports them.
func Catalog(host HostAccess, paths PathResolver, logFile string, tailLines int) []handler.ToolHandler {
	return []handler.ToolHandler{
		NewExecuteCommandTool(host),
		NewReadFileTool(paths),
		NewWriteFileTool(paths),
		NewListPluginsTool(host),
		NewGetLogsTool(logFile, tailLines),
		NewReadFileBase64Tool(paths),
		NewWriteFileBase64Tool(paths),
		NewListDirectoryTool(paths),
	}
}
