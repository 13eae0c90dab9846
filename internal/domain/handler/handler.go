package handler

import (
	"context"

	"github.com/FreePeak/mcp-host-bridge/internal/domain"
)

// ToolHandler is implemented once per tool. Handlers validate their own
// arguments because every tool accepts a different shape.
type ToolHandler interface {
	// Descriptor returns the tool's name, description and input schema.
	Descriptor() domain.ToolDescriptor

	// Call runs the tool with already-decoded arguments.
	Call(ctx context.Context, args map[string]interface{}) (*domain.ToolResult, error)
}
