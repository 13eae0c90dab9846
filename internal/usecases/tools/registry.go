package tools

import (
	"context"
	"fmt"

	"github.com/FreePeak/mcp-host-bridge/internal/domain"
	"github.com/FreePeak/mcp-host-bridge/internal/domain/handler"
)

// Registry is the immutable tool catalog. It is safe for concurrent use.
type Registry struct {
	ordered []handler.ToolHandler
	byName  map[string]handler.ToolHandler
}

// NewRegistry builds a registry that lists handlers in the given order.
// Duplicate names are a programming error and panic.
func NewRegistry(handlers ...handler.ToolHandler) *Registry {
	r := &Registry{
		ordered: make([]handler.ToolHandler, 0, len(handlers)),
		byName:  make(map[string]handler.ToolHandler, len(handlers)),
	}
	for _, h := range handlers {
		name := h.Descriptor().Name
		if _, dup := r.byName[name]; dup {
			panic(fmt.Sprintf("tools: duplicate tool %q", name))
		}
		r.ordered = append(r.ordered, h)
		r.byName[name] = h
	}
	return r
}

// List returns the descriptors in registration order.
func (r *Registry) List() []domain.ToolDescriptor {
	out := make([]domain.ToolDescriptor, 0, len(r.ordered))
	for _, h := range r.ordered {
		out = append(out, h.Descriptor())
	}
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.ordered)
}

// Invoke runs the tool called name. A nil args map is treated as empty.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]interface{}) (*domain.ToolResult, error) {
	h, ok := r.byName[name]
	if !ok {
		return nil, domain.NewUnknownToolError(name)
	}
	if args == nil {
		args = map[string]interface{}{}
	}
	return h.Call(ctx, args)
}
