// Package tools implements the tool catalog exposed over tools/list and
// tools/call.
package tools

import (
	"github.com/google/jsonschema-go/jsonschema"

	"github.com/FreePeak/mcp-host-bridge/internal/domain"
)

// ToolOption is a function that configures a tool descriptor.
type ToolOption func(*domain.ToolDescriptor)

// NewTool creates a descriptor with an empty object schema and applies
// options in order.
func NewTool(name string, options ...ToolOption) domain.ToolDescriptor {
	tool := domain.ToolDescriptor{
		Name: name,
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{},
		},
	}
	for _, option := range options {
		option(&tool)
	}
	return tool
}

// WithDescription sets the description of a tool.
func WithDescription(description string) ToolOption {
	return func(t *domain.ToolDescriptor) {
		t.Description = description
	}
}

// ParameterOption configures a single property and may mark it required.
type ParameterOption func(name string, schema *jsonschema.Schema, tool *domain.ToolDescriptor)

// Description sets the description of a parameter.
func Description(description string) ParameterOption {
	return func(_ string, schema *jsonschema.Schema, _ *domain.ToolDescriptor) {
		schema.Description = description
	}
}

// Required marks a parameter as required.
func Required() ParameterOption {
	return func(name string, _ *jsonschema.Schema, tool *domain.ToolDescriptor) {
		tool.InputSchema.Required = append(tool.InputSchema.Required, name)
	}
}

// WithString adds a string parameter to a tool.
func WithString(name string, options ...ParameterOption) ToolOption {
	return withProperty(name, "string", options)
}

func withProperty(name, typ string, options []ParameterOption) ToolOption {
	return func(t *domain.ToolDescriptor) {
		schema := &jsonschema.Schema{Type: typ}
		for _, option := range options {
			option(name, schema, t)
		}
		t.InputSchema.Properties[name] = schema
	}
}
