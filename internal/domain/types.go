// Package domain defines the core entities and collaborator interfaces of the
// host bridge.
package domain

import (
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

// ContentTypeText is the only content item kind produced by tools.
const ContentTypeText = "text"

// ToolDescriptor describes an invocable tool. Descriptors are built once at
// startup and shared by every session.
type ToolDescriptor struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	InputSchema *jsonschema.Schema `json:"inputSchema"`
}

// Content is a single typed item in a tool result.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToolResult is the uniform envelope returned by every tool.
type ToolResult struct {
	Content []Content `json:"content"`
}

// NewTextResult wraps text in a single-item result.
func NewTextResult(text string) *ToolResult {
	return &ToolResult{
		Content: []Content{{Type: ContentTypeText, Text: text}},
	}
}

// Text joins the text of every content item.
func (r *ToolResult) Text() string {
	if r == nil {
		return ""
	}
	parts := make([]string, 0, len(r.Content))
	for _, c := range r.Content {
		parts = append(parts, c.Text)
	}
	return strings.Join(parts, "")
}

// Module is an installed host extension as reported by list_plugins.
type Module struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version" yaml:"version"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}
