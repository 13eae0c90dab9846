package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures raised by tools. The kind is kept for logging
// and tests; on the wire every kind becomes the same JSON-RPC error code.
type ErrorKind int

const (
	KindUnknownTool ErrorKind = iota + 1
	KindInvalidArguments
	KindAccessDenied
	KindNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnknownTool:
		return "unknown_tool"
	case KindInvalidArguments:
		return "invalid_arguments"
	case KindAccessDenied:
		return "access_denied"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// ToolError is returned by tool handlers and the tool registry.
type ToolError struct {
	Kind    ErrorKind
	Message string
}

// Error returns the error message.
func (e *ToolError) Error() string {
	return e.Message
}

// NewToolError creates a ToolError with a formatted message.
func NewToolError(kind ErrorKind, format string, args ...interface{}) *ToolError {
	return &ToolError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NewUnknownToolError reports a tools/call for a name that is not registered.
func NewUnknownToolError(name string) *ToolError {
	return NewToolError(KindUnknownTool, "Unknown tool: %s", name)
}

// NewInvalidArgumentsError reports a missing or mistyped argument.
func NewInvalidArgumentsError(format string, args ...interface{}) *ToolError {
	return NewToolError(KindInvalidArguments, format, args...)
}

// NewAccessDeniedError reports a path that escapes the sandbox root.
func NewAccessDeniedError() *ToolError {
	return NewToolError(KindAccessDenied, "Access denied: path outside server directory")
}

// NewNotFoundError reports a missing file or directory.
func NewNotFoundError(format string, args ...interface{}) *ToolError {
	return NewToolError(KindNotFound, format, args...)
}

// ToolErrorKind returns the kind of the first ToolError in err's chain, or
// zero when err carries none.
func ToolErrorKind(err error) ErrorKind {
	var te *ToolError
	if errors.As(err, &te) {
		return te.Kind
	}
	return 0
}
