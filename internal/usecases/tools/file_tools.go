package tools

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/FreePeak/mcp-host-bridge/internal/domain"
)

// PathResolver confines paths to the sandbox root. *sandbox.Sandbox
// implements it.
type PathResolver interface {
	Resolve(p string) (string, error)
}

// fileEncoding selects how file contents travel in arguments and results.
type fileEncoding int

const (
	encodingText fileEncoding = iota
	encodingBase64
)

// ReadFileTool returns a file's contents.
type ReadFileTool struct {
	paths    PathResolver
	encoding fileEncoding
}

// NewReadFileTool creates read_file.
func NewReadFileTool(paths PathResolver) *ReadFileTool {
	return &ReadFileTool{paths: paths, encoding: encodingText}
}

// NewReadFileBase64Tool creates read_file_base64.
func NewReadFileBase64Tool(paths PathResolver) *ReadFileTool {
	return &ReadFileTool{paths: paths, encoding: encodingBase64}
}

// Descriptor implements handler.ToolHandler.
func (t *ReadFileTool) Descriptor() domain.ToolDescriptor {
	if t.encoding == encodingBase64 {
		return NewTool("read_file_base64",
			WithDescription("Read a binary file and return its contents base64 encoded"),
			WithString("path", Required(), Description("Path relative to the server directory")),
		)
	}
	return NewTool("read_file",
		WithDescription("Read a UTF-8 text file"),
		WithString("path", Required(), Description("Path relative to the server directory")),
	)
}

// Call implements handler.ToolHandler.
func (t *ReadFileTool) Call(_ context.Context, args map[string]interface{}) (*domain.ToolResult, error) {
	path, err := requireString(args, "path")
	if err != nil {
		return nil, err
	}
	resolved, err := t.paths.Resolve(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.NewNotFoundError("File not found: %s", path)
		}
		return nil, errors.Wrapf(err, "reading %s", path)
	}

	if t.encoding == encodingBase64 {
		return domain.NewTextResult(base64.StdEncoding.EncodeToString(data)), nil
	}
	return domain.NewTextResult(strings.ToValidUTF8(string(data), "\uFFFD")), nil
}

// WriteFileTool creates or truncates a file.
type WriteFileTool struct {
	paths    PathResolver
	encoding fileEncoding
}

// NewWriteFileTool creates write_file.
func NewWriteFileTool(paths PathResolver) *WriteFileTool {
	return &WriteFileTool{paths: paths, encoding: encodingText}
}

// NewWriteFileBase64Tool creates write_file_base64.
func NewWriteFileBase64Tool(paths PathResolver) *WriteFileTool {
	return &WriteFileTool{paths: paths, encoding: encodingBase64}
}

// Descriptor implements handler.ToolHandler.
func (t *WriteFileTool) Descriptor() domain.ToolDescriptor {
	if t.encoding == encodingBase64 {
		return NewTool("write_file_base64",
			WithDescription("Write a binary file from base64 encoded content, creating parent directories"),
			WithString("path", Required(), Description("Path relative to the server directory")),
			WithString("content", Required(), Description("Base64 encoded file content")),
		)
	}
	return NewTool("write_file",
		WithDescription("Write UTF-8 text to a file, creating parent directories and replacing existing content"),
		WithString("path", Required(), Description("Path relative to the server directory")),
		WithString("content", Required(), Description("Text to write")),
	)
}

// Call implements handler.ToolHandler. Arguments and the sandbox are checked
// before anything touches the disk.
func (t *WriteFileTool) Call(_ context.Context, args map[string]interface{}) (*domain.ToolResult, error) {
	path, err := requireString(args, "path")
	if err != nil {
		return nil, err
	}
	content, err := requireString(args, "content")
	if err != nil {
		return nil, err
	}

	data := []byte(content)
	if t.encoding == encodingBase64 {
		data, err = base64.StdEncoding.DecodeString(content)
		if err != nil {
			return nil, domain.NewInvalidArgumentsError("invalid base64 content: %v", err)
		}
	}

	resolved, err := t.paths.Resolve(path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating parent directories for %s", path)
	}
	if err := os.WriteFile(resolved, data, 0o644); err != nil {
		return nil, errors.Wrapf(err, "writing %s", path)
	}

	if t.encoding == encodingBase64 {
		return domain.NewTextResult(fmt.Sprintf("Binary file written successfully to %s (%d bytes)", path, len(data))), nil
	}
	return domain.NewTextResult("File written successfully to " + path), nil
}
