package tools

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"github.com/FreePeak/mcp-host-bridge/internal/domain"
)

// ListDirectoryTool lists a directory inside the sandbox.
type ListDirectoryTool struct {
	paths PathResolver
}

// NewListDirectoryTool creates list_directory.
func NewListDirectoryTool(paths PathResolver) *ListDirectoryTool {
	return &ListDirectoryTool{paths: paths}
}

// Descriptor implements handler.ToolHandler.
func (t *ListDirectoryTool) Descriptor() domain.ToolDescriptor {
	return NewTool("list_directory",
		WithDescription("List the files and directories in a directory"),
		WithString("path", Description(`Directory relative to the server directory (default ".")`)),
	)
}

// Call implements handler.ToolHandler.
func (t *ListDirectoryTool) Call(_ context.Context, args map[string]interface{}) (*domain.ToolResult, error) {
	path, err := optionalString(args, "path", ".")
	if err != nil {
		return nil, err
	}
	resolved, err := t.paths.Resolve(path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(resolved)
	switch {
	case os.IsNotExist(err):
		return nil, domain.NewNotFoundError("Directory not found: %s", path)
	case err != nil:
		return nil, errors.Wrapf(err, "reading %s", path)
	case !info.IsDir():
		return nil, domain.NewInvalidArgumentsError("Not a directory: %s", path)
	}

	// os.ReadDir returns entries sorted by file name.
	entries, err := os.ReadDir(resolved)
	if err != nil {
		return nil, errors.Wrapf(err, "listing %s", path)
	}

	var sb strings.Builder
	for _, entry := range entries {
		if entry.IsDir() {
			fmt.Fprintf(&sb, "[DIR]  %s/\n", entry.Name())
			continue
		}
		var size int64
		if fi, err := entry.Info(); err == nil {
			size = fi.Size()
		}
		fmt.Fprintf(&sb, "[FILE] %s (%s)\n", entry.Name(), humanize.IBytes(uint64(size)))
	}
	return domain.NewTextResult(sb.String()), nil
}
