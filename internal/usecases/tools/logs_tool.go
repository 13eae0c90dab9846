package tools

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/FreePeak/mcp-host-bridge/internal/domain"
)

const maxLogLineBytes = 1 << 20

// GetLogsTool tails the host's primary log file.
type GetLogsTool struct {
	path  string
	lines int
}

// NewGetLogsTool creates get_logs for the log file at path.
func NewGetLogsTool(path string, lines int) *GetLogsTool {
	return &GetLogsTool{path: path, lines: lines}
}

// Descriptor implements handler.ToolHandler.
func (t *GetLogsTool) Descriptor() domain.ToolDescriptor {
	return NewTool("get_logs",
		WithDescription("Return the most recent lines of the server log"),
	)
}

// Call implements handler.ToolHandler. A missing log file is reported as
// text, not as an error.
func (t *GetLogsTool) Call(_ context.Context, _ map[string]interface{}) (*domain.ToolResult, error) {
	lines, err := tail(t.path, t.lines)
	if os.IsNotExist(errors.Cause(err)) {
		return domain.NewTextResult("No " + filepath.Base(t.path) + " found."), nil
	}
	if err != nil {
		return nil, err
	}
	return domain.NewTextResult(strings.Join(lines, "\n")), nil
}

// tail returns the last n lines of the file at path.
func tail(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening log file")
	}
	defer f.Close()

	window := make([]string, 0, n)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLogLineBytes)
	for scanner.Scan() {
		window = append(window, scanner.Text())
		if len(window) > n {
			window = window[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading log file")
	}
	return window, nil
}
