package tools

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/FreePeak/mcp-host-bridge/internal/domain"
)

// CommandRunner executes host commands. *bridge.Bridge implements it.
type CommandRunner interface {
	ExecuteCommand(ctx context.Context, command string) (string, error)
}

// ModuleLister reports installed host modules. *bridge.Bridge implements it.
type ModuleLister interface {
	ListModules(ctx context.Context) ([]domain.Module, error)
}

// ExecuteCommandTool runs a console command on the host.
type ExecuteCommandTool struct {
	runner CommandRunner
}

// NewExecuteCommandTool creates the execute_command tool.
func NewExecuteCommandTool(runner CommandRunner) *ExecuteCommandTool {
	return &ExecuteCommandTool{runner: runner}
}

// Descriptor implements handler.ToolHandler.
func (t *ExecuteCommandTool) Descriptor() domain.ToolDescriptor {
	return NewTool("execute_command",
		WithDescription("Execute a console command on the host and return its output"),
		WithString("command", Required(), Description("The command to execute, without a leading slash")),
	)
}

// Call implements handler.ToolHandler.
func (t *ExecuteCommandTool) Call(ctx context.Context, args map[string]interface{}) (*domain.ToolResult, error) {
	command, err := requireString(args, "command")
	if err != nil {
		return nil, err
	}
	out, err := t.runner.ExecuteCommand(ctx, command)
	if err != nil {
		return nil, errors.Wrapf(err, "executing %q", command)
	}
	return domain.NewTextResult(out), nil
}

// ListPluginsTool lists installed host modules.
type ListPluginsTool struct {
	lister ModuleLister
}

// NewListPluginsTool creates the list_plugins tool.
func NewListPluginsTool(lister ModuleLister) *ListPluginsTool {
	return &ListPluginsTool{lister: lister}
}

// Descriptor implements handler.ToolHandler.
func (t *ListPluginsTool) Descriptor() domain.ToolDescriptor {
	return NewTool("list_plugins",
		WithDescription("List installed plugins with their versions; disabled plugins are flagged"),
	)
}

// Call implements handler.ToolHandler.
func (t *ListPluginsTool) Call(ctx context.Context, _ map[string]interface{}) (*domain.ToolResult, error) {
	modules, err := t.lister.ListModules(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing plugins")
	}
	return domain.NewTextResult(formatModules(modules)), nil
}

func formatModules(modules []domain.Module) string {
	var sb strings.Builder
	for _, m := range modules {
		sb.WriteString(m.Name)
		sb.WriteString(" (")
		sb.WriteString(m.Version)
		sb.WriteString(")")
		if !m.Enabled {
			sb.WriteString(" [DISABLED]")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
