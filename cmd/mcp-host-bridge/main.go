// Command mcp-host-bridge exposes a host process to MCP clients over HTTP,
// SSE and stdio.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

var configPath string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "mcp-host-bridge",
		Short:         "Bridge MCP clients to a host process",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yml", "path to the YAML config file")

	root.AddCommand(newServeCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newClientConfigCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		os.Exit(1)
	}
}
