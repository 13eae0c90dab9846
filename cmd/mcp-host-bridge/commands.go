package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/FreePeak/mcp-host-bridge/internal/builder"
	"github.com/FreePeak/mcp-host-bridge/internal/config"
	"github.com/FreePeak/mcp-host-bridge/internal/infrastructure/logging"
	"github.com/FreePeak/mcp-host-bridge/internal/infrastructure/server/client"
)

func newServeCmd() *cobra.Command {
	var useStdio bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bridge",
		Long: `The serve command starts the host scheduler and the HTTP endpoints
(/sse, /messages, /api, /mcp). With --stdio it speaks JSON-RPC on
stdin/stdout instead of listening.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := config.WriteDefault(configPath)
			if err != nil {
				return err
			}
			if created {
				color.New(color.FgYellow).Fprintf(os.Stderr, "Wrote default config to %s\n", configPath)
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			app, err := builder.NewServerBuilder(cfg).Build()
			if err != nil {
				return err
			}
			defer app.Close()
			logging.SetDefault(app.Logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if cfg.UsesDefaultToken() {
				app.Logger.Warn("server.token is the default value, change it before exposing the bridge")
			}

			if useStdio {
				app.Logger.Info("serving on stdio", logging.Fields{"tools": app.Tools.Len()})
				return app.RunStdio(ctx, os.Stdin, os.Stdout)
			}

			printBanner(cfg, app.Tools.Len())
			app.Logger.Info("starting bridge", logging.Fields{
				"host": cfg.Server.Host,
				"port": cfg.Server.Port,
				"root": app.Sandbox.Root(),
			})
			return app.Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&useStdio, "stdio", false, "serve JSON-RPC over stdin/stdout instead of HTTP")
	return cmd
}

func printBanner(cfg *config.Config, tools int) {
	cyan := color.New(color.FgCyan, color.Bold)
	gray := color.New(color.FgHiBlack)
	yellow := color.New(color.FgYellow)

	cyan.Fprintf(os.Stderr, "%s %s\n", cfg.ServerInfo.Name, cfg.ServerInfo.Version)
	gray.Fprintf(os.Stderr, "  listening  %s\n", cfg.Server.Addr())
	gray.Fprintf(os.Stderr, "  sandbox    %s\n", cfg.Sandbox.Root)
	gray.Fprintf(os.Stderr, "  tools      %d\n", tools)
	if cfg.UsesDefaultToken() {
		yellow.Fprintf(os.Stderr, "  WARNING: using the default token %q\n", config.DefaultToken)
	}
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := config.WriteDefault(configPath)
			if err != nil {
				return err
			}
			if !created {
				color.New(color.FgYellow).Fprintf(cmd.OutOrStdout(), "%s already exists, leaving it untouched\n", configPath)
				return nil
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Wrote %s\n", configPath)
			fmt.Fprintf(cmd.OutOrStdout(), "Set server.token (or %s) before starting the bridge.\n", config.EnvToken)
			return nil
		},
	}
}

func newClientConfigCmd() *cobra.Command {
	var (
		clientName string
		endpoint   string
	)

	cmd := &cobra.Command{
		Use:   "client-config",
		Short: "Print a client configuration snippet",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadOrDefault(configPath)
			if err != nil {
				return err
			}
			if endpoint == "" {
				endpoint = fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
			}

			data, err := client.NewConfigRegistry().GetConfig(client.ClientType(clientName)).Render(client.Target{
				Name:     cfg.ServerInfo.Name,
				Endpoint: endpoint,
				Token:    cfg.Server.Token,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	cmd.Flags().StringVar(&clientName, "client", string(client.ClientTypeGeneric), "client type: cursor, claude or generic")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "base URL clients use to reach the bridge (default http://localhost:<port>)")
	return cmd
}

// loadOrDefault reads path when it exists and falls back to the defaults
// with environment overrides otherwise.
func loadOrDefault(path string) (*config.Config, error) {
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return nil, errors.Wrap(err, "checking config file")
		}
		return config.Parse(nil)
	}
	return config.Load(path)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mcp-host-bridge %s\n", version)
		},
	}
}
