// Package builder wires the bridge together from a config.Config.
package builder

import (
	"context"
	"io"
	"net"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/FreePeak/mcp-host-bridge/internal/config"
	"github.com/FreePeak/mcp-host-bridge/internal/domain"
	"github.com/FreePeak/mcp-host-bridge/internal/domain/shared"
	"github.com/FreePeak/mcp-host-bridge/internal/infrastructure/host"
	"github.com/FreePeak/mcp-host-bridge/internal/infrastructure/logging"
	"github.com/FreePeak/mcp-host-bridge/internal/infrastructure/sandbox"
	"github.com/FreePeak/mcp-host-bridge/internal/infrastructure/server"
	"github.com/FreePeak/mcp-host-bridge/internal/infrastructure/server/client"
	"github.com/FreePeak/mcp-host-bridge/internal/interfaces/rest"
	"github.com/FreePeak/mcp-host-bridge/internal/interfaces/stdio"
	"github.com/FreePeak/mcp-host-bridge/internal/usecases"
	"github.com/FreePeak/mcp-host-bridge/internal/usecases/bridge"
	"github.com/FreePeak/mcp-host-bridge/internal/usecases/tools"
)

// ServerBuilder implements the Builder pattern for creating the bridge
type ServerBuilder struct {
	config   *config.Config
	logger   *logging.Logger
	host     domain.Host
	sessions domain.SessionRegistry
}

// NewServerBuilder creates a builder for cfg. A nil cfg uses config.Default.
func NewServerBuilder(cfg *config.Config) *ServerBuilder {
	if cfg == nil {
		cfg = config.Default()
	}
	return &ServerBuilder{config: cfg}
}

// WithLogger sets the logger instead of building one from the logging section
func (b *ServerBuilder) WithLogger(logger *logging.Logger) *ServerBuilder {
	b.logger = logger
	return b
}

// WithHost replaces the process host. The caller is responsible for running
// the replacement.
func (b *ServerBuilder) WithHost(h domain.Host) *ServerBuilder {
	b.host = h
	return b
}

// WithSessionRegistry sets the session registry
func (b *ServerBuilder) WithSessionRegistry(sessions domain.SessionRegistry) *ServerBuilder {
	b.sessions = sessions
	return b
}

// App is an assembled bridge.
type App struct {
	Config     *config.Config
	Logger     *logging.Logger
	Sandbox    *sandbox.Sandbox
	Host       domain.Host
	Bridge     *bridge.Bridge
	Tools      *tools.Registry
	Dispatcher *usecases.Dispatcher
	Sessions   domain.SessionRegistry
	HTTP       *rest.MCPServer

	processHost *host.ProcessHost
}

// Build validates the configuration and assembles every component.
func (b *ServerBuilder) Build() (*App, error) {
	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "validating config")
	}

	logger := b.logger
	if logger == nil {
		var err error
		logger, err = logging.New(logging.Config{
			Level:       logging.LogLevel(cfg.Logging.Level),
			Development: cfg.Logging.Development,
			OutputPaths: cfg.Logging.OutputPaths,
		})
		if err != nil {
			return nil, errors.Wrap(err, "creating logger")
		}
	}

	box, err := sandbox.New(cfg.Sandbox.Root)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:   cfg,
		Logger:   logger,
		Sandbox:  box,
		Host:     b.host,
		Sessions: b.sessions,
	}

	if app.Host == nil {
		app.processHost, err = host.New(host.Config{
			Root:                box.Root(),
			TickInterval:        cfg.Host.TickInterval,
			Shell:               cfg.Host.Shell,
			CommandTimeout:      cfg.Host.CommandTimeout,
			ConsoleOnlyCommands: cfg.Host.ConsoleOnlyCommands,
			LogFile:             underRoot(box.Root(), cfg.Host.LogFile),
			Modules:             cfg.Host.Modules,
		}, logger)
		if err != nil {
			return nil, errors.Wrap(err, "creating host")
		}
		app.Host = app.processHost
	}
	if app.Sessions == nil {
		app.Sessions = server.NewSessionRegistry()
	}

	app.Bridge = bridge.New(app.Host,
		bridge.WithTimeout(cfg.Bridge.Timeout),
		bridge.WithCaptureGrace(cfg.Bridge.CaptureGrace),
		bridge.WithLogger(logger),
	)
	app.Tools = tools.NewRegistry(tools.Catalog(
		app.Bridge,
		box,
		underRoot(box.Root(), cfg.Logs.File),
		cfg.Logs.TailLines,
	)...)
	app.Dispatcher = usecases.NewDispatcher(usecases.DispatcherConfig{
		Name:    cfg.ServerInfo.Name,
		Version: cfg.ServerInfo.Version,
		Tools:   app.Tools,
		Logger:  logger,
		OnInitialize: func(_ context.Context, params shared.InitializeParams) {
			client.DetectClientType(params.ClientInfo, logger)
		},
	})
	app.HTTP = rest.NewMCPServer(app.Dispatcher, app.Sessions, rest.Config{
		Addr:              cfg.Server.Addr(),
		Token:             cfg.Server.Token,
		Info:              app.Dispatcher.ServerInfo(),
		MaxBodyBytes:      cfg.Server.MaxBodyBytes,
		KeepAliveInterval: cfg.Server.KeepAliveInterval,
		ToolCount:         app.Tools.Len(),
	}, logger)

	return app, nil
}

// underRoot anchors relative paths at root.
func underRoot(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// Run listens on the configured address and serves until ctx is done.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Config.Server.Addr())
	if err != nil {
		return errors.Wrapf(err, "listening on %s", a.Config.Server.Addr())
	}
	return a.Serve(ctx, ln)
}

// Serve runs the host scheduler and the HTTP server on ln until ctx is done
// or either fails, then shuts the server down within the configured timeout.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)
	a.runHost(ctx, g)

	g.Go(func() error {
		return a.HTTP.Serve(ln)
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
		defer cancel()
		a.Logger.Info("shutting down HTTP server")
		return errors.Wrap(a.HTTP.Shutdown(shutdownCtx), "shutting down HTTP server")
	})

	return g.Wait()
}

// RunStdio serves JSON-RPC over in and out until in is exhausted or ctx is
// done.
func (a *App) RunStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	a.runHost(ctx, g)

	g.Go(func() error {
		defer cancel()
		err := stdio.NewStdioServer(a.Dispatcher, stdio.WithLogger(a.Logger)).Listen(ctx, in, out)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	return g.Wait()
}

func (a *App) runHost(ctx context.Context, g *errgroup.Group) {
	if a.processHost == nil {
		return
	}
	g.Go(func() error {
		return a.processHost.Run(ctx)
	})
}

// Close releases the host console log and flushes the logger.
func (a *App) Close() error {
	var err error
	if a.processHost != nil {
		err = a.processHost.Close()
	}
	_ = a.Logger.Sync()
	return err
}
