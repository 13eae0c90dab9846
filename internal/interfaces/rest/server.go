// Package rest provides the HTTP interface for the bridge.
package rest

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/FreePeak/mcp-host-bridge/internal/domain"
	"github.com/FreePeak/mcp-host-bridge/internal/domain/shared"
	"github.com/FreePeak/mcp-host-bridge/internal/infrastructure/logging"
	"github.com/FreePeak/mcp-host-bridge/internal/infrastructure/server"
)

const (
	defaultEventBufferSize = 100
	defaultMaxBodyBytes    = 16 << 20
	defaultKeepAlive       = 15 * time.Second
	deliveryTimeout        = 5 * time.Second

	// MessagesPath is the companion POST endpoint announced to SSE clients.
	MessagesPath = "/messages"
)

// Config contains configuration for the MCPServer.
type Config struct {
	Addr              string
	Token             string
	Info              shared.ServerInfo
	MaxBodyBytes      int64
	KeepAliveInterval time.Duration
	EventBufferSize   int
	ToolCount         int
}

// MCPServer terminates every HTTP transport and funnels payloads into a
// single domain.MessageHandler.
type MCPServer struct {
	handler    domain.MessageHandler
	sessions   domain.SessionRegistry
	notifier   *server.NotificationSender
	logger     *logging.Logger
	config     Config
	httpServer *http.Server
}

// NewMCPServer creates a new MCP server.
func NewMCPServer(handler domain.MessageHandler, sessions domain.SessionRegistry, config Config, logger *logging.Logger) *MCPServer {
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = defaultMaxBodyBytes
	}
	if config.KeepAliveInterval <= 0 {
		config.KeepAliveInterval = defaultKeepAlive
	}
	if config.EventBufferSize <= 0 {
		config.EventBufferSize = defaultEventBufferSize
	}
	if logger == nil {
		logger = logging.Default()
	}

	s := &MCPServer{
		handler:  handler,
		sessions: sessions,
		notifier: server.NewNotificationSender(sessions),
		logger:   logger.Named("http"),
		config:   config,
	}
	s.httpServer = &http.Server{
		Addr:              config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the full middleware chain and routes.
func (s *MCPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /sse", s.handleSSE)
	mux.HandleFunc("POST "+MessagesPath, s.handleMessages)
	mux.HandleFunc("POST /api", s.handleAPI)
	mux.HandleFunc("POST /mcp", s.handleMCPPost)
	mux.HandleFunc("GET /mcp", s.handleMCPDiscovery)
	mux.HandleFunc("GET /status", s.handleStatus)

	return logging.Middleware(s.logger)(cors(requireToken(s.config.Token)(mux)))
}

// Start listens on the configured address until Shutdown is called.
func (s *MCPServer) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return errors.Wrapf(err, "listening on %s", s.httpServer.Addr)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown is called.
func (s *MCPServer) Serve(ln net.Listener) error {
	s.logger.Info("HTTP server listening", logging.Fields{
		"addr":      ln.Addr().String(),
		"endpoints": []string{"/sse", MessagesPath, "/api", "/mcp", "/status"},
	})
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "serving HTTP")
	}
	return nil
}

// Shutdown closes every push channel, then stops the HTTP server.
func (s *MCPServer) Shutdown(ctx context.Context) error {
	s.sessions.CloseAll()
	return s.httpServer.Shutdown(ctx)
}
