// Package stdio serves the bridge over newline-delimited JSON-RPC on
// standard input and output.
package stdio

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/FreePeak/mcp-host-bridge/internal/domain"
	"github.com/FreePeak/mcp-host-bridge/internal/infrastructure/logging"
)

// StdioContextFunc is a function that takes an existing context and returns
// a potentially modified context.
type StdioContextFunc func(ctx context.Context) context.Context

// StdioServer reads one JSON-RPC message per line and writes one reply per
// line. Messages are handled concurrently; replies may interleave in any
// order but never within a line.
type StdioServer struct {
	handler     domain.MessageHandler
	logger      *logging.Logger
	contextFunc StdioContextFunc

	mu sync.Mutex
}

// StdioOption defines a function type for configuring StdioServer
type StdioOption func(*StdioServer)

// WithLogger sets the logger. It must not write to stdout.
func WithLogger(logger *logging.Logger) StdioOption {
	return func(s *StdioServer) {
		s.logger = logger
	}
}

// WithStdioContextFunc sets a function that will be called to customise the context
// to the server. Note that the stdio server uses the same context for all requests,
// so this function will only be called once per server instance.
func WithStdioContextFunc(fn StdioContextFunc) StdioOption {
	return func(s *StdioServer) {
		s.contextFunc = fn
	}
}

// NewStdioServer creates a stdio server that hands every line to handler.
func NewStdioServer(handler domain.MessageHandler, opts ...StdioOption) *StdioServer {
	s := &StdioServer{
		handler: handler,
		logger:  logging.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("stdio")
	return s
}

// Listen processes stdin until EOF or ctx is done, then waits for in-flight
// messages to finish.
func (s *StdioServer) Listen(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	if s.contextFunc != nil {
		ctx = s.contextFunc(ctx)
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		reader := bufio.NewReader(stdin)
		for {
			line, err := reader.ReadString('\n')
			if strings.TrimSpace(line) != "" {
				select {
				case lines <- line:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					readErr <- errors.Wrap(err, "reading stdin")
				}
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					return err
				default:
					s.logger.Info("input stream closed")
					return nil
				}
			}
			wg.Add(1)
			go func(line string) {
				defer wg.Done()
				s.processMessage(ctx, line, stdout)
			}(line)
		}
	}
}

func (s *StdioServer) processMessage(ctx context.Context, line string, stdout io.Writer) {
	reply := s.handler.HandleMessage(ctx, []byte(strings.TrimSpace(line)))
	if !reply.HasPayload() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := stdout.Write(append(reply.Payload, '\n')); err != nil {
		s.logger.Error("writing response failed", logging.Fields{"error": err, "method": reply.Method})
	}
}
