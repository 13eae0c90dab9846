// Package bridge runs work on the host's single execution goroutine and
// waits for the answer with a bounded timeout.
package bridge

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/FreePeak/mcp-host-bridge/internal/domain"
	"github.com/FreePeak/mcp-host-bridge/internal/infrastructure/logging"
)

// ErrPending is returned when submitted work has not finished before the
// deadline. The work is not cancelled and may still complete on the host.
var ErrPending = errors.New("host did not answer before the deadline")

// Messages returned by ExecuteCommand when there is no command output.
const (
	MsgTimedOut        = "Command sent but response timed out. The command may still have executed."
	MsgNoOutput        = "Command executed (no output captured)."
	MsgConsoleFallback = "Command executed successfully (via console)."
)

const (
	defaultTimeout      = 10 * time.Second
	defaultCaptureGrace = 100 * time.Millisecond
)

// Bridge marshals calls onto a domain.Host.
type Bridge struct {
	host         domain.Host
	logger       *logging.Logger
	timeout      time.Duration
	captureGrace time.Duration
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithTimeout sets how long callers wait for the host.
func WithTimeout(d time.Duration) Option {
	return func(b *Bridge) {
		b.timeout = d
	}
}

// WithCaptureGrace sets how long the log fallback listens after dispatching.
func WithCaptureGrace(d time.Duration) Option {
	return func(b *Bridge) {
		b.captureGrace = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(b *Bridge) {
		b.logger = logger
	}
}

// New creates a Bridge for host.
func New(host domain.Host, opts ...Option) *Bridge {
	b := &Bridge{
		host:         host,
		logger:       logging.Default(),
		timeout:      defaultTimeout,
		captureGrace: defaultCaptureGrace,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.Named("bridge")
	return b
}

type outcome[T any] struct {
	value T
	err   error
}

// call submits work and blocks until it reports back, the timeout fires or
// ctx is done. The result slot is buffered so a late task never blocks the
// host goroutine.
func call[T any](ctx context.Context, b *Bridge, work func() (T, error)) (T, error) {
	var zero T
	done := make(chan outcome[T], 1)

	err := b.host.Submit(func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome[T]{err: errors.Errorf("host task panicked: %v", r)}
			}
		}()
		value, err := work()
		done <- outcome[T]{value: value, err: err}
	})
	if err != nil {
		return zero, errors.Wrap(err, "submitting to host")
	}

	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		return out.value, out.err
	case <-timer.C:
		return zero, ErrPending
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Run executes work on the host goroutine and returns its text.
func (b *Bridge) Run(ctx context.Context, work func() (string, error)) (string, error) {
	return call(ctx, b, work)
}

// ListModules reads the installed host modules on the host goroutine.
func (b *Bridge) ListModules(ctx context.Context) ([]domain.Module, error) {
	return call(ctx, b, func() ([]domain.Module, error) {
		return b.host.Modules(), nil
	})
}

// ExecuteCommand runs command on the host and returns the text it produced.
// A host that does not answer in time yields MsgTimedOut rather than an
// error.
func (b *Bridge) ExecuteCommand(ctx context.Context, command string) (string, error) {
	text, err := b.Run(ctx, func() (string, error) {
		return b.dispatch(command)
	})
	if errors.Is(err, ErrPending) {
		b.logger.Warn("command still pending after timeout", logging.Fields{
			"command": command,
			"timeout": b.timeout.String(),
		})
		return MsgTimedOut, nil
	}
	return text, err
}

// dispatch runs on the host goroutine.
func (b *Bridge) dispatch(command string) (string, error) {
	console := b.host.ConsoleSender()
	capture := newCaptureSender(console)

	err := b.host.Dispatch(capture, command)
	switch {
	case err == nil:
		if out := capture.Output(); out != "" {
			return out, nil
		}
		return MsgNoOutput, nil
	case errors.Is(err, domain.ErrSenderRejected):
		b.logger.Debug("wrapped sender rejected, capturing from log", logging.Fields{"command": command})
		return b.dispatchViaLog(console, command)
	default:
		return "", err
	}
}

func (b *Bridge) dispatchViaLog(console domain.CommandSender, command string) (string, error) {
	var (
		mu    sync.Mutex
		lines []string
	)
	detach := b.host.AttachLogListener(func(line string) {
		mu.Lock()
		lines = append(lines, line)
		mu.Unlock()
	})

	err := b.host.Dispatch(console, command)
	if err == nil {
		time.Sleep(b.captureGrace)
	}
	detach()
	if err != nil {
		return "", err
	}

	mu.Lock()
	defer mu.Unlock()
	if len(lines) == 0 {
		return MsgConsoleFallback, nil
	}
	return strings.Join(lines, "\n"), nil
}

// captureSender records every message while still forwarding it to the
// sender it wraps.
type captureSender struct {
	delegate domain.CommandSender

	mu       sync.Mutex
	messages []string
}

func newCaptureSender(delegate domain.CommandSender) *captureSender {
	return &captureSender{delegate: delegate}
}

func (c *captureSender) Name() string {
	return c.delegate.Name()
}

func (c *captureSender) SendMessage(message string) {
	c.mu.Lock()
	c.messages = append(c.messages, message)
	c.mu.Unlock()
	c.delegate.SendMessage(message)
}

// Output returns the captured messages, newline separated.
func (c *captureSender) Output() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Join(c.messages, "\n")
}
