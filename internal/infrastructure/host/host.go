// Package host provides a domain.Host backed by a tick-driven scheduler that
// runs shell commands in the sandbox root.
package host

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/FreePeak/mcp-host-bridge/internal/domain"
	"github.com/FreePeak/mcp-host-bridge/internal/infrastructure/logging"
)

// ErrHostStopped is returned by Submit once Run has returned.
var ErrHostStopped = errors.New("host is stopped")

// Config describes a ProcessHost.
type Config struct {
	// Root is the working directory for dispatched commands.
	Root string

	TickInterval   time.Duration
	Shell          []string
	CommandTimeout time.Duration

	// ConsoleOnlyCommands name commands that only the console sender may run.
	ConsoleOnlyCommands []string

	// LogFile receives the console log. Empty keeps it in memory only.
	LogFile string

	Modules []domain.Module
}

// ProcessHost implements domain.Host. Submitted tasks run in FIFO order on
// the goroutine that called Run, one batch per tick.
type ProcessHost struct {
	cfg         Config
	consoleOnly map[string]struct{}
	logger      *logging.Logger

	console *consoleLog
	sender  *consoleSender

	mu      sync.Mutex
	queue   []func()
	stopped bool
}

// New creates a ProcessHost and opens its console log.
func New(cfg Config, logger *logging.Logger) (*ProcessHost, error) {
	if cfg.TickInterval <= 0 {
		return nil, errors.New("tick interval must be positive")
	}
	if len(cfg.Shell) == 0 {
		return nil, errors.New("shell is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	console, err := openConsoleLog(cfg.LogFile)
	if err != nil {
		return nil, err
	}

	h := &ProcessHost{
		cfg:         cfg,
		consoleOnly: make(map[string]struct{}, len(cfg.ConsoleOnlyCommands)),
		logger:      logger.Named("host"),
		console:     console,
	}
	for _, name := range cfg.ConsoleOnlyCommands {
		h.consoleOnly[name] = struct{}{}
	}
	h.sender = &consoleSender{log: console.logger}
	return h, nil
}

// Run drains the task queue every tick until ctx is done. Tasks still queued
// at that point are dropped.
func (h *ProcessHost) Run(ctx context.Context) error {
	h.logger.Info("host scheduler started", logging.Fields{"tick": h.cfg.TickInterval.String()})
	ticker := time.NewTicker(h.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			h.stopped = true
			dropped := len(h.queue)
			h.queue = nil
			h.mu.Unlock()
			h.logger.Info("host scheduler stopped", logging.Fields{"dropped_tasks": dropped})
			return nil
		case <-ticker.C:
			h.tick()
		}
	}
}

func (h *ProcessHost) tick() {
	h.mu.Lock()
	batch := h.queue
	h.queue = nil
	h.mu.Unlock()

	for _, task := range batch {
		h.runTask(task)
	}
}

func (h *ProcessHost) runTask(task func()) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("host task panicked", logging.Fields{"panic": r})
		}
	}()
	task()
}

// Submit implements domain.Host.
func (h *ProcessHost) Submit(task func()) error {
	if task == nil {
		return errors.New("nil task")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return ErrHostStopped
	}
	h.queue = append(h.queue, task)
	return nil
}

// ConsoleSender implements domain.Host.
func (h *ProcessHost) ConsoleSender() domain.CommandSender {
	return h.sender
}

// AttachLogListener implements domain.Host.
func (h *ProcessHost) AttachLogListener(fn func(line string)) func() {
	return h.console.attach(fn)
}

// Modules implements domain.Host.
func (h *ProcessHost) Modules() []domain.Module {
	modules := make([]domain.Module, len(h.cfg.Modules))
	copy(modules, h.cfg.Modules)
	return modules
}

// Close flushes and closes the console log.
func (h *ProcessHost) Close() error {
	return h.console.close()
}

// consoleSender writes everything it receives to the console log.
type consoleSender struct {
	log *zap.Logger
}

func (c *consoleSender) Name() string {
	return "CONSOLE"
}

func (c *consoleSender) SendMessage(message string) {
	c.log.Info(message)
}
