package host

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// consoleLog is the host's own log, the one get_logs tails. Every entry is
// also handed to attached listeners.
type consoleLog struct {
	logger *zap.Logger
	file   *os.File

	mu        sync.RWMutex
	listeners map[uint64]func(string)
	nextID    uint64
}

func openConsoleLog(path string) (*consoleLog, error) {
	c := &consoleLog{listeners: make(map[uint64]func(string))}

	var out io.Writer = io.Discard
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.Wrap(err, "creating log directory")
		}
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, errors.Wrap(err, "opening console log")
		}
		c.file = file
		out = file
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		MessageKey:     "message",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout("[15:04:05]"),
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(out), zapcore.DebugLevel)
	c.logger = zap.New(core, zap.Hooks(c.publish))
	return c, nil
}

func (c *consoleLog) publish(entry zapcore.Entry) error {
	c.mu.RLock()
	listeners := make([]func(string), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.RUnlock()

	for _, fn := range listeners {
		fn(entry.Message)
	}
	return nil
}

func (c *consoleLog) attach(fn func(string)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

func (c *consoleLog) close() error {
	_ = c.logger.Sync()
	if c.file == nil {
		return nil
	}
	return errors.Wrap(c.file.Close(), "closing console log")
}
