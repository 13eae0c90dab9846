package host

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FreePeak/mcp-host-bridge/internal/domain"
	"github.com/FreePeak/mcp-host-bridge/internal/infrastructure/logging"
	"github.com/FreePeak/mcp-host-bridge/internal/usecases/bridge"
)

type recordingSender struct {
	mu       sync.Mutex
	messages []string
}

func (r *recordingSender) Name() string { return "remote" }

func (r *recordingSender) SendMessage(message string) {
	r.mu.Lock()
	r.messages = append(r.messages, message)
	r.mu.Unlock()
}

func (r *recordingSender) lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

func newHost(t *testing.T, mutate func(*Config)) (*ProcessHost, string) {
	t.Helper()
	root := t.TempDir()
	cfg := Config{
		Root:           root,
		TickInterval:   5 * time.Millisecond,
		Shell:          []string{"/bin/sh", "-c"},
		CommandTimeout: 5 * time.Second,
		LogFile:        filepath.Join(root, "logs", "latest.log"),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	h, err := New(cfg, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h, root
}

func runHost(t *testing.T, h *ProcessHost) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = h.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return cancel
}

func TestNewValidation(t *testing.T) {
	_, err := New(Config{Shell: []string{"/bin/sh"}}, nil)
	assert.Error(t, err)

	_, err = New(Config{TickInterval: time.Millisecond}, nil)
	assert.Error(t, err)
}

func TestSubmitRunsInOrder(t *testing.T) {
	h, _ := newHost(t, nil)
	runHost(t, h)

	var (
		mu    sync.Mutex
		order []int
	)
	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		i := i
		require.NoError(t, h.Submit(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			if i == 4 {
				close(done)
			}
		}))
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("tasks did not run")
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestSubmitAfterStop(t *testing.T) {
	h, _ := newHost(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, h.Run(ctx))

	assert.ErrorIs(t, h.Submit(func() {}), ErrHostStopped)
	assert.Error(t, h.Submit(nil))
}

func TestPanickingTaskDoesNotStopScheduler(t *testing.T) {
	h, _ := newHost(t, nil)
	runHost(t, h)

	require.NoError(t, h.Submit(func() { panic("boom") }))
	done := make(chan struct{})
	require.NoError(t, h.Submit(func() { close(done) }))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler stopped after panic")
	}
}

func TestDispatch(t *testing.T) {
	h, root := newHost(t, func(c *Config) {
		c.ConsoleOnlyCommands = []string{"stop"}
	})
	require.NoError(t, os.WriteFile(filepath.Join(root, "marker.txt"), []byte("x"), 0o644))

	t.Run("output lines go to sender", func(t *testing.T) {
		sender := &recordingSender{}
		require.NoError(t, h.Dispatch(sender, "echo one; echo two"))
		assert.Equal(t, []string{"one", "two"}, sender.lines())
	})

	t.Run("runs in root", func(t *testing.T) {
		sender := &recordingSender{}
		require.NoError(t, h.Dispatch(sender, "ls"))
		assert.Contains(t, sender.lines(), "marker.txt")
	})

	t.Run("non-zero exit is reported to sender", func(t *testing.T) {
		sender := &recordingSender{}
		require.NoError(t, h.Dispatch(sender, "exit 3"))
		assert.Equal(t, []string{"exit status 3"}, sender.lines())
	})

	t.Run("empty command", func(t *testing.T) {
		assert.Error(t, h.Dispatch(&recordingSender{}, "   "))
	})

	t.Run("console only rejects other senders", func(t *testing.T) {
		err := h.Dispatch(&recordingSender{}, "stop now")
		assert.ErrorIs(t, err, domain.ErrSenderRejected)
	})

	t.Run("console only accepts console", func(t *testing.T) {
		var lines []string
		detach := h.AttachLogListener(func(line string) { lines = append(lines, line) })
		defer detach()

		require.NoError(t, h.Dispatch(h.ConsoleSender(), "stop 2>/dev/null; echo stopping"))
		assert.Contains(t, lines, "stopping")
	})
}

func TestDispatchTimeout(t *testing.T) {
	h, _ := newHost(t, func(c *Config) {
		c.CommandTimeout = 50 * time.Millisecond
	})

	sender := &recordingSender{}
	require.NoError(t, h.Dispatch(sender, "sleep 5"))
	lines := sender.lines()
	require.NotEmpty(t, lines)
	assert.True(t, strings.HasPrefix(lines[len(lines)-1], "Command timed out"))
}

func TestConsoleLog(t *testing.T) {
	h, root := newHost(t, nil)

	var got []string
	detach := h.AttachLogListener(func(line string) { got = append(got, line) })
	h.ConsoleSender().SendMessage("hello console")
	detach()
	detach()
	h.ConsoleSender().SendMessage("after detach")

	assert.Equal(t, []string{"hello console"}, got)
	assert.Equal(t, "CONSOLE", h.ConsoleSender().Name())

	require.NoError(t, h.Close())
	data, err := os.ReadFile(filepath.Join(root, "logs", "latest.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello console")
	assert.Contains(t, string(data), "after detach")
}

func TestModulesReturnsCopy(t *testing.T) {
	h, _ := newHost(t, func(c *Config) {
		c.Modules = []domain.Module{{Name: "worldedit", Version: "7.2", Enabled: true}}
	})

	modules := h.Modules()
	modules[0].Name = "changed"
	assert.Equal(t, "worldedit", h.Modules()[0].Name)
}

func TestBridgeOverProcessHost(t *testing.T) {
	h, _ := newHost(t, func(c *Config) {
		c.ConsoleOnlyCommands = []string{"printf"}
	})
	runHost(t, h)
	b := bridge.New(h, bridge.WithTimeout(5*time.Second), bridge.WithCaptureGrace(20*time.Millisecond))

	out, err := b.ExecuteCommand(context.Background(), "echo captured")
	require.NoError(t, err)
	assert.Equal(t, "captured", out)

	out, err = b.ExecuteCommand(context.Background(), "printf 'via-log\\n'")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out, "\nvia-log"), out)

	out, err = b.ExecuteCommand(context.Background(), "true")
	require.NoError(t, err)
	assert.Equal(t, bridge.MsgNoOutput, out)
}
