package bridge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FreePeak/mcp-host-bridge/internal/domain"
	"github.com/FreePeak/mcp-host-bridge/internal/testutil"
)

func newBridge(t *testing.T, host *testutil.FakeHost, opts ...Option) *Bridge {
	t.Helper()
	t.Cleanup(host.Close)
	return New(host, append([]Option{WithCaptureGrace(20 * time.Millisecond)}, opts...)...)
}

func TestExecuteCommandCapturesSenderOutput(t *testing.T) {
	host := testutil.NewFakeHost()
	host.DispatchFunc = func(_ *testutil.FakeHost, sender domain.CommandSender, command string) error {
		sender.SendMessage("There are 2 of a max of 20 players online")
		sender.SendMessage("alice, bob")
		return nil
	}
	b := newBridge(t, host)

	out, err := b.ExecuteCommand(context.Background(), "list")
	require.NoError(t, err)
	assert.Equal(t, "There are 2 of a max of 20 players online\nalice, bob", out)
	assert.Equal(t, []string{"list"}, host.Dispatched())
	// The wrapped sender still forwards to the console.
	assert.Len(t, host.Console.Messages, 2)
}

func TestExecuteCommandNoOutput(t *testing.T) {
	host := testutil.NewFakeHost()
	b := newBridge(t, host)

	out, err := b.ExecuteCommand(context.Background(), "save-all")
	require.NoError(t, err)
	assert.Equal(t, MsgNoOutput, out)
}

func TestExecuteCommandFallsBackToLogCapture(t *testing.T) {
	host := testutil.NewFakeHost()
	host.DispatchFunc = func(h *testutil.FakeHost, sender domain.CommandSender, command string) error {
		if sender.Name() != "CONSOLE" || sender != h.Console {
			return domain.ErrSenderRejected
		}
		go h.Log("[LP] Running LuckPerms v5.4")
		return nil
	}
	b := newBridge(t, host, WithCaptureGrace(100*time.Millisecond))

	out, err := b.ExecuteCommand(context.Background(), "lp info")
	require.NoError(t, err)
	assert.Equal(t, "[LP] Running LuckPerms v5.4", out)
	assert.Equal(t, []string{"lp info", "lp info"}, host.Dispatched())
	assert.Equal(t, 0, host.ListenerCount(), "listener must be detached")
}

func TestExecuteCommandFallbackWithoutLogLines(t *testing.T) {
	host := testutil.NewFakeHost()
	host.DispatchFunc = func(h *testutil.FakeHost, sender domain.CommandSender, command string) error {
		if sender != h.Console {
			return domain.ErrSenderRejected
		}
		return nil
	}
	b := newBridge(t, host)

	out, err := b.ExecuteCommand(context.Background(), "lp sync")
	require.NoError(t, err)
	assert.Equal(t, MsgConsoleFallback, out)
	assert.Equal(t, 0, host.ListenerCount())
}

func TestExecuteCommandFallbackDispatchError(t *testing.T) {
	host := testutil.NewFakeHost()
	host.DispatchFunc = func(h *testutil.FakeHost, sender domain.CommandSender, command string) error {
		if sender != h.Console {
			return domain.ErrSenderRejected
		}
		return errors.New("console busy")
	}
	b := newBridge(t, host)

	_, err := b.ExecuteCommand(context.Background(), "lp sync")
	assert.EqualError(t, err, "console busy")
	assert.Equal(t, 0, host.ListenerCount())
}

func TestExecuteCommandPropagatesOtherErrors(t *testing.T) {
	host := testutil.NewFakeHost()
	host.DispatchFunc = func(*testutil.FakeHost, domain.CommandSender, string) error {
		return errors.New("unknown command")
	}
	b := newBridge(t, host)

	_, err := b.ExecuteCommand(context.Background(), "nope")
	assert.EqualError(t, err, "unknown command")
	assert.Len(t, host.Dispatched(), 1)
}

func TestExecuteCommandTimeoutIsSoftSuccess(t *testing.T) {
	host := testutil.NewFakeHost()
	host.Stall = true
	b := newBridge(t, host, WithTimeout(30*time.Millisecond))

	out, err := b.ExecuteCommand(context.Background(), "stop")
	require.NoError(t, err)
	assert.Equal(t, MsgTimedOut, out)
}

func TestRunRecoversPanics(t *testing.T) {
	host := testutil.NewFakeHost()
	b := newBridge(t, host)

	_, err := b.Run(context.Background(), func() (string, error) {
		panic("kaboom")
	})
	assert.ErrorContains(t, err, "kaboom")

	// The host goroutine survives and keeps serving work.
	out, err := b.Run(context.Background(), func() (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestRunHonoursContext(t *testing.T) {
	host := testutil.NewFakeHost()
	host.Stall = true
	b := newBridge(t, host)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Run(ctx, func() (string, error) { return "", nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunPendingAfterTimeout(t *testing.T) {
	host := testutil.NewFakeHost()
	host.Stall = true
	b := newBridge(t, host, WithTimeout(10*time.Millisecond))

	_, err := b.Run(context.Background(), func() (string, error) { return "", nil })
	assert.ErrorIs(t, err, ErrPending)
}

func TestListModules(t *testing.T) {
	host := testutil.NewFakeHost()
	host.ModuleList = []domain.Module{{Name: "Essentials", Version: "2.20", Enabled: true}}
	b := newBridge(t, host)

	modules, err := b.ListModules(context.Background())
	require.NoError(t, err)
	assert.Equal(t, host.ModuleList, modules)
}

func TestCallsAreSerializedInOrder(t *testing.T) {
	host := testutil.NewFakeHost()
	b := newBridge(t, host)

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		_, err := b.Run(context.Background(), func() (string, error) {
			order = append(order, i)
			return "", nil
		})
		require.NoError(t, err)
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}
