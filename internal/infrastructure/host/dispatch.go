package host

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/FreePeak/mcp-host-bridge/internal/domain"
	"github.com/FreePeak/mcp-host-bridge/internal/infrastructure/logging"
)

// waitDelay bounds how long a killed command's children may hold the output
// pipes open.
const waitDelay = time.Second

// Dispatch implements domain.Host. It runs command through the configured
// shell and sends each output line to sender. A non-zero exit is reported to
// the sender, not returned.
func (h *ProcessHost) Dispatch(sender domain.CommandSender, command string) error {
	command = strings.TrimSpace(command)
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return errors.New("empty command")
	}
	if _, ok := h.consoleOnly[fields[0]]; ok && sender != h.sender {
		return domain.ErrSenderRejected
	}

	h.console.logger.Sugar().Infof("%s issued command: %s", sender.Name(), command)

	ctx := context.Background()
	if h.cfg.CommandTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.CommandTimeout)
		defer cancel()
	}

	args := append(append([]string{}, h.cfg.Shell[1:]...), command)
	cmd := exec.CommandContext(ctx, h.cfg.Shell[0], args...)
	cmd.Dir = h.cfg.Root
	cmd.WaitDelay = waitDelay
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	runErr := cmd.Run()

	scanner := bufio.NewScanner(&output)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		sender.SendMessage(scanner.Text())
	}

	var exitErr *exec.ExitError
	switch {
	case runErr == nil:
		return nil
	case ctx.Err() == context.DeadlineExceeded:
		h.logger.Warn("command timed out", logging.Fields{"command": command, "timeout": h.cfg.CommandTimeout.String()})
		sender.SendMessage("Command timed out after " + h.cfg.CommandTimeout.String())
		return nil
	case errors.As(runErr, &exitErr):
		sender.SendMessage(exitErr.Error())
		return nil
	default:
		return errors.Wrapf(runErr, "running %q", fields[0])
	}
}
