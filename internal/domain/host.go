package domain

import "errors"

// ErrSenderRejected is returned by Host.Dispatch when the host refuses to run
// a command against anything other than its own console sender.
var ErrSenderRejected = errors.New("command requires the console sender")

// CommandSender receives the text a command produces.
type CommandSender interface {
	Name() string
	SendMessage(message string)
}

// Host is the application the bridge drives. Every method except Submit must
// only be called from a task running on the host's own execution goroutine.
type Host interface {
	// Submit queues task to run on the host goroutine. It never waits for the
	// task to execute.
	Submit(task func()) error

	// Dispatch runs command with output directed at sender.
	Dispatch(sender CommandSender, command string) error

	// ConsoleSender returns the host's default sender.
	ConsoleSender() CommandSender

	// AttachLogListener registers fn for every line the host logs and returns
	// a function that detaches it.
	AttachLogListener(fn func(line string)) (detach func())

	// Modules lists the installed host extensions.
	Modules() []Module
}
