package testutil

import (
	"context"
	"sync"

	"github.com/FreePeak/mcp-host-bridge/internal/domain"
)

// ConsoleSender is the sender FakeHost hands out as its console.
type ConsoleSender struct {
	mu       sync.Mutex
	Messages []string
}

// Name implements domain.CommandSender.
func (c *ConsoleSender) Name() string {
	return "CONSOLE"
}

// SendMessage implements domain.CommandSender.
func (c *ConsoleSender) SendMessage(message string) {
	c.mu.Lock()
	c.Messages = append(c.Messages, message)
	c.mu.Unlock()
}

// FakeHost implements domain.Host with a goroutine that runs submitted tasks
// in order. DispatchFunc decides what a command does; it receives the host so
// it can Log lines to attached listeners.
type FakeHost struct {
	DispatchFunc func(h *FakeHost, sender domain.CommandSender, command string) error
	ModuleList   []domain.Module

	// Stall, when set, makes Submit accept tasks without ever running them.
	Stall bool

	Console *ConsoleSender

	mu         sync.Mutex
	listeners  map[int]func(string)
	nextID     int
	dispatched []string
	senders    []string

	tasks chan func()
	once  sync.Once
}

// NewFakeHost creates a FakeHost. Call Close when done.
func NewFakeHost() *FakeHost {
	return &FakeHost{
		Console:   &ConsoleSender{},
		listeners: make(map[int]func(string)),
		tasks:     make(chan func(), 64),
	}
}

func (h *FakeHost) start() {
	h.once.Do(func() {
		go func() {
			for task := range h.tasks {
				task()
			}
		}()
	})
}

// Submit implements domain.Host.
func (h *FakeHost) Submit(task func()) error {
	if h.Stall {
		return nil
	}
	h.start()
	h.tasks <- task
	return nil
}

// Dispatch implements domain.Host.
func (h *FakeHost) Dispatch(sender domain.CommandSender, command string) error {
	h.mu.Lock()
	h.dispatched = append(h.dispatched, command)
	h.senders = append(h.senders, sender.Name())
	h.mu.Unlock()

	if h.DispatchFunc == nil {
		return nil
	}
	return h.DispatchFunc(h, sender, command)
}

// ConsoleSender implements domain.Host.
func (h *FakeHost) ConsoleSender() domain.CommandSender {
	return h.Console
}

// AttachLogListener implements domain.Host.
func (h *FakeHost) AttachLogListener(fn func(line string)) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.listeners[id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.listeners, id)
		h.mu.Unlock()
	}
}

// Modules implements domain.Host.
func (h *FakeHost) Modules() []domain.Module {
	return h.ModuleList
}

// Log delivers line to every attached listener.
func (h *FakeHost) Log(line string) {
	h.mu.Lock()
	fns := make([]func(string), 0, len(h.listeners))
	for _, fn := range h.listeners {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(line)
	}
}

// Dispatched returns the commands seen so far.
func (h *FakeHost) Dispatched() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.dispatched...)
}

// Senders returns the sender name used for each dispatch.
func (h *FakeHost) Senders() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.senders...)
}

// ListenerCount returns the number of attached log listeners.
func (h *FakeHost) ListenerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners)
}

// Close stops the task goroutine.
func (h *FakeHost) Close() {
	h.start()
	close(h.tasks)
}

// Event is one event captured by RecordingSink.
type Event struct {
	Name string
	Data string
}

// RecordingSink implements domain.EventSink by keeping events in memory.
type RecordingSink struct {
	mu     sync.Mutex
	events []Event
	done   chan struct{}
	once   sync.Once

	// Notify, when non-nil, receives every event after it is recorded.
	Notify chan Event
}

// NewRecordingSink creates an open RecordingSink.
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{done: make(chan struct{})}
}

// Send implements domain.EventSink.
func (s *RecordingSink) Send(ctx context.Context, event, data string) error {
	select {
	case <-s.done:
		return context.Canceled
	default:
	}
	s.mu.Lock()
	s.events = append(s.events, Event{Name: event, Data: data})
	s.mu.Unlock()
	if s.Notify != nil {
		s.Notify <- Event{Name: event, Data: data}
	}
	return nil
}

// Close implements domain.EventSink.
func (s *RecordingSink) Close() {
	s.once.Do(func() { close(s.done) })
}

// Done implements domain.EventSink.
func (s *RecordingSink) Done() <-chan struct{} {
	return s.done
}

// Events returns a copy of the recorded events.
func (s *RecordingSink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}
