package domain

import (
	"context"
)

// EventSink is the push side of a server-sent events session.
type EventSink interface {
	// Send queues an event for delivery. It blocks until the event is queued,
	// the sink is closed or ctx is done.
	Send(ctx context.Context, event, data string) error

	// Close terminates the stream. It is safe to call more than once.
	Close()

	// Done is closed once the sink has been closed.
	Done() <-chan struct{}
}

// SessionRegistry tracks active push-channel sessions by identifier.
type SessionRegistry interface {
	// Create registers sink under a freshly generated id.
	Create(sink EventSink) string

	// Get looks up the sink for id.
	Get(id string) (EventSink, bool)

	// Remove drops id and reports whether this call removed it.
	Remove(id string) bool

	// CloseAll closes and removes every session.
	CloseAll()

	// Count returns the number of active sessions.
	Count() int
}

// MessageHandler turns one raw JSON-RPC payload into a Reply.
type MessageHandler interface {
	HandleMessage(ctx context.Context, raw []byte) Reply
}
