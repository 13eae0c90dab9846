package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

const keepAliveComment = ": keepalive\n\n"

type sseEvent struct {
	name string
	data string
}

// SSEStream implements domain.EventSink on top of an http.ResponseWriter.
// Send may be called from any goroutine; only Serve writes to the response.
type SSEStream struct {
	writer    http.ResponseWriter
	flusher   http.Flusher
	queue     chan sseEvent
	done      chan struct{}
	closeOnce sync.Once
	keepAlive time.Duration
}

// NewSSEStream prepares w for event streaming.
func NewSSEStream(w http.ResponseWriter, bufferSize int, keepAlive time.Duration) (*SSEStream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrResponseWriterNotFlusher
	}
	return &SSEStream{
		writer:    w,
		flusher:   flusher,
		queue:     make(chan sseEvent, bufferSize),
		done:      make(chan struct{}),
		keepAlive: keepAlive,
	}, nil
}

// Send queues an event. It fails with ErrSessionClosed once the stream is
// closed.
func (s *SSEStream) Send(ctx context.Context, event, data string) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}

	select {
	case s.queue <- sseEvent{name: event, data: data}:
		return nil
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops Serve. The queue is left open so late senders never panic.
func (s *SSEStream) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

// Done is closed when the stream is closed.
func (s *SSEStream) Done() <-chan struct{} {
	return s.done
}

// Serve writes the event stream headers, then queued events and keepalive
// comments until ctx is done, the stream is closed or a write fails.
func (s *SSEStream) Serve(ctx context.Context) error {
	h := s.writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	s.writer.WriteHeader(http.StatusOK)
	s.flusher.Flush()

	var tick <-chan time.Time
	if s.keepAlive > 0 {
		ticker := time.NewTicker(s.keepAlive)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.done:
			return nil
		case ev := <-s.queue:
			if err := s.write(formatEvent(ev)); err != nil {
				return err
			}
		case <-tick:
			if err := s.write(keepAliveComment); err != nil {
				return err
			}
		}
	}
}

func (s *SSEStream) write(frame string) error {
	if _, err := fmt.Fprint(s.writer, frame); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// formatEvent renders ev in wire format, splitting multi-line data into
// several data fields.
func formatEvent(ev sseEvent) string {
	var sb strings.Builder
	sb.WriteString("event: ")
	sb.WriteString(ev.name)
	sb.WriteString("\n")
	for _, line := range strings.Split(ev.data, "\n") {
		sb.WriteString("data: ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	return sb.String()
}
