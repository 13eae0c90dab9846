package server

import (
	"sync"

	"github.com/google/uuid"

	"github.com/FreePeak/mcp-host-bridge/internal/domain"
)

// SessionRegistry implements domain.SessionRegistry with a mutex-guarded map
// keyed by random UUIDs.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]domain.EventSink
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]domain.EventSink),
	}
}

// Create registers sink under a new session id.
func (r *SessionRegistry) Create(sink domain.EventSink) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.NewString()
	r.sessions[id] = sink
	return id
}

// Get retrieves the sink registered under id.
func (r *SessionRegistry) Get(id string) (domain.EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sink, ok := r.sessions[id]
	return sink, ok
}

// Remove deletes id. Only the call that actually removed the entry gets true.
func (r *SessionRegistry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	return true
}

// CloseAll closes all active sessions.
func (r *SessionRegistry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]domain.EventSink)
	r.mu.Unlock()

	for _, sink := range sessions {
		sink.Close()
	}
}

// Count returns the number of active sessions.
func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
