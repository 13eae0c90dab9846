package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"

	"github.com/FreePeak/mcp-host-bridge/internal/domain/shared"
	"github.com/FreePeak/mcp-host-bridge/internal/infrastructure/logging"
	"github.com/FreePeak/mcp-host-bridge/internal/infrastructure/server"
)

// handleSSE opens a push channel and holds it until the peer goes away or
// the server shuts down.
func (s *MCPServer) handleSSE(w http.ResponseWriter, r *http.Request) {
	stream, err := server.NewSSEStream(w, s.config.EventBufferSize, s.config.KeepAliveInterval)
	if err != nil {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	id := s.sessions.Create(stream)
	logger := logging.FromContext(r.Context()).With(logging.Fields{"session": id})
	defer func() {
		stream.Close()
		if s.sessions.Remove(id) {
			logger.Info("session closed", logging.Fields{"active": s.sessions.Count()})
		}
	}()
	logger.Info("session opened", logging.Fields{"active": s.sessions.Count()})

	if err := stream.Send(r.Context(), "endpoint", MessagesPath+"?sessionId="+id); err != nil {
		return
	}
	if err := stream.Serve(r.Context()); err != nil {
		logger.Debug("event stream write failed", logging.Fields{"error": err})
	}
}

// handleMessages dispatches a POST for an SSE session and pushes the reply
// over that session's channel.
func (s *MCPServer) handleMessages(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		http.Error(w, "Invalid or missing sessionId", http.StatusBadRequest)
		return
	}
	if _, ok := s.sessions.Get(sessionID); !ok {
		http.Error(w, "Invalid or missing sessionId", http.StatusBadRequest)
		return
	}

	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	reply := s.handler.HandleMessage(r.Context(), body)

	// Delivery outlives the POST; the client may hang up right after 202.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), deliveryTimeout)
	defer cancel()

	if reply.HasPayload() {
		s.logDelivery(r.Context(), sessionID, s.notifier.SendPayload(ctx, sessionID, reply.Payload))
	}
	if reply.Method == shared.MethodInitialize {
		s.logDelivery(r.Context(), sessionID,
			s.notifier.SendNotification(ctx, sessionID, shared.MethodNotificationsToolsListChange, nil))
	}

	w.WriteHeader(http.StatusAccepted)
	_, _ = io.WriteString(w, "Accepted")
}

// logDelivery records a failed push. A vanished session is not an error for
// the caller.
func (s *MCPServer) logDelivery(ctx context.Context, sessionID string, err error) {
	if err == nil {
		return
	}
	logger := logging.FromContext(ctx)
	if errors.Is(err, server.ErrSessionNotFound) || errors.Is(err, server.ErrSessionClosed) {
		logger.Debug("dropping event for closed session", logging.Fields{"session": sessionID})
		return
	}
	logger.Warn("event delivery failed", logging.Fields{"session": sessionID, "error": err})
}

// handleAPI is the synchronous surface: 200 with the reply or 204.
func (s *MCPServer) handleAPI(w http.ResponseWriter, r *http.Request) {
	s.dispatchInline(w, r, http.StatusNoContent)
}

// handleMCPPost behaves like /api but answers notifications with 202.
func (s *MCPServer) handleMCPPost(w http.ResponseWriter, r *http.Request) {
	s.dispatchInline(w, r, http.StatusAccepted)
}

func (s *MCPServer) dispatchInline(w http.ResponseWriter, r *http.Request, emptyStatus int) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	reply := s.handler.HandleMessage(r.Context(), body)
	if !reply.HasPayload() {
		w.WriteHeader(emptyStatus)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(reply.Payload)
}

// handleMCPDiscovery serves the static descriptor older clients probe for.
func (s *MCPServer) handleMCPDiscovery(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, shared.DiscoveryDescriptor{
		Name:      s.config.Info.Name,
		Version:   s.config.Info.Version,
		Transport: shared.TransportStreamableHTTP,
	})
}

func (s *MCPServer) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"name":     s.config.Info.Name,
		"version":  s.config.Info.Version,
		"protocol": shared.ProtocolVersion,
		"sessions": s.sessions.Count(),
		"tools":    s.config.ToolCount,
	})
}

// readBody reads the whole request body within the configured limit. It
// writes the error response itself and reports false on failure.
func (s *MCPServer) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return nil, false
		}
		http.Error(w, "Error reading request body", http.StatusBadRequest)
		return nil, false
	}
	return body, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
