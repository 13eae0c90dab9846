package server

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/FreePeak/mcp-host-bridge/internal/domain"
	"github.com/FreePeak/mcp-host-bridge/internal/domain/shared"
)

// EventMessage is the SSE event name carrying JSON-RPC payloads.
const EventMessage = "message"

// NotificationSender pushes JSON-RPC messages to sessions by id.
type NotificationSender struct {
	sessions       domain.SessionRegistry
	jsonrpcVersion string
}

// NewNotificationSender creates a new NotificationSender.
func NewNotificationSender(sessions domain.SessionRegistry) *NotificationSender {
	return &NotificationSender{
		sessions:       sessions,
		jsonrpcVersion: shared.JSONRPCVersion,
	}
}

// SendPayload pushes an already encoded JSON-RPC message as a message event.
// A session that has gone away yields ErrSessionNotFound.
func (n *NotificationSender) SendPayload(ctx context.Context, sessionID string, payload []byte) error {
	sink, ok := n.sessions.Get(sessionID)
	if !ok {
		return ErrSessionNotFound
	}
	return sink.Send(ctx, EventMessage, string(payload))
}

// SendNotification pushes a notification with the given method and params.
func (n *NotificationSender) SendNotification(ctx context.Context, sessionID, method string, params map[string]interface{}) error {
	payload, err := json.Marshal(domain.JSONRPCNotification{
		JSONRPC: n.jsonrpcVersion,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return errors.Wrap(err, "encoding notification")
	}
	return n.SendPayload(ctx, sessionID, payload)
}
