package domain

import (
	"bytes"
	"encoding/json"
)

var nullID = json.RawMessage("null")

// JSONRPCResponse represents a JSON-RPC response. Exactly one of Result and
// Error is set.
type JSONRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *JSONRPCError   `json:"error,omitempty"`
}

// JSONRPCError represents a JSON-RPC error object.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// JSONRPCNotification is a server-initiated message that expects no reply.
type JSONRPCNotification struct {
	JSONRPC string                 `json:"jsonrpc"`
	Method  string                 `json:"method"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// Reply is the outcome of handling one inbound payload. A nil Payload means
// nothing should be sent back.
type Reply struct {
	// Method is the request method when it could be read, empty otherwise.
	Method  string
	Payload []byte
}

// HasPayload reports whether the reply carries a response.
func (r Reply) HasPayload() bool {
	return r.Payload != nil
}

// NormalizeID returns raw when it is a JSON string or number and null for
// anything else, including an absent id.
func NormalizeID(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nullID
	}
	switch c := trimmed[0]; {
	case c == '"', c == '-', c >= '0' && c <= '9':
		return trimmed
	default:
		return nullID
	}
}

// CreateResponse creates a success response echoing id.
func CreateResponse(jsonrpcVersion string, id json.RawMessage, result interface{}) JSONRPCResponse {
	return JSONRPCResponse{
		JSONRPC: jsonrpcVersion,
		ID:      NormalizeID(id),
		Result:  result,
	}
}

// CreateErrorResponse creates an error response echoing id.
func CreateErrorResponse(jsonrpcVersion string, id json.RawMessage, code int, message string) JSONRPCResponse {
	return JSONRPCResponse{
		JSONRPC: jsonrpcVersion,
		ID:      NormalizeID(id),
		Error: &JSONRPCError{
			Code:    code,
			Message: message,
		},
	}
}
