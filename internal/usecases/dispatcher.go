// Package usecases implements the JSON-RPC method handling of the bridge.
package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/FreePeak/mcp-host-bridge/internal/domain"
	"github.com/FreePeak/mcp-host-bridge/internal/domain/shared"
	"github.com/FreePeak/mcp-host-bridge/internal/infrastructure/logging"
)

// ToolCatalog is the tool registry as seen by the dispatcher.
type ToolCatalog interface {
	List() []domain.ToolDescriptor
	Invoke(ctx context.Context, name string, args map[string]interface{}) (*domain.ToolResult, error)
}

// DispatcherConfig contains configuration for the Dispatcher.
type DispatcherConfig struct {
	Name    string
	Version string
	Tools   ToolCatalog
	Logger  *logging.Logger

	// OnInitialize, when set, is called with the client's handshake params.
	OnInitialize func(ctx context.Context, params shared.InitializeParams)
}

// Dispatcher parses JSON-RPC payloads, routes them and encodes the reply.
// It keeps no per-session state and is safe for concurrent use.
type Dispatcher struct {
	info         shared.ServerInfo
	tools        ToolCatalog
	logger       *logging.Logger
	onInitialize func(ctx context.Context, params shared.InitializeParams)
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(config DispatcherConfig) *Dispatcher {
	logger := config.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{
		info:         shared.ServerInfo{Name: config.Name, Version: config.Version},
		tools:        config.Tools,
		logger:       logger.Named("dispatcher"),
		onInitialize: config.OnInitialize,
	}
}

// ServerInfo returns the name and version announced to clients.
func (d *Dispatcher) ServerInfo() shared.ServerInfo {
	return d.info
}

// HandleMessage implements domain.MessageHandler.
func (d *Dispatcher) HandleMessage(ctx context.Context, raw []byte) (reply domain.Reply) {
	var id json.RawMessage

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("panic while handling message", logging.Fields{
				"method": reply.Method,
				"panic":  fmt.Sprint(r),
			})
			reply.Payload = d.encodeError(id, shared.ParseError, fmt.Sprintf("Error: %v", r))
		}
	}()

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return domain.Reply{Payload: d.encodeError(nil, shared.ParseError, "Error: "+err.Error())}
	}

	method, ok := readMethod(envelope)
	if !ok {
		return domain.Reply{Payload: d.encodeError(nil, shared.InvalidRequest, "Invalid Request")}
	}
	reply.Method = method
	id = envelope["id"]

	d.logger.Debug("handling request", logging.Fields{"method": method, "id": string(domain.NormalizeID(id))})

	result, respond, err := d.route(ctx, method, envelope["params"])
	var notFound errMethodNotFound
	switch {
	case errors.As(err, &notFound):
		reply.Payload = d.encodeError(id, shared.MethodNotFound, notFound.Error())
	case err != nil:
		reply.Payload = d.encodeError(id, shared.ParseError, "Error: "+err.Error())
	case !respond:
		reply.Payload = nil
	default:
		reply.Payload = d.encode(domain.CreateResponse(shared.JSONRPCVersion, id, result))
	}
	return reply
}

// readMethod extracts a string method. Absent, null and non-string values
// all count as missing.
func readMethod(envelope map[string]json.RawMessage) (string, bool) {
	raw, ok := envelope["method"]
	if !ok || string(raw) == "null" {
		return "", false
	}
	var method string
	if err := json.Unmarshal(raw, &method); err != nil {
		return "", false
	}
	return method, true
}

// errMethodNotFound carries the -32601 case out of route.
type errMethodNotFound struct{ method string }

func (e errMethodNotFound) Error() string { return "Method not found: " + e.method }

// route returns the result to send, whether anything should be sent at all,
// and any handler error.
func (d *Dispatcher) route(ctx context.Context, method string, params json.RawMessage) (interface{}, bool, error) {
	switch method {
	case shared.MethodInitialize:
		return d.initialize(ctx, params), true, nil
	case shared.MethodNotificationsInitialized:
		return nil, false, nil
	case shared.MethodListTools:
		return shared.ListToolsResult{Tools: d.tools.List()}, true, nil
	case shared.MethodListResources:
		return shared.ListResourcesResult{Resources: []interface{}{}}, true, nil
	case shared.MethodListPrompts:
		return shared.ListPromptsResult{Prompts: []interface{}{}}, true, nil
	case shared.MethodCallTool:
		result, err := d.callTool(ctx, params)
		if err != nil {
			return nil, true, err
		}
		return result, true, nil
	case shared.MethodPing:
		return struct{}{}, true, nil
	}

	if shared.IsNotification(method) {
		return nil, false, nil
	}
	return nil, true, errMethodNotFound{method: method}
}

func (d *Dispatcher) initialize(ctx context.Context, params json.RawMessage) shared.InitializeResult {
	var p shared.InitializeParams
	if len(params) > 0 {
		// The handshake is lenient: unreadable params still get an answer.
		_ = json.Unmarshal(params, &p)
	}
	d.logger.Info("client initialized", logging.Fields{
		"client":           p.ClientInfo.Name,
		"client_version":   p.ClientInfo.Version,
		"protocol_version": p.ProtocolVersion,
	})
	if d.onInitialize != nil {
		d.onInitialize(ctx, p)
	}
	return shared.NewInitializeResult(d.info)
}

func (d *Dispatcher) callTool(ctx context.Context, params json.RawMessage) (*domain.ToolResult, error) {
	if len(params) == 0 || string(params) == "null" {
		return nil, errors.New("missing params")
	}
	var p shared.CallToolParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, errors.Wrap(err, "invalid params")
	}
	if p.Name == nil {
		return nil, errors.New("missing tool name")
	}

	start := time.Now()
	result, err := d.tools.Invoke(ctx, *p.Name, p.Arguments)
	fields := logging.Fields{
		"tool":     *p.Name,
		"duration": time.Since(start).String(),
	}
	if err != nil {
		fields["error"] = err
		if kind := domain.ToolErrorKind(err); kind != 0 {
			fields["kind"] = kind.String()
		}
		d.logger.Warn("tool call failed", fields)
		return nil, err
	}
	d.logger.Info("tool call completed", fields)
	return result, nil
}

func (d *Dispatcher) encodeError(id json.RawMessage, code shared.ErrorCode, message string) []byte {
	return d.encode(domain.CreateErrorResponse(shared.JSONRPCVersion, id, code.Int(), message))
}

// encode marshals a response. Results are built from plain structs, so a
// failure here means a tool returned something unencodable.
func (d *Dispatcher) encode(resp domain.JSONRPCResponse) []byte {
	data, err := json.Marshal(resp)
	if err == nil {
		return data
	}
	d.logger.Error("encoding response failed", logging.Fields{"error": err})
	data, _ = json.Marshal(domain.CreateErrorResponse(shared.JSONRPCVersion, resp.ID, shared.ParseError.Int(), "Error: "+err.Error()))
	return data
}
