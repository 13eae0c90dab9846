package usecases

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FreePeak/mcp-host-bridge/internal/domain"
	"github.com/FreePeak/mcp-host-bridge/internal/domain/shared"
	"github.com/FreePeak/mcp-host-bridge/internal/usecases/tools"
)

type echoTool struct{}

func (echoTool) Descriptor() domain.ToolDescriptor {
	return tools.NewTool("echo",
		tools.WithDescription("Echo the message argument"),
		tools.WithString("message", tools.Required()),
	)
}

func (echoTool) Call(_ context.Context, args map[string]interface{}) (*domain.ToolResult, error) {
	msg, ok := args["message"].(string)
	if !ok {
		return nil, domain.NewInvalidArgumentsError("missing required argument: message")
	}
	return domain.NewTextResult(msg), nil
}

type panicTool struct{}

func (panicTool) Descriptor() domain.ToolDescriptor { return tools.NewTool("explode") }

func (panicTool) Call(context.Context, map[string]interface{}) (*domain.ToolResult, error) {
	panic("tool blew up")
}

func newTestDispatcher(opts ...func(*DispatcherConfig)) *Dispatcher {
	cfg := DispatcherConfig{
		Name:    "test-bridge",
		Version: "9.9.9",
		Tools:   tools.NewRegistry(echoTool{}, panicTool{}),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewDispatcher(cfg)
}

func handle(t *testing.T, d *Dispatcher, body string) domain.Reply {
	t.Helper()
	return d.HandleMessage(context.Background(), []byte(body))
}

func TestDispatcher_Initialize(t *testing.T) {
	var seen shared.InitializeParams
	d := newTestDispatcher(func(c *DispatcherConfig) {
		c.OnInitialize = func(_ context.Context, p shared.InitializeParams) { seen = p }
	})

	reply := handle(t, d, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","clientInfo":{"name":"Cursor","version":"0.42"}}}`)

	assert.Equal(t, shared.MethodInitialize, reply.Method)
	assert.JSONEq(t, `{
		"jsonrpc":"2.0","id":1,
		"result":{
			"protocolVersion":"2024-11-05",
			"capabilities":{"tools":{"listChanged":true},"resources":{},"prompts":{}},
			"serverInfo":{"name":"test-bridge","version":"9.9.9"}
		}
	}`, string(reply.Payload))
	assert.Equal(t, "Cursor", seen.ClientInfo.Name)
}

func TestDispatcher_InitializeWithoutParams(t *testing.T) {
	reply := handle(t, newTestDispatcher(), `{"jsonrpc":"2.0","id":"init","method":"initialize"}`)
	require.True(t, reply.HasPayload())
	assert.Contains(t, string(reply.Payload), `"id":"init"`)
}

func TestDispatcher_MissingMethod(t *testing.T) {
	for _, body := range []string{
		`{"jsonrpc":"2.0","id":7}`,
		`{"jsonrpc":"2.0","id":7,"method":null}`,
		`{"jsonrpc":"2.0","id":7,"method":12}`,
		`null`,
	} {
		t.Run(body, func(t *testing.T) {
			reply := handle(t, newTestDispatcher(), body)
			assert.Empty(t, reply.Method)
			assert.JSONEq(t, `{"jsonrpc":"2.0","id":null,"error":{"code":-32600,"message":"Invalid Request"}}`, string(reply.Payload))
		})
	}
}

func TestDispatcher_ParseError(t *testing.T) {
	reply := handle(t, newTestDispatcher(), `{"jsonrpc":`)

	var resp struct {
		ID    json.RawMessage `json:"id"`
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(reply.Payload, &resp))
	assert.Equal(t, "null", string(resp.ID))
	assert.Equal(t, -32700, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "Error:")
}

func TestDispatcher_Notifications(t *testing.T) {
	d := newTestDispatcher()
	for _, body := range []string{
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","method":"notifications/cancelled","params":{"requestId":3}}`,
		`{"jsonrpc":"2.0","id":4,"method":"notifications/progress"}`,
	} {
		reply := handle(t, d, body)
		assert.False(t, reply.HasPayload(), body)
		assert.NotEmpty(t, reply.Method)
	}
}

func TestDispatcher_Listings(t *testing.T) {
	d := newTestDispatcher()

	tests := []struct {
		name string
		body string
		want string
	}{
		{"resources", `{"jsonrpc":"2.0","id":2,"method":"resources/list"}`, `{"jsonrpc":"2.0","id":2,"result":{"resources":[]}}`},
		{"prompts", `{"jsonrpc":"2.0","id":3,"method":"prompts/list"}`, `{"jsonrpc":"2.0","id":3,"result":{"prompts":[]}}`},
		{"ping", `{"jsonrpc":"2.0","id":"p","method":"ping"}`, `{"jsonrpc":"2.0","id":"p","result":{}}`},
		{"ping without id", `{"jsonrpc":"2.0","method":"ping"}`, `{"jsonrpc":"2.0","id":null,"result":{}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.JSONEq(t, tt.want, string(handle(t, d, tt.body).Payload))
		})
	}
}

func TestDispatcher_ToolsList(t *testing.T) {
	reply := handle(t, newTestDispatcher(), `{"jsonrpc":"2.0","id":5,"method":"tools/list"}`)

	var resp struct {
		Result struct {
			Tools []struct {
				Name        string                 `json:"name"`
				Description string                 `json:"description"`
				InputSchema map[string]interface{} `json:"inputSchema"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(reply.Payload, &resp))
	require.Len(t, resp.Result.Tools, 2)
	assert.Equal(t, "echo", resp.Result.Tools[0].Name)
	assert.Equal(t, "object", resp.Result.Tools[0].InputSchema["type"])
	assert.Equal(t, []interface{}{"message"}, resp.Result.Tools[0].InputSchema["required"])
}

func TestDispatcher_ToolsCall(t *testing.T) {
	reply := handle(t, newTestDispatcher(), `{"jsonrpc":"2.0","id":6,"method":"tools/call","params":{"name":"echo","arguments":{"message":"hi"}}}`)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":6,"result":{"content":[{"type":"text","text":"hi"}]}}`, string(reply.Payload))
}

func TestDispatcher_ToolsCallErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"unknown tool", `{"jsonrpc":"2.0","id":8,"method":"tools/call","params":{"name":"teleport"}}`, "Error: Unknown tool: teleport"},
		{"missing params", `{"jsonrpc":"2.0","id":8,"method":"tools/call"}`, "Error: missing params"},
		{"missing name", `{"jsonrpc":"2.0","id":8,"method":"tools/call","params":{}}`, "Error: missing tool name"},
		{"arguments default to empty", `{"jsonrpc":"2.0","id":8,"method":"tools/call","params":{"name":"echo"}}`, "Error: missing required argument: message"},
		{"panicking tool", `{"jsonrpc":"2.0","id":8,"method":"tools/call","params":{"name":"explode"}}`, "Error: tool blew up"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := handle(t, newTestDispatcher(), tt.body)

			var resp domain.JSONRPCResponse
			require.NoError(t, json.Unmarshal(reply.Payload, &resp))
			require.NotNil(t, resp.Error)
			assert.Nil(t, resp.Result)
			assert.Equal(t, "8", string(resp.ID))
			assert.Equal(t, -32700, resp.Error.Code)
			assert.Equal(t, tt.message, resp.Error.Message)
		})
	}
}

func TestDispatcher_MethodNotFound(t *testing.T) {
	reply := handle(t, newTestDispatcher(), `{"jsonrpc":"2.0","id":"x","method":"sampling/createMessage"}`)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":"x","error":{"code":-32601,"message":"Method not found: sampling/createMessage"}}`, string(reply.Payload))
}

func TestDispatcher_IDEchoedVerbatim(t *testing.T) {
	d := newTestDispatcher()
	for _, id := range []string{`1`, `"abc"`, `12345678901234567890`, `null`} {
		reply := handle(t, d, `{"jsonrpc":"2.0","id":`+id+`,"method":"ping"}`)
		var resp domain.JSONRPCResponse
		require.NoError(t, json.Unmarshal(reply.Payload, &resp))
		assert.Equal(t, id, string(resp.ID))
	}
}
