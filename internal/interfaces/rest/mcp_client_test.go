package rest

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bearerTransport adds the bridge token to every request, including the
// message posts the SSE client derives from the endpoint event.
type bearerTransport struct {
	token string
	base  http.RoundTripper
}

func (b bearerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("Authorization", "Bearer "+b.token)
	return b.base.RoundTrip(r)
}

func TestSSEWithMCPClient(t *testing.T) {
	ts, sessions := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := mcp.NewClient(&mcp.Implementation{Name: "sdk-client", Version: "0.0.1"}, nil)
	session, err := client.Connect(ctx, &mcp.SSEClientTransport{
		Endpoint:   ts.URL + "/sse",
		HTTPClient: &http.Client{Transport: bearerTransport{token: testToken, base: http.DefaultTransport}},
	}, nil)
	require.NoError(t, err)
	defer session.Close()

	assert.Equal(t, 1, sessions.Count())

	listed, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	require.Len(t, listed.Tools, 1)
	assert.Equal(t, "greet", listed.Tools[0].Name)

	result, err := session.CallTool(ctx, &mcp.CallToolParams{Name: "greet"})
	require.NoError(t, err)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Equal(t, "hello", text.Text)

	_, err = session.CallTool(ctx, &mcp.CallToolParams{Name: "missing"})
	assert.Error(t, err)

	require.NoError(t, session.Ping(ctx, nil))
}

func TestSSEWithMCPClientRejectsBadToken(t *testing.T) {
	ts, _ := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client := mcp.NewClient(&mcp.Implementation{Name: "sdk-client", Version: "0.0.1"}, nil)
	_, err := client.Connect(ctx, &mcp.SSEClientTransport{
		Endpoint:   ts.URL + "/sse",
		HTTPClient: &http.Client{Transport: bearerTransport{token: "wrong", base: http.DefaultTransport}},
	}, nil)
	assert.Error(t, err)
}
