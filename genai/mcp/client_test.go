package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTransport answers RoundTrip from a canned set of per-method responses,
// letting Client's state machine and protocol methods be tested without a
// real subprocess or socket.
type fakeTransport struct {
	responses map[string]json.RawMessage
	errors    map[string]*RPCError
	closed    bool
}

func (f *fakeTransport) RoundTrip(ctx context.Context, req Request) (Response, error) {
	if rerr, ok := f.errors[req.Method]; ok {
		return Response{ID: req.ID, Error: rerr}, nil
	}
	return Response{ID: req.ID, Result: f.responses[req.Method]}, nil
}

func (f *fakeTransport) Close() error { f.closed = true; return nil }

func newTestClient(t *testing.T, ft *fakeTransport) *Client {
	t.Helper()
	c := NewClient(ServerSpec{ID: "srv1", Transport: "stdio"}, func(string) (string, bool) { return "", false })
	c.transport = ft
	c.state = StateConnected
	return c
}

func TestClient_ListTools(t *testing.T) {
	ft := &fakeTransport{responses: map[string]json.RawMessage{
		"tools/list": json.RawMessage(`{"tools":[{"name":"search","description":"search docs"}]}`),
	}}
	c := newTestClient(t, ft)

	tools, err := c.ListTools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, "search", tools[0].Name)
}

func TestClient_CallTool_Success(t *testing.T) {
	ft := &fakeTransport{responses: map[string]json.RawMessage{
		"tools/call": json.RawMessage(`{"content":[{"type":"text","text":"result-a"},{"type":"text","text":"result-b"}]}`),
	}}
	c := newTestClient(t, ft)

	out, err := c.CallTool(context.Background(), "search", map[string]interface{}{"q": "x"})
	require.NoError(t, err)
	assert.Equal(t, "result-aresult-b", out)
}

func TestClient_CallTool_IsErrorSurfacesAsToolExecutionError(t *testing.T) {
	ft := &fakeTransport{responses: map[string]json.RawMessage{
		"tools/call": json.RawMessage(`{"content":[{"type":"text","text":"boom"}],"isError":true}`),
	}}
	c := newTestClient(t, ft)

	_, err := c.CallTool(context.Background(), "search", nil)
	assert.Error(t, err)
}

func TestClient_Ping_RecordsFailureTowardCircuitBreaker(t *testing.T) {
	ft := &fakeTransport{errors: map[string]*RPCError{"ping": {Code: -1, Message: "unreachable"}}}
	c := newTestClient(t, ft)
	c.maxFailures = 2

	assert.Error(t, c.Ping(context.Background()))
	assert.Equal(t, StateConnected, c.State())
	assert.Error(t, c.Ping(context.Background()))
	assert.Equal(t, StateError, c.State())
}

func TestClient_Shutdown_ClosesTransportAndDisconnects(t *testing.T) {
	ft := &fakeTransport{}
	c := newTestClient(t, ft)
	require.NoError(t, c.Shutdown())
	assert.True(t, ft.closed)
	assert.Equal(t, StateDisconnected, c.State())
}

func TestBackoffDelay_GrowsAndCapsWithJitter(t *testing.T) {
	d0 := backoffDelay(0)
	assert.InDelta(t, float64(backoffBase), float64(d0), float64(backoffBase)*0.15)

	d5 := backoffDelay(5)
	assert.LessOrEqual(t, d5, backoffCap+backoffCap/10)
}
