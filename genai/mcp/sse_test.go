package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sseServer fakes an MCP sse endpoint: the GET stream emits an "endpoint"
// event pointing back at its own /rpc path, then echoes any posted request
// back over the stream as its response.
func newSSEServer(t *testing.T) *httptest.Server {
	t.Helper()
	respCh := make(chan Response, 8)

	mux := http.NewServeMux()
	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		f, ok := w.(http.Flusher)
		require.True(t, ok)
		fmt.Fprintf(w, "event: endpoint\ndata: /rpc\n\n")
		f.Flush()
		for {
			select {
			case resp := <-respCh:
				data, _ := json.Marshal(resp)
				fmt.Fprintf(w, "data: %s\n\n", data)
				f.Flush()
			case <-r.Context().Done():
				return
			}
		}
	})
	mux.HandleFunc("/rpc", func(w http.ResponseWriter, r *http.Request) {
		reader := bufio.NewReader(r.Body)
		body := make([]byte, r.ContentLength)
		_, _ = reader.Read(body)
		var req Request
		_ = json.Unmarshal(body, &req)
		w.WriteHeader(http.StatusAccepted)
		respCh <- Response{JSONRPC: "2.0", ID: req.ID, Result: json.RawMessage(`{"tools":[]}`)}
	})
	return httptest.NewServer(mux)
}

func TestSSETransport_RoundTrip(t *testing.T) {
	srv := newSSEServer(t)
	defer srv.Close()

	tr := newSSETransport(srv.URL+"/events", nil)
	defer tr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := tr.RoundTrip(ctx, Request{JSONRPC: "2.0", ID: 7, Method: "tools/list"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), resp.ID)
	assert.Nil(t, resp.Error)
}

func TestSSETransport_RoundTripTimesOutWaitingForEndpoint(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		<-r.Context().Done()
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	tr := newSSETransport(srv.URL+"/events", nil)
	defer tr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := tr.RoundTrip(ctx, Request{JSONRPC: "2.0", ID: 1, Method: "ping"})
	assert.Error(t, err)
}
