package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"

	"github.com/viant/agentrt/genai/sse"
	"github.com/viant/agentrt/internal/apperr"
)

// sseTransport opens a long-lived SSE GET and decodes it with genai/sse,
// sending outgoing requests via POST to the companion URL the server
// advertises in its first "endpoint" event, per §4.7's sse transport.
type sseTransport struct {
	baseURL string
	headers map[string]string
	client  *http.Client

	ready     chan struct{}
	readyOnce sync.Once
	endpoint  string

	mu      sync.Mutex
	pending map[int64]chan Response
	closed  bool
	cancel  context.CancelFunc
}

func newSSETransport(baseURL string, headers map[string]string) *sseTransport {
	ctx, cancel := context.WithCancel(context.Background())
	t := &sseTransport{
		baseURL: baseURL,
		headers: headers,
		client:  &http.Client{},
		ready:   make(chan struct{}),
		pending: make(map[int64]chan Response),
		cancel:  cancel,
	}
	go t.readLoop(ctx)
	return t
}

func (t *sseTransport) readLoop(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL, nil)
	if err != nil {
		return
	}
	req.Header.Set("Accept", "text/event-stream")
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	resp, err := t.client.Do(req)
	if err != nil {
		t.failAllPending(apperr.Wrap(apperr.ErrNetwork, "mcp sse: connect: %v", err))
		return
	}
	defer resp.Body.Close()

	for frame := range sse.Decode(ctx, resp.Body) {
		switch frame.Event {
		case "endpoint":
			t.setEndpoint(frame.Data)
		default:
			var out Response
			if err := json.Unmarshal([]byte(frame.Data), &out); err != nil {
				continue
			}
			t.mu.Lock()
			ch, ok := t.pending[out.ID]
			if ok {
				delete(t.pending, out.ID)
			}
			t.mu.Unlock()
			if ok {
				ch <- out
			}
		}
	}
	t.failAllPending(apperr.Wrap(apperr.ErrConnectionClosed, "mcp sse: stream ended"))
}

func (t *sseTransport) setEndpoint(raw string) {
	endpoint := raw
	if u, err := url.Parse(raw); err == nil && !u.IsAbs() {
		if base, err := url.Parse(t.baseURL); err == nil {
			endpoint = base.ResolveReference(u).String()
		}
	}
	t.endpoint = endpoint
	t.readyOnce.Do(func() { close(t.ready) })
}

func (t *sseTransport) failAllPending(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, ch := range t.pending {
		ch <- Response{ID: id, Error: &RPCError{Code: -32000, Message: err.Error()}}
		delete(t.pending, id)
	}
}

func (t *sseTransport) RoundTrip(ctx context.Context, req Request) (Response, error) {
	select {
	case <-t.ready:
	case <-ctx.Done():
		return Response{}, apperr.Wrap(apperr.ErrTimeout, "mcp sse: %v", ctx.Err())
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return Response{}, apperr.Wrap(apperr.ErrConnectionClosed, "mcp sse: connection closed")
	}
	ch := make(chan Response, 1)
	t.pending[req.ID] = ch
	t.mu.Unlock()

	payload, err := json.Marshal(req)
	if err != nil {
		return Response{}, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Response{}, apperr.Wrap(apperr.ErrMCPRequestFailed, "mcp sse: build post: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range t.headers {
		httpReq.Header.Set(k, v)
	}
	resp, err := t.client.Do(httpReq)
	if err != nil {
		t.mu.Lock()
		delete(t.pending, req.ID)
		t.mu.Unlock()
		return Response{}, apperr.Wrap(apperr.ErrNetwork, "mcp sse: post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		t.mu.Lock()
		delete(t.pending, req.ID)
		t.mu.Unlock()
		return Response{}, &apperr.HTTPError{Status: resp.StatusCode}
	}

	select {
	case out := <-ch:
		return out, nil
	case <-ctx.Done():
		t.mu.Lock()
		delete(t.pending, req.ID)
		t.mu.Unlock()
		return Response{}, apperr.Wrap(apperr.ErrTimeout, "mcp sse: %v", ctx.Err())
	}
}

func (t *sseTransport) Close() error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	t.cancel()
	return nil
}
