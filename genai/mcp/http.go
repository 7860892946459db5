package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/viant/agentrt/internal/apperr"
)

// httpTransport POSTs each JSON-RPC request to url and decodes a single JSON
// response body, per §4.7's http transport.
type httpTransport struct {
	url     string
	headers map[string]string
	client  *http.Client
}

func newHTTPTransport(url string, headers map[string]string) *httpTransport {
	return &httpTransport{url: url, headers: headers, client: &http.Client{}}
}

func (t *httpTransport) RoundTrip(ctx context.Context, req Request) (Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return Response{}, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(payload))
	if err != nil {
		return Response{}, apperr.Wrap(apperr.ErrMCPRequestFailed, "mcp http: build request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range t.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return Response{}, apperr.Wrap(apperr.ErrNetwork, "mcp http: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return Response{}, apperr.Wrap(apperr.ErrMCPRequestFailed, "mcp http: read body: %v", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Response{}, &apperr.HTTPError{Status: resp.StatusCode, Body: string(body)}
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return Response{}, apperr.Wrap(apperr.ErrMCPRequestFailed, "mcp http: decode response: %v", err)
	}
	return out, nil
}

func (t *httpTransport) Close() error { return nil }
