package mcp

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPTransport_RoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		var req Request
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "tools/list", req.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":` + strconv.FormatInt(req.ID, 10) + `,"result":{"tools":[]}}`))
	}))
	defer srv.Close()

	tr := newHTTPTransport(srv.URL, map[string]string{"Authorization": "Bearer tok"})
	resp, err := tr.RoundTrip(t.Context(), Request{JSONRPC: "2.0", ID: 1, Method: "tools/list"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.ID)
	assert.Nil(t, resp.Error)
}

func TestHTTPTransport_NonOKStatusReturnsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	tr := newHTTPTransport(srv.URL, nil)
	_, err := tr.RoundTrip(t.Context(), Request{JSONRPC: "2.0", ID: 1, Method: "ping"})
	assert.Error(t, err)
}

