package mcp

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/viant/agentrt/internal/apperr"
)

// State is a connection's position in the lifecycle state machine of §4.7.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateError        State = "error"
)

const (
	protocolVersion        = "2025-06-18"
	clientName              = "agentrt"
	clientVersion           = "1.0"
	defaultRequestTimeout   = 30 * time.Second
	defaultMaxFailures      = 3
	backoffBase             = time.Second
	backoffFactor           = 2
	backoffCap              = 60 * time.Second
)

// Client is a single MCP server connection: transport plumbing plus the
// initialize/tools-list/tools-call/ping protocol methods and the
// DISCONNECTED -> CONNECTING -> CONNECTED -> (ERROR -> CONNECTING*) ->
// DISCONNECTED lifecycle of §4.7.
type Client struct {
	spec    ServerSpec
	lookupEnv func(string) (string, bool)

	mu          sync.RWMutex
	state       State
	transport   Transport
	failures    int
	maxFailures int
	lastError   error

	nextID atomic.Int64

	// OnStateChange, when set, is called with every state transition, feeding
	// MCPRegistry's {server_status_changed} event.
	OnStateChange func(State)
}

// NewClient constructs a disconnected Client for spec. lookupEnv resolves
// $VAR references in Env/Headers, normally os.LookupEnv.
func NewClient(spec ServerSpec, lookupEnv func(string) (string, bool)) *Client {
	if spec.Timeout <= 0 {
		spec.Timeout = 30
	}
	return &Client{spec: spec, lookupEnv: lookupEnv, state: StateDisconnected, maxFailures: defaultMaxFailures}
}

func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	cb := c.OnStateChange
	c.mu.Unlock()
	if cb != nil {
		cb(s)
	}
}

// Start transitions DISCONNECTED -> CONNECTING, opens the transport and sends
// initialize; on success the connection moves to CONNECTED.
func (c *Client) Start(ctx context.Context) error {
	c.setState(StateConnecting)
	transport, err := NewTransport(c.spec, c.lookupEnv)
	if err != nil {
		c.recordFailure(err)
		return err
	}
	c.mu.Lock()
	c.transport = transport
	c.mu.Unlock()

	if _, err := c.call(ctx, "initialize", initializeParams{
		ProtocolVersion: protocolVersion,
		ClientInfo:      clientInfo{Name: clientName, Version: clientVersion},
		Capabilities:    map[string]interface{}{},
	}); err != nil {
		c.recordFailure(err)
		return err
	}

	c.mu.Lock()
	c.failures = 0
	c.lastError = nil
	c.mu.Unlock()
	c.setState(StateConnected)
	return nil
}

func (c *Client) recordFailure(err error) {
	c.mu.Lock()
	c.failures++
	c.lastError = err
	failures, max := c.failures, c.maxFailures
	c.mu.Unlock()
	if failures >= max {
		c.setState(StateError)
	}
}

// LastError returns the most recent failure recorded by Ping/Start, if any.
func (c *Client) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastError
}

// Reconnect implements the ERROR -> CONNECTING* backoff loop: exponential
// backoff with base 1s, factor 2, cap 60s and +/-10% jitter, per §4.7.
func (c *Client) Reconnect(ctx context.Context) error {
	c.mu.Lock()
	attempt := c.failures
	c.mu.Unlock()
	delay := backoffDelay(attempt)
	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return ctx.Err()
	}
	return c.Start(ctx)
}

func backoffDelay(attempt int) time.Duration {
	d := backoffBase
	for i := 0; i < attempt; i++ {
		d *= backoffFactor
		if d > backoffCap {
			d = backoffCap
			break
		}
	}
	jitter := time.Duration(float64(d) * 0.1 * (rand.Float64()*2 - 1))
	d += jitter
	if d < 0 {
		d = backoffBase
	}
	return d
}

// Ping sends a liveness check; a failure is recorded toward the circuit
// breaker's consecutive-failure count.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.call(ctx, "ping", nil)
	if err != nil {
		c.recordFailure(err)
		return err
	}
	c.mu.Lock()
	c.failures = 0
	c.mu.Unlock()
	return nil
}

// ListTools calls tools/list and returns the server's advertised tools.
func (c *Client) ListTools(ctx context.Context) ([]ToolDescriptor, error) {
	raw, err := c.call(ctx, "tools/list", nil)
	if err != nil {
		return nil, err
	}
	var result toolsListResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, apperr.Wrap(apperr.ErrMCPRequestFailed, "mcp: decode tools/list: %v", err)
	}
	return result.Tools, nil
}

// CallTool invokes name with args via tools/call, flattening the result's
// text content blocks into a single string; isError responses surface as
// ErrToolExecution.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]interface{}) (string, error) {
	raw, err := c.call(ctx, "tools/call", toolsCallParams{Name: name, Arguments: args})
	if err != nil {
		return "", err
	}
	var result toolsCallResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", apperr.Wrap(apperr.ErrMCPRequestFailed, "mcp: decode tools/call: %v", err)
	}
	var text string
	for _, block := range result.Content {
		text += block.Text
	}
	if result.IsError {
		return "", apperr.Wrap(apperr.ErrToolExecution, "%s", text)
	}
	return text, nil
}

func (c *Client) call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	c.mu.RLock()
	transport := c.transport
	c.mu.RUnlock()
	if transport == nil {
		return nil, apperr.Wrap(apperr.ErrConnectionClosed, "mcp: %s not connected", c.spec.ID)
	}

	timeout := time.Duration(c.spec.Timeout) * time.Second
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req := Request{JSONRPC: "2.0", ID: c.nextID.Add(1), Method: method, Params: params}
	resp, err := transport.RoundTrip(callCtx, req)
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, apperr.Wrap(apperr.ErrMCPRequestFailed, "mcp %s: %s", method, resp.Error.Message)
	}
	return resp.Result, nil
}

// Shutdown closes the transport and moves to DISCONNECTED.
func (c *Client) Shutdown() error {
	c.mu.Lock()
	transport := c.transport
	c.transport = nil
	c.mu.Unlock()
	c.setState(StateDisconnected)
	if transport == nil {
		return nil
	}
	return transport.Close()
}
