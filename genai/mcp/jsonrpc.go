// Package mcp implements MCPClient (C7): a per-server JSON-RPC 2.0 client
// speaking initialize/tools-list/tools-call/ping over stdio, http or sse
// transports. Grounded on the teacher's per-server client pooling in
// internal/mcp/manager.Manager (mutex-protected entries, idle reaping) and on
// genai/sse.Decoder for the sse transport's frame decoding.
package mcp

import "encoding/json"

// Request is a JSON-RPC 2.0 request envelope.
type Request struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      int64       `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// Response is a JSON-RPC 2.0 response envelope; exactly one of Result/Error
// is populated for a given ID.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *RPCError) Error() string { return e.Message }

// ToolDescriptor is a tool's advertised shape from tools/list.
type ToolDescriptor struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	InputSchema map[string]interface{} `json:"inputSchema,omitempty"`
}

// ToolName and ToolDescription/ToolSchema satisfy the llmToolDefinitionLike
// interface genai/tool/declare.go expects for provider tool declarations.
func (t ToolDescriptor) ToolName() string                     { return t.Name }
func (t ToolDescriptor) ToolDescription() string               { return t.Description }
func (t ToolDescriptor) ToolSchema() map[string]interface{}   { return t.InputSchema }

type initializeParams struct {
	ProtocolVersion string                 `json:"protocolVersion"`
	ClientInfo      clientInfo             `json:"clientInfo"`
	Capabilities    map[string]interface{} `json:"capabilities"`
}

type clientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type toolsListResult struct {
	Tools []ToolDescriptor `json:"tools"`
}

type toolsCallParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments,omitempty"`
}

type toolsCallResult struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	IsError bool `json:"isError,omitempty"`
}
