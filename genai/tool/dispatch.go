package tool

import (
	"context"
	"encoding/json"
	"time"

	"github.com/viant/agentrt/genai/conversation"
	"github.com/viant/agentrt/genai/llm"
	"github.com/viant/agentrt/internal/apperr"
)

// SessionContext is the subset of Session state the dispatcher needs.
type SessionContext struct {
	WorkingDir string
}

// MCPDispatcher routes a tool call resolved to an MCP server to that
// server's tools/call method. Implemented by genai/mcp/registry.Registry;
// declared here to avoid an import cycle (tool <- mcp <- tool).
type MCPDispatcher interface {
	// Resolve returns the server id a (possibly namespace-prefixed) tool
	// name belongs to, and whether it recognizes the name at all.
	Resolve(toolName string) (serverID string, ok bool)
	CallTool(ctx context.Context, serverID, toolName string, args map[string]interface{}) (string, error)
}

// Dispatch implements dispatch(tool_call, session_ctx) -> ToolResult (§4.6):
// built-ins run against the registry directly; anything else is routed
// through mcpDispatcher when one is configured. Built-ins work in the
// directory they were registered with; session is not read.
func (r *Registry) Dispatch(ctx context.Context, call llm.ToolCall, session SessionContext, mcpDispatcher MCPDispatcher) Result {
	args := call.Arguments
	if args == nil {
		args = map[string]interface{}{}
	}
	startedAt := time.Now()

	if _, ok := r.GetDefinition(call.Name); ok {
		out, err := r.Execute(ctx, call.Name, args)
		res := Result{ID: call.ID, Name: call.Name, Args: args, Output: out, Err: err}
		r.recordCall(ctx, call.Name, args, res, startedAt)
		return res
	}

	if mcpDispatcher != nil {
		if serverID, ok := mcpDispatcher.Resolve(call.Name); ok {
			out, err := mcpDispatcher.CallTool(ctx, serverID, call.Name, args)
			res := Result{ID: call.ID, Name: call.Name, Args: args, Output: out, Err: err}
			r.recordCall(ctx, call.Name, args, res, startedAt)
			return res
		}
	}

	res := Result{ID: call.ID, Name: call.Name, Args: args, Err: apperr.Wrap(apperr.ErrToolExecution, "tool %q not registered", call.Name)}
	r.recordCall(ctx, call.Name, args, res, startedAt)
	return res
}

// recordCall persists one tool invocation into tool-execution history when a
// DAO is attached. Errors from the DAO itself are not propagated: history is
// best-effort and must never fail the turn that produced it.
func (r *Registry) recordCall(ctx context.Context, name string, args map[string]interface{}, res Result, startedAt time.Time) {
	if r.dao == nil {
		return
	}
	finishedAt := time.Now()
	argsJSON, _ := json.Marshal(args)
	argsStr := string(argsJSON)
	rec := &Call{
		ConversationID: conversation.ID(ctx),
		ToolName:       name,
		Arguments:      &argsStr,
		StartedAt:      &startedAt,
		FinishedAt:     &finishedAt,
	}
	succeeded := res.Err == nil
	rec.Succeeded = &succeeded
	if res.Err != nil {
		msg := res.Err.Error()
		rec.ErrorMsg = &msg
	} else {
		out := res.Output
		rec.Result = &out
	}
	_ = r.dao.Add(ctx, rec)
}

// DispatchRaw parses a wire-format CanonicalToolCall (arguments as a JSON
// string) before dispatching, matching the exact shape the agent loop
// receives from ProviderStreamHandler.
func (r *Registry) DispatchRaw(ctx context.Context, id, name, argumentsJSON string, session SessionContext, mcpDispatcher MCPDispatcher) Result {
	var args map[string]interface{}
	if argumentsJSON != "" {
		if err := json.Unmarshal([]byte(argumentsJSON), &args); err != nil {
			return Result{ID: id, Name: name, Err: err}
		}
	}
	return r.Dispatch(ctx, llm.ToolCall{ID: id, Name: name, Arguments: args}, session, mcpDispatcher)
}
