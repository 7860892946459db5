package anthropic

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/viant/agentrt/genai/llm"
	"github.com/viant/agentrt/genai/sse"
)

type toolUse struct {
	id            string
	name          string
	argumentsJSON strings.Builder
}

// State is the opaque per-stream accumulator for the Anthropic handler,
// keyed by content block index per §4.4.2.
type State struct {
	toolCalls map[int]*toolUse
}

func newState() *State {
	return &State{toolCalls: map[int]*toolUse{}}
}

// HandleFrame translates one Anthropic Messages-streaming SSE frame into
// zero or more canonical events, threading State across calls.
func HandleFrame(frame sse.Frame, state *State) ([]llm.CanonicalEvent, *State) {
	if state == nil {
		state = newState()
	}
	switch frame.Event {
	case "content_block_start":
		var d contentBlockStart
		if err := json.Unmarshal([]byte(frame.Data), &d); err != nil {
			return nil, state
		}
		if d.ContentBlock.Type == "tool_use" {
			state.toolCalls[d.Index] = &toolUse{id: d.ContentBlock.ID, name: d.ContentBlock.Name}
		}
		return nil, state

	case "content_block_delta":
		var d contentBlockDelta
		if err := json.Unmarshal([]byte(frame.Data), &d); err != nil {
			return nil, state
		}
		switch d.Delta.Type {
		case "text_delta":
			return []llm.CanonicalEvent{{Type: llm.EventContent, Content: d.Delta.Text}}, state
		case "input_json_delta":
			if tc, ok := state.toolCalls[d.Index]; ok {
				tc.argumentsJSON.WriteString(d.Delta.PartialJSON)
			}
		}
		return nil, state

	case "content_block_stop":
		var d contentBlockStop
		if err := json.Unmarshal([]byte(frame.Data), &d); err != nil {
			return nil, state
		}
		tc, ok := state.toolCalls[d.Index]
		if !ok {
			return nil, state
		}
		delete(state.toolCalls, d.Index)
		id := tc.id
		if id == "" {
			id = "T" + strconv.Itoa(d.Index)
		}
		return []llm.CanonicalEvent{{
			Type: llm.EventFunctionCall,
			ToolCalls: []llm.CanonicalToolCall{{
				ID:        id,
				Name:      tc.name,
				Arguments: tc.argumentsJSON.String(),
			}},
		}}, state

	case "message_delta":
		var d messageDelta
		if err := json.Unmarshal([]byte(frame.Data), &d); err != nil {
			return nil, state
		}
		usage := llm.TokenUsage{
			PromptTokens:     d.Usage.InputTokens,
			CompletionTokens: d.Usage.OutputTokens,
			TotalTokens:      d.Usage.InputTokens + d.Usage.OutputTokens,
		}
		return []llm.CanonicalEvent{{Type: llm.EventUsage, Usage: &usage}}, state

	case "message_stop":
		return []llm.CanonicalEvent{{Type: llm.EventDone}}, state

	case "error":
		var d errorFrame
		_ = json.Unmarshal([]byte(frame.Data), &d)
		return []llm.CanonicalEvent{{Type: llm.EventError, Content: d.Error.Message}}, state

	default:
		// message_start and any unrecognized event carry no canonical event.
		return nil, state
	}
}
