package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/agentrt/genai/llm"
	"github.com/viant/agentrt/genai/sse"
)

// TestHandleFrame_S2ToolUseRoundTrip mirrors spec scenario S2's first round:
// text "ok", a tool_use block for "shell", then usage + stop.
func TestHandleFrame_S2ToolUseRoundTrip(t *testing.T) {
	state := newState()
	var text string
	var tool llm.CanonicalToolCall
	var total int
	var done bool

	step := func(event, data string) {
		evs, next := HandleFrame(sse.Frame{Event: event, Data: data}, state)
		state = next
		for _, ev := range evs {
			switch ev.Type {
			case llm.EventContent:
				text += ev.Content
			case llm.EventFunctionCall:
				tool = ev.ToolCalls[0]
			case llm.EventUsage:
				total = ev.Usage.TotalTokens
			case llm.EventDone:
				done = true
			}
		}
	}

	step("message_start", `{}`)
	step("content_block_delta", `{"index":0,"delta":{"type":"text_delta","text":"ok"}}`)
	step("content_block_start", `{"index":1,"content_block":{"type":"tool_use","id":"T1","name":"shell"}}`)
	step("content_block_delta", `{"index":1,"delta":{"type":"input_json_delta","partial_json":"{\"command\":[\"ls\",\"-F\"]}"}}`)
	step("content_block_stop", `{"index":1}`)
	step("message_delta", `{"usage":{"input_tokens":10,"output_tokens":4}}`)
	step("message_stop", ``)

	assert.Equal(t, "ok", text)
	assert.Equal(t, "T1", tool.ID)
	assert.Equal(t, "shell", tool.Name)
	assert.Equal(t, `{"command":["ls","-F"]}`, tool.Arguments)
	assert.Equal(t, 14, total)
	assert.True(t, done)
}
