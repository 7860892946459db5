package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/agentrt/genai/sse"
)

// TestHandleFrame_S3FunctionCall mirrors spec scenario S3: a functionCall
// part for list_directory followed by a final text-bearing candidate.
func TestHandleFrame_S3FunctionCall(t *testing.T) {
	state := newState()

	evs, next := HandleFrame(sse.Frame{Data: `{"candidates":[{"content":{"parts":[{"functionCall":{"name":"list_directory","args":{"path":"."}}}]}}]}`}, state)
	state = next
	assert.Len(t, evs, 1)
	assert.Equal(t, "list_directory", evs[0].ToolCalls[0].Name)
	assert.NotEmpty(t, evs[0].ToolCalls[0].ID)

	evs, next = HandleFrame(sse.Frame{Data: `{"candidates":[{"content":{"parts":[{"text":"a and b"}]},"finishReason":"STOP"}],"usageMetadata":{"promptTokenCount":3,"candidatesTokenCount":2,"totalTokenCount":5}}`}, state)
	state = next
	var text string
	var done bool
	var total int
	for _, ev := range evs {
		switch ev.Type {
		case "content":
			text += ev.Content
		case "usage":
			total = ev.Usage.TotalTokens
		case "done":
			done = true
		}
	}
	assert.Equal(t, "a and b", text)
	assert.True(t, done)
	assert.Equal(t, 5, total)
}

func TestHandleFrame_TextBeforeFunctionCallTieBreak(t *testing.T) {
	state := newState()
	evs, _ := HandleFrame(sse.Frame{Data: `{"candidates":[{"content":{"parts":[{"text":"hi"},{"functionCall":{"name":"x","args":{}}}]}}]}`}, state)
	assert.Len(t, evs, 2)
	assert.Equal(t, "content", string(evs[0].Type))
	assert.Equal(t, "function_call", string(evs[1].Type))
}

func TestHandleFrame_LocalIDsAreUnique(t *testing.T) {
	state := newState()
	evs1, next := HandleFrame(sse.Frame{Data: `{"candidates":[{"content":{"parts":[{"functionCall":{"name":"a","args":{}}}]}}]}`}, state)
	state = next
	evs2, _ := HandleFrame(sse.Frame{Data: `{"candidates":[{"content":{"parts":[{"functionCall":{"name":"b","args":{}}}]}}]}`}, state)
	assert.NotEqual(t, evs1[0].ToolCalls[0].ID, evs2[0].ToolCalls[0].ID)
}
