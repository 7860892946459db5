// Package anthropic implements the Anthropic Messages API provider: request
// construction and streaming event translation into canonical
// llm.CanonicalEvent values.
package anthropic

type requestPayload struct {
	Model      string          `json:"model"`
	Messages   []message       `json:"messages"`
	System     string          `json:"system,omitempty"`
	MaxTokens  int             `json:"max_tokens"`
	Stream     bool            `json:"stream"`
	Tools      []toolDecl      `json:"tools,omitempty"`
	ToolChoice interface{}     `json:"tool_choice,omitempty"`
	Temperature *float64       `json:"temperature,omitempty"`
	TopP        float64        `json:"top_p,omitempty"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type      string      `json:"type"`
	Text      string      `json:"text,omitempty"`
	Source    *imgSource  `json:"source,omitempty"`
	ToolUseID string      `json:"tool_use_id,omitempty"`
	Content   string      `json:"content,omitempty"`
	ID        string      `json:"id,omitempty"`
	Name      string      `json:"name,omitempty"`
	Input     interface{} `json:"input,omitempty"`
}

type imgSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type toolDecl struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	InputSchema map[string]interface{} `json:"input_schema,omitempty"`
}

// Frame data payloads, one struct per event type of interest (§4.4.2).

type contentBlockStart struct {
	Index        int `json:"index"`
	ContentBlock struct {
		Type string `json:"type"`
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"content_block"`
}

type contentBlockDelta struct {
	Index int `json:"index"`
	Delta struct {
		Type        string `json:"type"`
		Text        string `json:"text"`
		PartialJSON string `json:"partial_json"`
	} `json:"delta"`
}

type contentBlockStop struct {
	Index int `json:"index"`
}

type messageDelta struct {
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type errorFrame struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}
