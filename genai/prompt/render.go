package prompt

// TextSegment is one OpenAI-style rendered segment: {"type":"text","text":...}.
type TextSegment struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// AnthropicBlock is one Anthropic content block rendered from a
// SystemPromptItem: {"type":"text","text":...}.
type AnthropicBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// GeminiTurn is a Gemini `{role, parts}` rendered unit.
type GeminiTurn struct {
	Role  string        `json:"role"`
	Parts []interface{} `json:"parts"`
}

// Payload is the rendered, provider-specific request fragment produced by
// render_for_provider. Each resolved item lands in the field matching its
// RenderFormat, so a stack that mixes formats populates more than one.
type Payload struct {
	Provider string
	Segments []TextSegment
	Blocks   []AnthropicBlock
	Turns    []GeminiTurn
}

// RenderForProvider implements render_for_provider (§4.5). Each resolved
// item is rendered according to its own RenderFormat. A "segments" or
// "blocks" list (session override first, then item metadata) replaces the
// item's text; a "parts" list is appended after the item's text part.
func RenderForProvider(provider string, stack Stack) Payload {
	payload := Payload{Provider: provider}
	for _, ri := range stack.Items {
		switch ri.Item.RenderFormat {
		case FormatAnthropicBlocks:
			payload.Blocks = append(payload.Blocks, renderAnthropicBlocks(ri)...)
		case FormatGeminiParts:
			payload.Turns = append(payload.Turns, renderGeminiTurn(ri))
		default:
			payload.Segments = append(payload.Segments, renderTextSegments(ri)...)
		}
	}
	return payload
}

func renderTextSegments(ri ResolvedItem) []TextSegment {
	if raw, ok := overrideOrMetadata(ri, "segments"); ok {
		return toTextSegments(raw)
	}
	return []TextSegment{{Type: "text", Text: ri.Item.Text}}
}

func renderAnthropicBlocks(ri ResolvedItem) []AnthropicBlock {
	if raw, ok := overrideOrMetadata(ri, "blocks"); ok {
		return toAnthropicBlocks(raw)
	}
	return []AnthropicBlock{{Type: "text", Text: ri.Item.Text}}
}

func renderGeminiTurn(ri ResolvedItem) GeminiTurn {
	parts := []interface{}{map[string]interface{}{"text": ri.Item.Text}}
	if raw, ok := overrideOrMetadata(ri, "parts"); ok {
		if list, ok := raw.([]interface{}); ok {
			parts = mergeGeminiParts(parts, list)
		}
	}
	return GeminiTurn{Role: "user", Parts: parts}
}

// overrideOrMetadata looks up key first in the resolved item's session
// override map, falling back to the stored item's metadata.
func overrideOrMetadata(ri ResolvedItem, key string) (interface{}, bool) {
	if ri.Overrides != nil {
		if v, ok := ri.Overrides[key]; ok {
			return v, true
		}
	}
	if ri.Item.Metadata != nil {
		if v, ok := ri.Item.Metadata[key]; ok {
			return v, true
		}
	}
	return nil, false
}

func toTextSegments(raw interface{}) []TextSegment {
	list, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	out := make([]TextSegment, 0, len(list))
	for _, entry := range list {
		m, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		seg := TextSegment{Type: "text"}
		if t, ok := m["type"].(string); ok {
			seg.Type = t
		}
		if txt, ok := m["text"].(string); ok {
			seg.Text = txt
		}
		out = append(out, seg)
	}
	return out
}

func toAnthropicBlocks(raw interface{}) []AnthropicBlock {
	list, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	out := make([]AnthropicBlock, 0, len(list))
	for _, entry := range list {
		m, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		b := AnthropicBlock{Type: "text"}
		if t, ok := m["type"].(string); ok {
			b.Type = t
		}
		if txt, ok := m["text"].(string); ok {
			b.Text = txt
		}
		out = append(out, b)
	}
	return out
}

// mergeGeminiParts appends override parts after the base text part, matching
// the "merging metadata parts with overrides" rule in §4.5.
func mergeGeminiParts(base, overrides []interface{}) []interface{} {
	return append(append([]interface{}{}, base...), overrides...)
}
