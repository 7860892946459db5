package anthropic

import "github.com/viant/agentrt/genai/llm"

const anthropicVersion = "2023-06-01"

// BuildRequest converts a canonical GenerateRequest into the Anthropic
// Messages API wire payload. System messages are hoisted into the top-level
// "system" field; tool-result messages become user messages carrying a
// tool_result content block per §6.3.
func BuildRequest(req *llm.GenerateRequest) *requestPayload {
	payload := &requestPayload{
		Model:     req.Options.Model,
		MaxTokens: req.Options.MaxTokens,
		Stream:    true,
	}
	if payload.MaxTokens == 0 {
		payload.MaxTokens = 4096
	}
	if req.Options.Temperature > 0 {
		tmp := req.Options.Temperature
		payload.Temperature = &tmp
	}
	payload.TopP = req.Options.TopP

	for _, tool := range req.Options.Tools {
		payload.Tools = append(payload.Tools, toolDecl{
			Name:        tool.Definition.Name,
			Description: tool.Definition.Description,
			InputSchema: tool.Definition.Parameters,
		})
	}
	if len(payload.Tools) > 0 {
		payload.ToolChoice = map[string]string{"type": "auto"}
	}

	for _, msg := range req.Messages {
		if msg.Role == llm.RoleSystem {
			if payload.System != "" {
				payload.System += "\n"
			}
			payload.System += textOf(msg)
			continue
		}
		if msg.Role == llm.RoleTool {
			payload.Messages = append(payload.Messages, message{
				Role: "user",
				Content: []contentBlock{{
					Type:      "tool_result",
					ToolUseID: msg.ToolCallId,
					Content:   textOf(msg),
				}},
			})
			continue
		}
		payload.Messages = append(payload.Messages, message{
			Role:    string(msg.Role),
			Content: contentOf(msg),
		})
	}
	return payload
}

func textOf(msg llm.Message) string {
	if msg.Content != "" {
		return msg.Content
	}
	var out string
	for _, item := range msg.Items {
		out += item.Text
	}
	return out
}

func contentOf(msg llm.Message) []contentBlock {
	if len(msg.Items) == 0 {
		return []contentBlock{{Type: "text", Text: msg.Content}}
	}
	var out []contentBlock
	for _, item := range msg.Items {
		switch item.Type {
		case llm.ContentTypeImage:
			out = append(out, contentBlock{Type: "image", Source: &imgSource{Type: "base64", MediaType: item.MimeType, Data: item.Data}})
		default:
			out = append(out, contentBlock{Type: "text", Text: item.Text})
		}
	}
	return out
}
