package openai

import "github.com/viant/agentrt/genai/llm"

// BuildRequest converts a canonical GenerateRequest into the OpenAI
// Responses API wire payload. Tool-result messages (RoleTool) are mapped to
// function_call_output items per §6.3; every other message becomes a
// role+content input item.
func BuildRequest(req *llm.GenerateRequest, previousResponseID string) *requestPayload {
	payload := &requestPayload{
		Model:  req.Options.Model,
		Stream: true,
	}
	if req.Options.Temperature > 0 {
		t := req.Options.Temperature
		payload.Temperature = &t
	}
	payload.TopP = req.Options.TopP
	payload.MaxOutputTokens = req.Options.MaxTokens
	if req.Options.ParallelToolCalls {
		p := true
		payload.ParallelToolCalls = &p
	}
	payload.PreviousResponseID = previousResponseID

	for _, tool := range req.Options.Tools {
		payload.Tools = append(payload.Tools, toolDecl{
			Type:        "function",
			Name:        tool.Definition.Name,
			Description: tool.Definition.Description,
			Parameters:  tool.Definition.Parameters,
		})
	}
	if len(payload.Tools) > 0 {
		switch req.Options.ToolChoice.Type {
		case "none":
			payload.ToolChoice = "none"
		case "function":
			if req.Options.ToolChoice.Function != nil {
				payload.ToolChoice = map[string]string{"type": "function", "name": req.Options.ToolChoice.Function.Name}
			}
		default:
			payload.ToolChoice = "auto"
		}
	}

	for _, msg := range req.Messages {
		if msg.Role == llm.RoleSystem {
			payload.Instructions = joinText(payload.Instructions, textOf(msg))
			continue
		}
		if msg.Role == llm.RoleTool {
			payload.Input = append(payload.Input, inputItem{
				Type:   "function_call_output",
				CallID: msg.ToolCallId,
				Output: textOf(msg),
			})
			continue
		}
		payload.Input = append(payload.Input, inputItem{
			Role:    string(msg.Role),
			Content: contentOf(msg),
		})
	}
	return payload
}

func joinText(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	return a + "\n" + b
}

func textOf(msg llm.Message) string {
	if msg.Content != "" {
		return msg.Content
	}
	var out string
	for _, item := range msg.Items {
		if item.Text != "" {
			out = joinText(out, item.Text)
		}
	}
	return out
}

func contentOf(msg llm.Message) []inputContent {
	if len(msg.Items) == 0 {
		return []inputContent{{Type: "input_text", Text: msg.Content}}
	}
	var out []inputContent
	for _, item := range msg.Items {
		switch item.Type {
		case llm.ContentTypeImage:
			out = append(out, inputContent{Type: "input_image", ImageURL: item.Data, MimeType: item.MimeType})
		case llm.ContentTypeText:
			out = append(out, inputContent{Type: "input_text", Text: item.Text})
		default:
			out = append(out, inputContent{Type: "input_file", FileData: item.Data, MimeType: item.MimeType})
		}
	}
	return out
}
