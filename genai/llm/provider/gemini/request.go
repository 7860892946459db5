package gemini

import "github.com/viant/agentrt/genai/llm"

// BuildRequest converts a canonical GenerateRequest into the Gemini
// generateContentStream wire payload. System messages become
// systemInstruction; tool-result messages become a user content with a
// functionResponse part per §6.3.
func BuildRequest(req *llm.GenerateRequest) *requestPayload {
	payload := &requestPayload{}
	cfg := &generationConfig{TopP: req.Options.TopP, MaxOutputTokens: req.Options.MaxTokens}
	if req.Options.Temperature > 0 {
		t := req.Options.Temperature
		cfg.Temperature = &t
	}
	payload.GenerationConfig = cfg

	for _, t := range req.Options.Tools {
		payload.appendTool(t)
	}

	for _, msg := range req.Messages {
		switch msg.Role {
		case llm.RoleSystem:
			payload.SystemInstruction = &content{Parts: []part{{Text: textOf(msg)}}}
		case llm.RoleTool:
			payload.Contents = append(payload.Contents, content{
				Role: "user",
				Parts: []part{{FunctionResponse: &functionResponse{
					Name:     msg.Name,
					Response: map[string]interface{}{"output": textOf(msg)},
				}}},
			})
		default:
			role := "user"
			if msg.Role == llm.RoleAssistant {
				role = "model"
			}
			payload.Contents = append(payload.Contents, content{Role: role, Parts: partsOf(msg)})
		}
	}
	return payload
}

func (p *requestPayload) appendTool(t llm.Tool) {
	decl := functionDeclaration{
		Name:        t.Definition.Name,
		Description: t.Definition.Description,
		Parameters:  t.Definition.Parameters,
	}
	if len(p.Tools) == 0 {
		p.Tools = []tool{{}}
	}
	p.Tools[0].FunctionDeclarations = append(p.Tools[0].FunctionDeclarations, decl)
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

func partsOf(msg llm.Message) []part {
	if len(msg.Items) == 0 {
		return []part{{Text: msg.Content}}
	}
	var out []part
	for _, item := range msg.Items {
		if item.Type == llm.ContentTypeImage || item.Type == llm.ContentTypeBinary {
			out = append(out, part{InlineData: &inlineData{MimeType: item.MimeType, Data: item.Data}})
			continue
		}
		out = append(out, part{Text: item.Text})
	}
	return out
}
