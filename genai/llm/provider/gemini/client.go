package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/viant/agentrt/genai/llm"
	basecfg "github.com/viant/agentrt/genai/llm/provider/base"
	"github.com/viant/agentrt/genai/sse"
)

const (
	defaultBaseURL      = "https://generativelanguage.googleapis.com"
	defaultOAuthBaseURL = "https://cloudcode-pa.googleapis.com"
)

type ClientOption = basecfg.ClientOption

var (
	WithBaseURL       = basecfg.WithBaseURL
	WithHTTPClient    = basecfg.WithHTTPClient
	WithModel         = basecfg.WithModel
	WithTimeout       = basecfg.WithTimeout
	WithUsageListener = basecfg.WithUsageListener
)

// Client is a Gemini generateContentStream client implementing
// HTTPClientFactory (C2) and ProviderStreamHandler (C4) for this vendor.
type Client struct {
	basecfg.Config
	APIKey      string
	AccessToken string // oauth session: Code-Assist endpoint, Bearer + x-goog-api-client
}

func NewClient(apiKey, model string, opts ...ClientOption) *Client {
	c := &Client{APIKey: apiKey}
	c.BaseURL = defaultBaseURL
	c.Model = model
	c.Timeout = 120 * time.Second
	c.HTTPClient = &http.Client{Timeout: c.Timeout}
	for _, o := range opts {
		o(&c.Config)
	}
	if c.AccessToken != "" && c.BaseURL == defaultBaseURL {
		c.BaseURL = defaultOAuthBaseURL
	}
	return c
}

func (c *Client) Implements(feature string) bool {
	switch feature {
	case basecfg.CanUseTools, basecfg.CanStream, basecfg.IsMultimodal:
		return true
	}
	return false
}

func (c *Client) endpoint(model string) string {
	if model == "" {
		model = c.Model
	}
	url := fmt.Sprintf("%s/v1beta/models/%s:streamGenerateContent?alt=sse", c.BaseURL, model)
	if c.AccessToken == "" {
		url += "&key=" + c.APIKey
	}
	return url
}

func (c *Client) applyHeaders(req *http.Request) {
	req.Header.Set("content-type", "application/json")
	if c.AccessToken != "" {
		req.Header.Set("authorization", "Bearer "+c.AccessToken)
		req.Header.Set("x-goog-api-client", "agentrt/1")
	}
}

// StreamChat posts a streaming generateContentStream request and returns a
// channel of canonical events translated by HandleFrame.
func (c *Client) StreamChat(ctx context.Context, req *llm.GenerateRequest) (<-chan llm.CanonicalEvent, error) {
	payload := BuildRequest(req)
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("gemini: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(req.Options.Model), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gemini: build request: %w", err)
	}
	c.applyHeaders(httpReq)

	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gemini: request: %w", err)
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return nil, fmt.Errorf("gemini: http %d: %s", resp.StatusCode, string(b))
	}

	out := make(chan llm.CanonicalEvent)
	go func() {
		defer resp.Body.Close()
		defer close(out)
		state := newState()
		var usageSum *llm.Usage
		for frame := range sse.Decode(ctx, resp.Body) {
			events, next := HandleFrame(frame, state)
			state = next
			for _, ev := range events {
				if ev.Type == llm.EventUsage && ev.Usage != nil {
					usageSum = &llm.Usage{
						PromptTokens:     ev.Usage.PromptTokens,
						CompletionTokens: ev.Usage.CompletionTokens,
						TotalTokens:      ev.Usage.TotalTokens,
					}
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
		if usageSum != nil && c.UsageListener != nil {
			c.UsageListener.OnUsage(c.Model, usageSum)
		}
	}()
	return out, nil
}

func (c *Client) Generate(ctx context.Context, req *llm.GenerateRequest) (*llm.GenerateResponse, error) {
	events, err := c.StreamChat(ctx, req)
	if err != nil {
		return nil, err
	}
	var text string
	var toolCalls []llm.ToolCall
	var usage llm.Usage
	for ev := range events {
		switch ev.Type {
		case llm.EventContent:
			text += ev.Content
		case llm.EventFunctionCall:
			for _, tc := range ev.ToolCalls {
				var args map[string]interface{}
				_ = json.Unmarshal([]byte(tc.Arguments), &args)
				toolCalls = append(toolCalls, llm.ToolCall{ID: tc.ID, Name: tc.Name, Arguments: args})
			}
		case llm.EventUsage:
			if ev.Usage != nil {
				usage.PromptTokens = ev.Usage.PromptTokens
				usage.CompletionTokens = ev.Usage.CompletionTokens
				usage.TotalTokens = ev.Usage.TotalTokens
			}
		case llm.EventError:
			return nil, fmt.Errorf("gemini: stream failed: %s", ev.Content)
		}
	}
	msg := llm.NewAssistantMessage(text)
	if len(toolCalls) > 0 {
		msg = llm.NewAssistantMessageWithToolCalls(toolCalls...)
		msg.Content = text
	}
	return &llm.GenerateResponse{
		Model:   c.Model,
		Usage:   &usage,
		Choices: []llm.Choice{{Index: 0, Message: msg}},
	}, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}
