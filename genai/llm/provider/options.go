package provider

import (
	"net/http"

	basecfg "github.com/viant/agentrt/genai/llm/provider/base"
)

// Options configures a single provider client instance, sourced from a
// resolved SavedAuthentication plus session/model selection.
type Options struct {
	Model         string                 `yaml:"model,omitempty" json:"model,omitempty"`
	Provider      string                 `yaml:"provider,omitempty" json:"provider,omitempty"`
	AuthType      AuthType               `yaml:"authType,omitempty" json:"authType,omitempty"`
	APIKey        string                 `yaml:"-" json:"-"`
	AccessToken   string                 `yaml:"-" json:"-"`
	BaseURL       string                 `yaml:"baseURL,omitempty" json:"baseURL,omitempty"`
	Temperature   *float64               `yaml:"temperature,omitempty" json:"temperature,omitempty"`
	MaxTokens     int                    `yaml:"maxTokens,omitempty" json:"maxTokens,omitempty"`
	TopP          float64                `yaml:"topP,omitempty" json:"topP,omitempty"`
	UserAgent     string                 `yaml:"userAgent,omitempty" json:"userAgent,omitempty"`
	Meta          map[string]interface{} `yaml:"meta,omitempty" json:"meta,omitempty"`
	UsageListener basecfg.UsageListener  `yaml:"-" json:"-"`
	// HTTPClient overrides the per-provider default client, e.g. to share
	// HTTPClientFactory's bounded connection pool (genai/router/httpclient).
	HTTPClient *http.Client `yaml:"-" json:"-"`

	// ContextContinuation explicitly enables/disables provider continuation
	// for models that support it (e.g. OpenAI previous_response_id).
	ContextContinuation *bool `json:"contextContinuation,omitempty" yaml:"contextContinuation,omitempty"`
}
