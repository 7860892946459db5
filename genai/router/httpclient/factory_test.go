package httpclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/agentrt/genai/llm/provider"
)

type stubLookup struct {
	apiKey, accessToken string
	err                 error
}

func (s stubLookup) APIKeyOrAccessToken(ctx context.Context, prov string, authType provider.AuthType, name string) (string, string, error) {
	return s.apiKey, s.accessToken, s.err
}

func TestBuild_APIKey_DefaultsBaseURLAndUserAgent(t *testing.T) {
	out, err := Build(context.Background(), stubLookup{apiKey: "sk-1"}, provider.ProviderOpenAI, provider.AuthAPIKey, "default", BuildOpts{Model: "gpt-5"})
	require.NoError(t, err)
	assert.Equal(t, "https://api.openai.com", out.BaseURL)
	assert.Equal(t, "sk-1", out.APIKey)
	assert.Empty(t, out.UserAgent)
	assert.Same(t, sharedClient, out.HTTPClient)
}

func TestBuild_OpenAIOAuth_SetsCodexUserAgent(t *testing.T) {
	out, err := Build(context.Background(), stubLookup{accessToken: "tok"}, provider.ProviderOpenAI, provider.AuthOAuth, "default", BuildOpts{})
	require.NoError(t, err)
	assert.Equal(t, "codex_cli_rs", out.UserAgent)
	assert.Equal(t, "tok", out.AccessToken)
}

func TestBuild_GeminiOAuth_UsesCodeAssistBaseURL(t *testing.T) {
	out, err := Build(context.Background(), stubLookup{accessToken: "tok"}, provider.ProviderGemini, provider.AuthOAuth, "default", BuildOpts{})
	require.NoError(t, err)
	assert.Equal(t, "https://cloudcode-pa.googleapis.com", out.BaseURL)
}

func TestBuild_UnknownProvider_Errors(t *testing.T) {
	_, err := Build(context.Background(), stubLookup{}, "does-not-exist", provider.AuthAPIKey, "default", BuildOpts{})
	assert.Error(t, err)
}

func TestBuild_UnsupportedAuthType_Errors(t *testing.T) {
	_, err := Build(context.Background(), stubLookup{}, provider.ProviderOpenAI, provider.AuthServiceAccount, "default", BuildOpts{})
	assert.Error(t, err)
}
