package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/agentrt/genai/credential"
	"github.com/viant/agentrt/genai/llm/provider"
	"github.com/viant/agentrt/internal/apperr"
)

func newTestRouter(t *testing.T, cfg Config) *Router {
	t.Helper()
	store, err := credential.New(t.TempDir())
	require.NoError(t, err)
	return New(cfg, store, nil)
}

func TestRouter_CreateAPIKeySession_ValidatesAndPersists(t *testing.T) {
	r := newTestRouter(t, Config{})

	_, err := r.CreateAPIKeySession(t.Context(), provider.ProviderOpenAI, "default", "   ")
	assert.Error(t, err)

	rec, err := r.CreateAPIKeySession(t.Context(), provider.ProviderOpenAI, "default", "sk-abc123")
	require.NoError(t, err)
	assert.Equal(t, "sk-abc123", rec.Credentials["api_key"])

	_, err = r.CreateAPIKeySession(t.Context(), "not-a-provider", "default", "sk-abc123")
	assert.Error(t, err)
}

func TestRouter_CreateOAuthSession_ExchangesAndPersists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		require.NoError(t, req.ParseForm())
		assert.Equal(t, "authorization_code", req.Form.Get("grant_type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"acc1","refresh_token":"ref1","expires_in":3600,"token_type":"Bearer"}`))
	}))
	defer srv.Close()

	var scheduled []credential.Key
	cfg := Config{
		OAuth: map[string]OAuthEndpoint{
			provider.ProviderOpenAI: {TokenURL: srv.URL, ClientID: "client-1", RedirectURI: "http://localhost/cb"},
		},
		ScheduleRefresh: func(k credential.Key) { scheduled = append(scheduled, k) },
	}
	r := newTestRouter(t, cfg)

	rec, err := r.CreateOAuthSession(t.Context(), provider.ProviderOpenAI, "default", "auth-code", "verifier")
	require.NoError(t, err)
	assert.Equal(t, "acc1", rec.Credentials["access_token"])
	assert.Equal(t, "ref1", rec.Credentials["refresh_token"])
	require.Len(t, scheduled, 1)
	assert.Equal(t, rec.Key, scheduled[0])
}

func TestRouter_RefreshTokens_InvalidGrant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer srv.Close()

	cfg := Config{OAuth: map[string]OAuthEndpoint{provider.ProviderOpenAI: {TokenURL: srv.URL, ClientID: "client-1"}}}
	r := newTestRouter(t, cfg)

	expiresAt := time.Now().Add(time.Hour)
	_, err := r.creds.CreateNamed(t.Context(), provider.ProviderOpenAI, provider.AuthOAuth, "default",
		map[string]interface{}{"access_token": "stale", "refresh_token": "bad-refresh"}, &expiresAt)
	require.NoError(t, err)

	_, err = r.RefreshTokens(t.Context(), provider.ProviderOpenAI, "default")
	assert.ErrorIs(t, err, apperr.ErrInvalidRefreshToken)
}

func TestRouter_ListModels_OpenAI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "/v1/models", req.URL.Path)
		assert.Equal(t, "Bearer sk-abc123", req.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":"gpt-5"},{"id":"gpt-5-mini"}]}`))
	}))
	defer srv.Close()

	cfg := Config{ModelsBaseURL: map[string]string{provider.ProviderOpenAI: srv.URL}}
	r := newTestRouter(t, cfg)
	_, err := r.CreateAPIKeySession(t.Context(), provider.ProviderOpenAI, "default", "sk-abc123")
	require.NoError(t, err)

	models, err := r.ListModels(t.Context(), provider.ProviderOpenAI, provider.AuthAPIKey, "default")
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "gpt-5", models[0].ID)
}

func TestRouter_DeleteSession_Idempotent(t *testing.T) {
	r := newTestRouter(t, Config{})
	assert.NoError(t, r.DeleteSession(t.Context(), provider.ProviderOpenAI, provider.AuthAPIKey, "ghost"))
	assert.NoError(t, r.DeleteSession(t.Context(), provider.ProviderOpenAI, provider.AuthAPIKey, "ghost"))
}
