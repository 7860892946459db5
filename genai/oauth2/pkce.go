package oauth2

import "github.com/viant/scy/auth/flow"

// GenerateCodeVerifier returns a fresh PKCE code verifier, per RFC 7636,
// delegating to the scy auth flow helper the teacher uses for the OpenAI
// Codex CLI login (internal/genai/provider/openai/chatgptauth.Manager).
func GenerateCodeVerifier() string {
	return flow.GenerateCodeVerifier()
}

// GenerateCodeChallenge derives the S256 code challenge for verifier.
func GenerateCodeChallenge(verifier string) string {
	return flow.GenerateCodeChallenge(verifier)
}
