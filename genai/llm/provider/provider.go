package provider

const (
	// ProviderOpenAI identifies the OpenAI Responses API.
	ProviderOpenAI = "openai"

	// ProviderAnthropic identifies the Anthropic Messages API.
	ProviderAnthropic = "anthropic"

	// ProviderGemini identifies the Google Gemini generateContentStream API.
	ProviderGemini = "gemini"
)

// AuthType enumerates the credential kinds a provider may accept.
type AuthType string

const (
	AuthAPIKey        AuthType = "api_key"
	AuthOAuth         AuthType = "oauth"
	AuthServiceAccount AuthType = "service_account"
)

// Capability describes a provider's supported authentication types, used by
// ProviderRouter.create_session to validate (provider, auth_type) pairs
// before dispatching.
var Capability = map[string][]AuthType{
	ProviderOpenAI:    {AuthAPIKey, AuthOAuth},
	ProviderAnthropic: {AuthAPIKey, AuthOAuth},
	ProviderGemini:    {AuthAPIKey, AuthOAuth, AuthServiceAccount},
}

// SupportsAuth reports whether provider accepts the given auth type.
func SupportsAuth(provider string, auth AuthType) bool {
	for _, a := range Capability[provider] {
		if a == auth {
			return true
		}
	}
	return false
}

// Known reports whether provider is one of the three supported vendors.
func Known(provider string) bool {
	_, ok := Capability[provider]
	return ok
}
