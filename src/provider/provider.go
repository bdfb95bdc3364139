package provider

import "fmt"

// APIType selects which SDK speaks to a provider.
type APIType string

const (
	APITypeOpenAI    APIType = "openai"
	APITypeAnthropic APIType = "anthropic"
	APITypeGemini    APIType = "gemini"
	APITypeOllama    APIType = "ollama"
)

// Provider describes one selectable AI service. Services sharing a wire
// protocol share an APIType and differ only by base URL and key names.
type Provider struct {
	ID                        string
	Name                      string
	BaseURL                   string
	APIType                   APIType
	RequireAPIKey             bool
	OrganizationModeAvailable bool
	EnvVarAPIKey              string
	EnvVarOrgKey              string
}

// Providers is the built-in provider table, in display order.
var Providers = []Provider{
	{
		ID:                        "openai",
		Name:                      "OpenAI",
		BaseURL:                   "https://api.openai.com/v1",
		APIType:                   APITypeOpenAI,
		RequireAPIKey:             true,
		OrganizationModeAvailable: true,
		EnvVarAPIKey:              "OPENAI_API_KEY",
		EnvVarOrgKey:              "OPENAI_ORG_KEY",
	},
	{
		ID:            "mistralai",
		Name:          "MistralAI",
		BaseURL:       "https://api.mistral.ai/v1",
		APIType:       APITypeOpenAI,
		RequireAPIKey: true,
		EnvVarAPIKey:  "MISTRAL_API_KEY",
	},
	{
		ID:            "openrouter",
		Name:          "OpenRouter",
		BaseURL:       "https://openrouter.ai/api/v1",
		APIType:       APITypeOpenAI,
		RequireAPIKey: true,
		EnvVarAPIKey:  "OPENROUTER_API_KEY",
	},
	{
		ID:            "anthropic",
		Name:          "Anthropic",
		APIType:       APITypeAnthropic,
		RequireAPIKey: true,
		EnvVarAPIKey:  "ANTHROPIC_API_KEY",
	},
	{
		ID:            "gemini",
		Name:          "Gemini",
		APIType:       APITypeGemini,
		RequireAPIKey: true,
		EnvVarAPIKey:  "GEMINI_API_KEY",
	},
	{
		ID:            "ollama",
		Name:          "Ollama",
		BaseURL:       "http://localhost:11434",
		APIType:       APITypeOllama,
		RequireAPIKey: false,
	},
}

// Get returns the provider with the given id.
func Get(id string) (Provider, error) {
	for _, p := range Providers {
		if p.ID == id {
			return p, nil
		}
	}
	return Provider{}, fmt.Errorf("unknown provider: %s", id)
}
