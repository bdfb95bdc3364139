package engine

import (
	"context"
	"fmt"

	"github.com/parakeet-chat/parakeet/src/provider"
)

// New returns the concrete engine for an account's API type.
func New(ctx context.Context, account provider.Account) (Engine, error) {
	switch account.Provider.APIType {
	case provider.APITypeOpenAI:
		return NewOpenAIEngine(account), nil
	case provider.APITypeAnthropic:
		return NewAnthropicEngine(account), nil
	case provider.APITypeGemini:
		return NewGeminiEngine(ctx, account)
	case provider.APITypeOllama:
		return NewOllamaEngine(account)
	default:
		return nil, fmt.Errorf("unknown provider API type: %s", account.Provider.APIType)
	}
}
