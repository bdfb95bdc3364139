package engine

import "github.com/parakeet-chat/parakeet/src/provider"

// Curated catalogs for providers without a usable model-list endpoint, or
// where the hosted list carries no metadata worth showing.

func mistralModels() []provider.AIModel {
	caps := provider.Caps(provider.CapText, provider.CapStreaming)
	return []provider.AIModel{
		{
			ID:                 "open-mistral-7b",
			Description:        "aka mistral-tiny-2312",
			ContextWindow:      32000,
			MaxTemperature:     1.0,
			DefaultTemperature: 0.7,
			Capabilities:       caps,
		},
		{
			ID:                 "open-mixtral-8x7b",
			Description:        "aka mistral-small-2312",
			ContextWindow:      32000,
			MaxTemperature:     1.0,
			DefaultTemperature: 0.7,
			Capabilities:       caps,
		},
		{
			ID:                 "mistral-small-latest",
			Description:        "Simple tasks (classification, customer support, or text generation)",
			ContextWindow:      32000,
			MaxTemperature:     1.0,
			DefaultTemperature: 0.7,
			Capabilities:       caps,
		},
		{
			ID:                 "mistral-medium-latest",
			Description:        "Intermediate tasks that require moderate reasoning",
			ContextWindow:      32000,
			MaxTemperature:     1.0,
			DefaultTemperature: 0.7,
			Capabilities:       caps,
		},
		{
			ID:                 "mistral-large-latest",
			Description:        "Complex tasks that require large reasoning capabilities",
			ContextWindow:      32000,
			MaxTemperature:     1.0,
			DefaultTemperature: 0.7,
			Capabilities:       caps,
		},
	}
}

func anthropicModels() []provider.AIModel {
	caps := provider.Caps(provider.CapText, provider.CapImage, provider.CapStreaming)
	return []provider.AIModel{
		{
			ID:                 "claude-3-5-sonnet-latest",
			Name:               "Claude 3.5 Sonnet",
			ContextWindow:      200000,
			MaxOutputTokens:    8192,
			MaxTemperature:     1.0,
			DefaultTemperature: 1.0,
			Capabilities:       caps,
		},
		{
			ID:                 "claude-3-5-haiku-latest",
			Name:               "Claude 3.5 Haiku",
			ContextWindow:      200000,
			MaxOutputTokens:    8192,
			MaxTemperature:     1.0,
			DefaultTemperature: 1.0,
			Capabilities:       caps,
		},
		{
			ID:                 "claude-3-opus-latest",
			Name:               "Claude 3 Opus",
			ContextWindow:      200000,
			MaxOutputTokens:    4096,
			MaxTemperature:     1.0,
			DefaultTemperature: 1.0,
			Capabilities:       caps,
		},
	}
}
