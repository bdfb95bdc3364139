package provider

import "fmt"

// AIModel identifies one selectable model of a provider. Read-only,
// sourced from the engine's model catalog.
type AIModel struct {
	ID                 string        `json:"id"`
	Name               string        `json:"name,omitempty"`
	Description        string        `json:"description,omitempty"`
	ContextWindow      int           `json:"context_window,omitempty"`
	MaxOutputTokens    int           `json:"max_output_tokens,omitempty"`
	MaxTemperature     float64       `json:"max_temperature,omitempty"`
	DefaultTemperature float64       `json:"default_temperature,omitempty"`
	Capabilities       CapabilitySet `json:"capabilities,omitempty"`
}

// DisplayName returns the human-facing label for model pickers.
func (m AIModel) DisplayName() string {
	if m.Name != "" {
		return fmt.Sprintf("%s (%s)", m.Name, m.ID)
	}
	return m.ID
}
