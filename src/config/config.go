package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Defaults are the generation parameters applied to a new message block.
type Defaults struct {
	Temperature float64 `toml:"temperature"`
	TopP        float64 `toml:"top_p"`
	MaxTokens   int     `toml:"max_tokens"`
	Stream      bool    `toml:"stream"`
}

// Settings is the snapshot of user preferences the core reads as plain
// values. Persistence belongs to the settings subsystem, not here.
type Settings struct {
	Defaults Defaults `toml:"defaults"`
	// Advanced exposes temperature/top-p controls in the UI.
	Advanced bool `toml:"advanced"`
}

// Default returns the out-of-the-box settings.
func Default() Settings {
	return Settings{
		Defaults: Defaults{
			Temperature: 1.0,
			TopP:        1.0,
			MaxTokens:   0, // provider default
			Stream:      true,
		},
	}
}

// Load reads settings from a TOML file. A missing file yields defaults.
func Load(path string) (Settings, error) {
	settings := Default()
	if _, err := toml.DecodeFile(path, &settings); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return Default(), fmt.Errorf("loading settings %s: %w", path, err)
	}
	return settings, nil
}
