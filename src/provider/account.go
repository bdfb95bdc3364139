package provider

import (
	"fmt"
	"os"

	"github.com/google/uuid"
)

// AccountSource records where an account's credentials came from.
type AccountSource string

const (
	SourceEnvVar AccountSource = "env_var"
	SourceConfig AccountSource = "config"
)

// Account holds the credentials for one provider. A provider can have
// several accounts; the account identity keys the engine registry.
type Account struct {
	ID           uuid.UUID
	Name         string
	Provider     Provider
	APIKey       string
	Organization string
	Source       AccountSource
}

// NewAccount validates and builds an account.
func NewAccount(name string, p Provider, apiKey, organization string, source AccountSource) (Account, error) {
	if p.RequireAPIKey && apiKey == "" {
		return Account{}, fmt.Errorf("API key for %s is required", p.Name)
	}
	if organization != "" && !p.OrganizationModeAvailable {
		return Account{}, fmt.Errorf("organization mode is not available for %s", p.Name)
	}
	return Account{
		ID:           uuid.New(),
		Name:         name,
		Provider:     p,
		APIKey:       apiKey,
		Organization: organization,
		Source:       source,
	}, nil
}

// AccountsFromEnv builds an account for every provider whose API key
// environment variable is set. Ollama needs no key and is always included.
func AccountsFromEnv() []Account {
	var accounts []Account
	for _, p := range Providers {
		key := ""
		if p.EnvVarAPIKey != "" {
			key = os.Getenv(p.EnvVarAPIKey)
		}
		if p.RequireAPIKey && key == "" {
			continue
		}
		org := ""
		if p.OrganizationModeAvailable && p.EnvVarOrgKey != "" {
			org = os.Getenv(p.EnvVarOrgKey)
		}
		acc, err := NewAccount(p.Name+" account", p, key, org, SourceEnvVar)
		if err != nil {
			continue
		}
		accounts = append(accounts, acc)
	}
	return accounts
}
