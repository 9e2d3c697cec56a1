package service

import (
	apperrors "github.com/PayAidPayments/payaid-whatsapp/internal/errors"
	"github.com/PayAidPayments/payaid-whatsapp/internal/model"
	"github.com/PayAidPayments/payaid-whatsapp/internal/provider"
)

// ProviderClients hands out a bridge client for an account. Platform-hosted
// accounts talk to the platform's own bridge deployment; self-hosted
// accounts carry their own base URL and API key.
type ProviderClients struct {
	factory        provider.ClientFactory
	defaultBaseURL string
	defaultAPIKey  string
}

func NewProviderClients(factory provider.ClientFactory, defaultBaseURL, defaultAPIKey string) *ProviderClients {
	return &ProviderClients{
		factory:        factory,
		defaultBaseURL: defaultBaseURL,
		defaultAPIKey:  defaultAPIKey,
	}
}

// For returns the client for the account's bridge deployment, or
// CONFIG_ERROR when the account has no usable provider configuration.
func (c *ProviderClients) For(account *model.Account) (provider.Client, error) {
	if account.DeploymentType == model.DeploymentPlatform {
		if c.defaultBaseURL == "" {
			return nil, apperrors.Config("Platform provider is not configured")
		}
		return c.factory(c.defaultBaseURL, c.defaultAPIKey), nil
	}

	if account.ProviderBaseURL == nil || *account.ProviderBaseURL == "" {
		return nil, apperrors.Config("Account has no provider base URL configured")
	}
	apiKey := ""
	if account.ProviderAPIKey != nil {
		apiKey = *account.ProviderAPIKey
	}
	return c.factory(*account.ProviderBaseURL, apiKey), nil
}
