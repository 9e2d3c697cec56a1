package model

import (
	"time"
)

type Account struct {
	ID              string         `db:"id" json:"id"`
	TenantID        string         `db:"tenant_id" json:"tenantId"`
	DeploymentType  DeploymentType `db:"deployment_type" json:"deploymentType"`
	ProviderBaseURL *string        `db:"provider_base_url" json:"providerBaseUrl,omitempty"`
	ProviderAPIKey  *string        `db:"provider_api_key" json:"-"`
	BusinessName    string         `db:"business_name" json:"businessName"`
	PrimaryPhone    *string        `db:"primary_phone" json:"primaryPhone,omitempty"`
	Status          AccountStatus  `db:"status" json:"status"`
	ErrorMessage    *string        `db:"error_message" json:"errorMessage,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updatedAt"`
}

// Configured reports whether the account carries enough provider
// configuration to open sessions against the bridge.
func (a *Account) Configured() bool {
	if a.DeploymentType == DeploymentPlatform {
		return true
	}
	return a.ProviderBaseURL != nil && *a.ProviderBaseURL != ""
}

type CreateAccountParams struct {
	TenantID        string
	DeploymentType  DeploymentType
	ProviderBaseURL *string
	ProviderAPIKey  *string
	BusinessName    string
	PrimaryPhone    *string
}

type UpdateAccountParams struct {
	BusinessName    *string
	PrimaryPhone    *string
	ProviderBaseURL *string
	ProviderAPIKey  *string
	Status          *AccountStatus
	ErrorMessage    *string
}
