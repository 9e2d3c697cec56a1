package identity

import (
	"context"
)

// Identity is the resolved caller: the platform user, the tenant the call
// acts on behalf of, and the module licenses the tenant holds.
type Identity struct {
	UserID          string   `json:"userId"`
	TenantID        string   `json:"tenantId"`
	LicensedModules []string `json:"licensedModules"`
}

// HasModule reports whether the tenant holds a license for the named module.
func (id *Identity) HasModule(name string) bool {
	for _, m := range id.LicensedModules {
		if m == name {
			return true
		}
	}
	return false
}

// Resolver turns a bearer token into a caller identity. Token issuance
// lives on the platform side; this service only verifies.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*Identity, error)
}
