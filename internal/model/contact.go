package model

import (
	"time"
)

type Contact struct {
	ID        string    `db:"id" json:"id"`
	TenantID  string    `db:"tenant_id" json:"tenantId"`
	Name      *string   `db:"name" json:"name,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// ContactIdentity maps one phone number to one CRM contact within a tenant.
// Rows are created on first inbound contact and never updated afterwards.
type ContactIdentity struct {
	ID          string    `db:"id" json:"id"`
	TenantID    string    `db:"tenant_id" json:"tenantId"`
	ContactID   string    `db:"contact_id" json:"contactId"`
	PhoneNumber string    `db:"phone_number" json:"phoneNumber"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

type CreateContactParams struct {
	TenantID string
	Name     *string
}
