package model

import (
	"time"

	"github.com/lib/pq"
)

type Template struct {
	ID        string         `db:"id" json:"id"`
	TenantID  string         `db:"tenant_id" json:"tenantId"`
	Name      string         `db:"name" json:"name"`
	Body      string         `db:"body" json:"body"`
	Variables pq.StringArray `db:"variables" json:"variables"`
	Category  *string        `db:"category" json:"category,omitempty"`
	IsActive  bool           `db:"is_active" json:"isActive"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time      `db:"updated_at" json:"updatedAt"`
}

type CreateTemplateParams struct {
	TenantID  string
	Name      string
	Body      string
	Variables []string
	Category  *string
}

type UpdateTemplateParams struct {
	Name      *string
	Body      *string
	Variables []string
	Category  *string
	IsActive  *bool
}
