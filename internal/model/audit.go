package model

import (
	"time"
)

// AuditLogEntry is an append-only record of one mutating action and its
// outcome. Entries are never updated or deleted by the service.
type AuditLogEntry struct {
	ID          string      `db:"id" json:"id"`
	AccountID   string      `db:"account_id" json:"accountId"`
	SessionID   *string     `db:"session_id" json:"sessionId,omitempty"`
	Action      string      `db:"action" json:"action"`
	Status      AuditStatus `db:"status" json:"status"`
	Description string      `db:"description" json:"description"`
	ErrorCode   *string     `db:"error_code" json:"errorCode,omitempty"`
	UserID      *string     `db:"user_id" json:"userId,omitempty"`
	IPAddress   *string     `db:"ip_address" json:"ipAddress,omitempty"`
	UserAgent   *string     `db:"user_agent" json:"userAgent,omitempty"`
	CreatedAt   time.Time   `db:"created_at" json:"createdAt"`
}

type CreateAuditEntryParams struct {
	AccountID   string
	SessionID   *string
	Action      string
	Status      AuditStatus
	Description string
	ErrorCode   *string
	UserID      *string
	IPAddress   *string
	UserAgent   *string
}
