package model

import (
	"time"
)

type Session struct {
	ID                string        `db:"id" json:"id"`
	AccountID         string        `db:"account_id" json:"accountId"`
	EmployeeID        *string       `db:"employee_id" json:"employeeId,omitempty"`
	ProviderSessionID string        `db:"provider_session_id" json:"providerSessionId"`
	QRCodeURL         *string       `db:"qr_code_url" json:"qrCodeUrl,omitempty"`
	Status            SessionStatus `db:"status" json:"status"`
	DeviceName        *string       `db:"device_name" json:"deviceName,omitempty"`
	PhoneNumber       *string       `db:"phone_number" json:"phoneNumber,omitempty"`
	DailySentCount    int           `db:"daily_sent_count" json:"dailySentCount"`
	DailyRecvCount    int           `db:"daily_recv_count" json:"dailyRecvCount"`
	LastSyncAt        *time.Time    `db:"last_sync_at" json:"lastSyncAt,omitempty"`
	LastSeenAt        *time.Time    `db:"last_seen_at" json:"lastSeenAt,omitempty"`
	CreatedAt         time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time     `db:"updated_at" json:"updatedAt"`
}

// Shared reports whether the session serves the whole account rather than
// a single employee's inbox.
func (s *Session) Shared() bool {
	return s.EmployeeID == nil
}

type CreateSessionParams struct {
	AccountID         string
	EmployeeID        *string
	ProviderSessionID string
	QRCodeURL         *string
	DeviceName        *string
}
