package model

import (
	"time"
)

// Conversation is the single thread with one contact on one account.
// At most one row exists per (accountId, contactId) pair.
type Conversation struct {
	ID            string             `db:"id" json:"id"`
	AccountID     string             `db:"account_id" json:"accountId"`
	ContactID     string             `db:"contact_id" json:"contactId"`
	SessionID     *string            `db:"session_id" json:"sessionId,omitempty"`
	Status        ConversationStatus `db:"status" json:"status"`
	LastMessageAt *time.Time         `db:"last_message_at" json:"lastMessageAt,omitempty"`
	LastDirection *MessageDirection  `db:"last_direction" json:"lastDirection,omitempty"`
	UnreadCount   int                `db:"unread_count" json:"unreadCount"`
	TicketID      *string            `db:"ticket_id" json:"ticketId,omitempty"`
	CreatedAt     time.Time          `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time          `db:"updated_at" json:"updatedAt"`
}

type CreateConversationParams struct {
	AccountID string
	ContactID string
	SessionID *string
}

type UpdateConversationParams struct {
	Status   *ConversationStatus
	TicketID *string
}
