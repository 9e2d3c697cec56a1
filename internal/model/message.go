package model

import (
	"encoding/json"
	"time"
)

type Message struct {
	ID                string           `db:"id" json:"id"`
	ConversationID    string           `db:"conversation_id" json:"conversationId"`
	SessionID         *string          `db:"session_id" json:"sessionId,omitempty"`
	Direction         MessageDirection `db:"direction" json:"direction"`
	MessageType       MessageType      `db:"message_type" json:"messageType"`
	ProviderMessageID *string          `db:"provider_message_id" json:"providerMessageId,omitempty"`
	FromNumber        *string          `db:"from_number" json:"fromNumber,omitempty"`
	ToNumber          *string          `db:"to_number" json:"toNumber,omitempty"`
	Text              *string          `db:"text" json:"text,omitempty"`
	MediaURL          *string          `db:"media_url" json:"mediaUrl,omitempty"`
	MediaMimeType     *string          `db:"media_mime_type" json:"mediaMimeType,omitempty"`
	MediaCaption      *string          `db:"media_caption" json:"mediaCaption,omitempty"`
	TemplateID        *string          `db:"template_id" json:"templateId,omitempty"`
	Status            MessageStatus    `db:"status" json:"status"`
	ErrorCode         *string          `db:"error_code" json:"errorCode,omitempty"`
	ErrorMessage      *string          `db:"error_message" json:"errorMessage,omitempty"`
	SentAt            *time.Time       `db:"sent_at" json:"sentAt,omitempty"`
	DeliveredAt       *time.Time       `db:"delivered_at" json:"deliveredAt,omitempty"`
	ReadAt            *time.Time       `db:"read_at" json:"readAt,omitempty"`
	CreatedAt         time.Time        `db:"created_at" json:"createdAt"`
}

// ToEventData returns JSON data for conversation stream events
func (m *Message) ToEventData() json.RawMessage {
	data, _ := json.Marshal(map[string]any{
		"id":             m.ID,
		"conversationId": m.ConversationID,
		"direction":      m.Direction,
		"messageType":    m.MessageType,
		"text":           m.Text,
		"status":         m.Status,
		"createdAt":      m.CreatedAt,
	})
	return data
}

type CreateMessageParams struct {
	ConversationID    string
	SessionID         *string
	Direction         MessageDirection
	MessageType       MessageType
	ProviderMessageID *string
	FromNumber        *string
	ToNumber          *string
	Text              *string
	MediaURL          *string
	MediaMimeType     *string
	MediaCaption      *string
	TemplateID        *string
	Status            MessageStatus
	ErrorCode         *string
	ErrorMessage      *string
	SentAt            *time.Time
}
