package provider

import (
	"context"
	"strings"

	"github.com/PayAidPayments/payaid-whatsapp/internal/model"
)

// Instance is the provider's view of one device session.
type Instance struct {
	ID    string        `json:"id"`
	Name  string        `json:"name"`
	State string        `json:"state"`
	Me    *InstanceUser `json:"me,omitempty"`
}

// InstanceUser carries the WhatsApp identity behind a connected instance.
type InstanceUser struct {
	User string `json:"user"`
}

type QRCode struct {
	QR string `json:"qr"`
}

type SendMessageRequest struct {
	To      string  `json:"to"`
	Body    *string `json:"body,omitempty"`
	Media   *string `json:"media,omitempty"`
	Caption *string `json:"caption,omitempty"`
}

type SendMessageResponse struct {
	MessageID string `json:"messageId"`
}

// Client talks to one bridge deployment.
type Client interface {
	CreateInstance(ctx context.Context, name string) (*Instance, error)
	GetInstance(ctx context.Context, instanceID string) (*Instance, error)
	GetQRCode(ctx context.Context, instanceID string) (*QRCode, error)
	SendMessage(ctx context.Context, instanceID string, req SendMessageRequest) (*SendMessageResponse, error)
	DeleteInstance(ctx context.Context, instanceID string) error
}

// ClientFactory returns a client bound to one bridge deployment. Self-hosted
// accounts carry their own base URL and key; platform accounts use the
// configured defaults.
type ClientFactory func(baseURL, apiKey string) Client

// NormalizeState maps the provider's connectivity vocabulary onto session
// status. The casing is inconsistent across provider event sources, so
// matching is case-insensitive. Unknown states return false and callers
// treat them as no-ops.
func NormalizeState(raw string) (model.SessionStatus, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "CONNECTED":
		return model.SessionStatusConnected, true
	case "DISCONNECTED":
		return model.SessionStatusDisconnected, true
	default:
		return "", false
	}
}

// NormalizeMessageStatus maps delivery receipt vocabulary onto message
// status, again case-insensitively with unknowns as no-ops.
func NormalizeMessageStatus(raw string) (model.MessageStatus, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "DELIVERED", "ACK":
		return model.MessageStatusDelivered, true
	case "READ":
		return model.MessageStatusRead, true
	case "FAILED", "ERROR":
		return model.MessageStatusFailed, true
	default:
		return "", false
	}
}
