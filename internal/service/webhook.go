package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/PayAidPayments/payaid-whatsapp/internal/audit"
	apperrors "github.com/PayAidPayments/payaid-whatsapp/internal/errors"
	"github.com/PayAidPayments/payaid-whatsapp/internal/events"
	"github.com/PayAidPayments/payaid-whatsapp/internal/model"
	"github.com/PayAidPayments/payaid-whatsapp/internal/provider"
	"github.com/PayAidPayments/payaid-whatsapp/internal/repository"
	"github.com/PayAidPayments/payaid-whatsapp/internal/util"
)

// IncomingMessage is a provider message event after defensive field
// extraction in the handler layer.
type IncomingMessage struct {
	From              string
	Body              string
	Type              string
	ProviderMessageID string
	Timestamp         time.Time
	MediaURL          *string
	MediaMimeType     *string
	MediaCaption      *string
}

// StatusUpdate is a provider delivery receipt event.
type StatusUpdate struct {
	ProviderMessageID string
	Status            string
	Timestamp         time.Time
}

// WebhookIngestor is the entry point for provider-initiated events. Events
// that cannot be attributed — unknown instance, unknown message id — are
// logged and dropped; the provider does not retry and neither do we.
type WebhookIngestor struct {
	sessionRepo repository.SessionRepository
	accountRepo repository.AccountRepository
	messageRepo repository.MessageRepository
	router      *ConversationRouter
	recorder    *audit.Recorder
	publisher   EventPublisher
}

func NewWebhookIngestor(
	sessionRepo repository.SessionRepository,
	accountRepo repository.AccountRepository,
	messageRepo repository.MessageRepository,
	router *ConversationRouter,
	recorder *audit.Recorder,
	publisher EventPublisher,
) *WebhookIngestor {
	return &WebhookIngestor{
		sessionRepo: sessionRepo,
		accountRepo: accountRepo,
		messageRepo: messageRepo,
		router:      router,
		recorder:    recorder,
		publisher:   publisher,
	}
}

// HandleIncomingMessage routes one inbound provider message to its contact
// and conversation. The returned message is nil when the event was dropped
// (unknown instance, unusable sender) or deduplicated as a replay.
func (w *WebhookIngestor) HandleIncomingMessage(ctx context.Context, instanceID string, msg IncomingMessage) (*model.Message, error) {
	session, err := w.sessionRepo.FindByProviderSessionID(ctx, instanceID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if session == nil {
		log.Warn().
			Str("instanceId", instanceID).
			Msg("inbound message for unknown instance dropped")
		return nil, nil
	}

	account, err := w.accountRepo.FindByID(ctx, session.AccountID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if account == nil {
		log.Warn().
			Str("instanceId", instanceID).
			Str("sessionId", session.ID).
			Msg("inbound message for session without account dropped")
		return nil, nil
	}

	phone := util.NormalizePhone(msg.From)
	if phone == "" {
		log.Warn().
			Str("sessionId", session.ID).
			Msg("inbound message without usable sender number dropped")
		return nil, nil
	}

	contact, err := w.router.ResolveContact(ctx, account.TenantID, phone)
	if err != nil {
		return nil, err
	}

	conv, err := w.router.ResolveConversation(ctx, account.ID, contact.ID, &session.ID)
	if err != nil {
		return nil, err
	}

	var text *string
	if msg.Body != "" {
		text = &msg.Body
	}
	recorded, err := w.router.RecordInbound(ctx, RecordInboundParams{
		Conversation:      conv,
		Session:           session,
		MessageType:       normalizeMessageType(msg.Type),
		ProviderMessageID: msg.ProviderMessageID,
		FromNumber:        phone,
		Text:              text,
		MediaURL:          msg.MediaURL,
		MediaMimeType:     msg.MediaMimeType,
		MediaCaption:      msg.MediaCaption,
		ReceivedAt:        msg.Timestamp,
	})
	if err != nil {
		w.recorder.Record(ctx, audit.Failure(account.ID, audit.ActionMessageReceive, "inbound message persistence failed", err))
		return nil, err
	}
	if recorded == nil {
		// Replayed webhook; already recorded once.
		return nil, nil
	}

	w.recorder.Record(ctx, audit.Entry{
		AccountID:   account.ID,
		SessionID:   &session.ID,
		Action:      audit.ActionMessageReceive,
		Status:      model.AuditStatusSuccess,
		Description: "inbound message from " + util.MaskPhone(phone),
	})

	if w.publisher != nil {
		event := events.Event{Type: events.TypeMessageReceived, Data: recorded.ToEventData()}
		if err := w.publisher.Publish(ctx, account.TenantID, event); err != nil {
			log.Warn().Err(err).Str("messageId", recorded.ID).Msg("failed to publish inbound message event")
		}
	}

	log.Info().
		Str("messageId", recorded.ID).
		Str("conversationId", conv.ID).
		Str("sessionId", session.ID).
		Msg("inbound message recorded")

	return recorded, nil
}

// HandleStatusUpdate applies a delivery receipt to the message it refers
// to. Updates are monotonic: delivered_at is set once, read_at follows the
// latest read event, and read/failed are terminal. Replayed or regressive
// events apply to zero rows and report applied=false.
func (w *WebhookIngestor) HandleStatusUpdate(ctx context.Context, update StatusUpdate) (bool, error) {
	if update.ProviderMessageID == "" {
		return false, nil
	}

	message, err := w.messageRepo.FindByProviderMessageID(ctx, update.ProviderMessageID)
	if err != nil {
		return false, apperrors.Database(err)
	}
	if message == nil {
		log.Debug().
			Str("providerMessageId", update.ProviderMessageID).
			Msg("status update for unknown message dropped")
		return false, nil
	}

	status, ok := provider.NormalizeMessageStatus(update.Status)
	if !ok {
		log.Debug().
			Str("providerMessageId", update.ProviderMessageID).
			Str("status", update.Status).
			Msg("unrecognized provider status ignored")
		return false, nil
	}

	at := update.Timestamp
	if at.IsZero() {
		at = time.Now()
	}

	var applied bool
	switch status {
	case model.MessageStatusDelivered:
		applied, err = w.messageRepo.MarkDelivered(ctx, message.ID, at)
	case model.MessageStatusRead:
		applied, err = w.messageRepo.MarkRead(ctx, message.ID, at)
	case model.MessageStatusFailed:
		code := "PROVIDER_REPORTED"
		detail := "provider reported delivery failure"
		applied, err = w.messageRepo.MarkFailed(ctx, message.ID, &code, &detail)
	}
	if err != nil {
		return false, apperrors.Database(err)
	}
	if !applied {
		log.Debug().
			Str("messageId", message.ID).
			Str("status", string(status)).
			Msg("status update was a no-op")
		return false, nil
	}

	w.publishStatus(ctx, message, status, at)

	log.Info().
		Str("messageId", message.ID).
		Str("status", string(status)).
		Msg("message status updated")

	return true, nil
}

func (w *WebhookIngestor) publishStatus(ctx context.Context, message *model.Message, status model.MessageStatus, at time.Time) {
	if w.publisher == nil {
		return
	}

	conv, err := w.router.convRepo.FindByID(ctx, message.ConversationID)
	if err != nil || conv == nil {
		return
	}
	account, err := w.accountRepo.FindByID(ctx, conv.AccountID)
	if err != nil || account == nil {
		return
	}

	data, _ := json.Marshal(map[string]any{
		"messageId":      message.ID,
		"conversationId": message.ConversationID,
		"status":         status,
		"at":             at,
	})
	if err := w.publisher.Publish(ctx, account.TenantID, events.Event{Type: events.TypeMessageStatus, Data: data}); err != nil {
		log.Warn().Err(err).Str("messageId", message.ID).Msg("failed to publish status event")
	}
}

// normalizeMessageType maps the provider's message type vocabulary onto
// ours, defaulting to text for anything unrecognized.
func normalizeMessageType(raw string) model.MessageType {
	switch raw {
	case "image":
		return model.MessageTypeImage
	case "video":
		return model.MessageTypeVideo
	case "audio", "ptt":
		return model.MessageTypeAudio
	case "document":
		return model.MessageTypeDocument
	default:
		return model.MessageTypeText
	}
}
