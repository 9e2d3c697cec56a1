package service

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/PayAidPayments/payaid-whatsapp/internal/audit"
	apperrors "github.com/PayAidPayments/payaid-whatsapp/internal/errors"
	"github.com/PayAidPayments/payaid-whatsapp/internal/events"
	"github.com/PayAidPayments/payaid-whatsapp/internal/identity"
	"github.com/PayAidPayments/payaid-whatsapp/internal/model"
	"github.com/PayAidPayments/payaid-whatsapp/internal/provider"
	"github.com/PayAidPayments/payaid-whatsapp/internal/repository"
	"github.com/PayAidPayments/payaid-whatsapp/internal/util"
)

const sendErrorCode = string(apperrors.ErrCodeProvider)

// MessageDispatcher builds and sends outbound messages through the bridge.
// Once a send is attempted against the provider, exactly one message row is
// written whatever the outcome; a failed attempt is recorded with
// status=failed and the provider's error detail, never silently dropped.
type MessageDispatcher struct {
	db           TxRunner
	guard        *Guard
	convRepo     repository.ConversationRepository
	messageRepo  repository.MessageRepository
	sessionRepo  repository.SessionRepository
	contactRepo  repository.ContactRepository
	templateRepo repository.TemplateRepository
	clients      *ProviderClients
	recorder     *audit.Recorder
	publisher    EventPublisher
}

func NewMessageDispatcher(
	db TxRunner,
	guard *Guard,
	convRepo repository.ConversationRepository,
	messageRepo repository.MessageRepository,
	sessionRepo repository.SessionRepository,
	contactRepo repository.ContactRepository,
	templateRepo repository.TemplateRepository,
	clients *ProviderClients,
	recorder *audit.Recorder,
	publisher EventPublisher,
) *MessageDispatcher {
	return &MessageDispatcher{
		db:           db,
		guard:        guard,
		convRepo:     convRepo,
		messageRepo:  messageRepo,
		sessionRepo:  sessionRepo,
		contactRepo:  contactRepo,
		templateRepo: templateRepo,
		clients:      clients,
		recorder:     recorder,
		publisher:    publisher,
	}
}

// Send dispatches one outbound message on a conversation. Validation,
// authorization, session picking and destination resolution all happen
// before any provider I/O, and a failure there writes nothing. The caller
// must inspect the returned message's status: the call succeeding does not
// mean the provider accepted the message.
func (d *MessageDispatcher) Send(ctx context.Context, ident *identity.Identity, conversationID string, payload *model.SendPayload) (*model.Message, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	conv, account, err := d.guard.Conversation(ctx, ident, conversationID)
	if err != nil {
		return nil, err
	}

	session, err := d.pickSession(ctx, conv)
	if err != nil {
		d.recorder.Record(ctx, audit.Failure(account.ID, audit.ActionMessageSend, "send rejected: no connected session", err))
		return nil, err
	}

	contactIdentity, err := d.contactRepo.FindIdentityByContactID(ctx, conv.ContactID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if contactIdentity == nil || contactIdentity.PhoneNumber == "" {
		missingErr := apperrors.MissingContactNumber()
		d.recorder.Record(ctx, audit.Failure(account.ID, audit.ActionMessageSend, "send rejected: contact has no phone number", missingErr))
		return nil, missingErr
	}

	req, templateID, err := d.buildRequest(ctx, ident, payload, contactIdentity.PhoneNumber)
	if err != nil {
		return nil, err
	}

	client, err := d.clients.For(account)
	if err != nil {
		d.recorder.Record(ctx, audit.Failure(account.ID, audit.ActionMessageSend, "send rejected: provider not configured", err))
		return nil, err
	}

	now := time.Now()
	params := model.CreateMessageParams{
		ConversationID: conv.ID,
		SessionID:      &session.ID,
		Direction:      model.DirectionOutbound,
		MessageType:    payload.MessageType(),
		FromNumber:     session.PhoneNumber,
		ToNumber:       &contactIdentity.PhoneNumber,
		Text:           req.Body,
		MediaURL:       req.Media,
		MediaCaption:   req.Caption,
		TemplateID:     templateID,
		SentAt:         &now,
	}
	if payload.Media != nil {
		params.MediaMimeType = payload.Media.MimeType
	}

	resp, sendErr := client.SendMessage(ctx, session.ProviderSessionID, *req)
	if sendErr != nil {
		params.Status = model.MessageStatusFailed
		code := sendErrorCode
		detail := sendErr.Error()
		params.ErrorCode = &code
		params.ErrorMessage = &detail
	} else {
		params.Status = model.MessageStatusSent
		if resp.MessageID != "" {
			params.ProviderMessageID = &resp.MessageID
		}
	}

	var message *model.Message
	err = d.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		msg, err := d.messageRepo.WithTx(tx).Create(ctx, params)
		if err != nil {
			return err
		}
		if err := d.convRepo.WithTx(tx).RecordMessage(ctx, conv.ID, model.DirectionOutbound, now, 0); err != nil {
			return err
		}
		if err := d.sessionRepo.WithTx(tx).IncrementSentCount(ctx, session.ID); err != nil {
			return err
		}
		message = msg
		return nil
	})
	if err != nil {
		d.recorder.Record(ctx, audit.Failure(account.ID, audit.ActionMessageSend, "send outcome persistence failed", apperrors.Database(err)))
		return nil, apperrors.Database(err)
	}

	if sendErr != nil {
		d.recorder.Record(ctx, audit.Entry{
			AccountID:   account.ID,
			SessionID:   &session.ID,
			Action:      audit.ActionMessageSend,
			Status:      model.AuditStatusFailure,
			Description: "provider rejected outbound message to " + util.MaskPhone(contactIdentity.PhoneNumber),
			ErrorCode:   params.ErrorCode,
			UserID:      &ident.UserID,
		})
		log.Warn().
			Err(sendErr).
			Str("messageId", message.ID).
			Str("conversationId", conv.ID).
			Msg("outbound send failed, recorded with status=failed")
	} else {
		d.recorder.Record(ctx, audit.Entry{
			AccountID:   account.ID,
			SessionID:   &session.ID,
			Action:      audit.ActionMessageSend,
			Status:      model.AuditStatusSuccess,
			Description: "outbound message sent to " + util.MaskPhone(contactIdentity.PhoneNumber),
			UserID:      &ident.UserID,
		})
		log.Info().
			Str("messageId", message.ID).
			Str("conversationId", conv.ID).
			Str("sessionId", session.ID).
			Msg("outbound message sent")
	}

	d.publishMessage(ctx, ident.TenantID, message)

	return message, nil
}

// pickSession prefers the conversation's bound session when it is still
// connected, then falls back to the first connected session on the account.
// No connected session anywhere means the send is rejected before any
// message row exists.
func (d *MessageDispatcher) pickSession(ctx context.Context, conv *model.Conversation) (*model.Session, error) {
	if conv.SessionID != nil {
		session, err := d.sessionRepo.FindByID(ctx, *conv.SessionID)
		if err != nil {
			return nil, apperrors.Database(err)
		}
		if session != nil && session.Status == model.SessionStatusConnected {
			return session, nil
		}
	}

	session, err := d.sessionRepo.FindFirstConnectedByAccountID(ctx, conv.AccountID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if session == nil {
		return nil, apperrors.NoActiveSession()
	}
	return session, nil
}

func (d *MessageDispatcher) buildRequest(ctx context.Context, ident *identity.Identity, payload *model.SendPayload, toNumber string) (*provider.SendMessageRequest, *string, error) {
	req := &provider.SendMessageRequest{
		To: util.ProviderAddress(toNumber),
	}

	switch {
	case payload.Text != nil:
		req.Body = &payload.Text.Body
		return req, nil, nil

	case payload.Media != nil:
		req.Media = &payload.Media.URL
		req.Caption = payload.Media.Caption
		return req, nil, nil

	default:
		tpl, err := d.guard.Template(ctx, ident, payload.Template.TemplateID)
		if err != nil {
			return nil, nil, err
		}
		if !tpl.IsActive {
			return nil, nil, apperrors.ValidationError("Template is not active")
		}
		body := renderTemplate(tpl.Body, payload.Template.Variables)
		req.Body = &body
		return req, &tpl.ID, nil
	}
}

// renderTemplate substitutes {{name}} placeholders. Unknown placeholders
// are left in place so a half-filled send is visible to the operator.
func renderTemplate(body string, variables map[string]string) string {
	for name, value := range variables {
		body = strings.ReplaceAll(body, "{{"+name+"}}", value)
	}
	return body
}

func (d *MessageDispatcher) publishMessage(ctx context.Context, tenantID string, message *model.Message) {
	if d.publisher == nil {
		return
	}
	event := events.Event{Type: events.TypeMessageSent, Data: message.ToEventData()}
	if err := d.publisher.Publish(ctx, tenantID, event); err != nil {
		log.Warn().Err(err).Str("messageId", message.ID).Msg("failed to publish message event")
	}
}
