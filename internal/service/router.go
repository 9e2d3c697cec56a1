package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/PayAidPayments/payaid-whatsapp/internal/database"
	apperrors "github.com/PayAidPayments/payaid-whatsapp/internal/errors"
	"github.com/PayAidPayments/payaid-whatsapp/internal/model"
	"github.com/PayAidPayments/payaid-whatsapp/internal/repository"
	"github.com/PayAidPayments/payaid-whatsapp/internal/util"
)

// TxRunner executes a function inside one database transaction.
// *database.DB satisfies it; tests substitute a stub.
type TxRunner interface {
	WithTx(ctx context.Context, fn database.TxFunc) error
}

type RecordInboundParams struct {
	Conversation      *model.Conversation
	Session           *model.Session
	MessageType       model.MessageType
	ProviderMessageID string
	FromNumber        string
	Text              *string
	MediaURL          *string
	MediaMimeType     *string
	MediaCaption      *string
	ReceivedAt        time.Time
}

// ConversationRouter resolves inbound traffic to a contact and the single
// conversation thread for that contact on the account, then records the
// message with its counter updates as one atomic unit.
type ConversationRouter struct {
	db          TxRunner
	contactRepo repository.ContactRepository
	convRepo    repository.ConversationRepository
	messageRepo repository.MessageRepository
	sessionRepo repository.SessionRepository
}

func NewConversationRouter(
	db TxRunner,
	contactRepo repository.ContactRepository,
	convRepo repository.ConversationRepository,
	messageRepo repository.MessageRepository,
	sessionRepo repository.SessionRepository,
) *ConversationRouter {
	return &ConversationRouter{
		db:          db,
		contactRepo: contactRepo,
		convRepo:    convRepo,
		messageRepo: messageRepo,
		sessionRepo: sessionRepo,
	}
}

// ResolveContact finds the contact behind a phone number, creating the
// contact plus its identity mapping on first inbound contact. Concurrent
// first contacts for the same number race on the identity table's unique
// constraint; the loser re-reads the winner's row, so exactly one contact
// ever exists per number.
func (r *ConversationRouter) ResolveContact(ctx context.Context, tenantID, phoneNumber string) (*model.Contact, error) {
	identity, err := r.contactRepo.FindIdentityByPhone(ctx, tenantID, phoneNumber)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if identity != nil {
		contact, err := r.contactRepo.FindContactByID(ctx, identity.ContactID)
		if err != nil {
			return nil, apperrors.Database(err)
		}
		if contact == nil {
			return nil, apperrors.Internal("contact identity points at a missing contact")
		}
		return contact, nil
	}

	name := util.MaskPhone(phoneNumber)
	var created *model.Contact
	err = r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		contacts := r.contactRepo.WithTx(tx)
		contact, err := contacts.CreateContact(ctx, model.CreateContactParams{
			TenantID: tenantID,
			Name:     &name,
		})
		if err != nil {
			return err
		}
		if _, err := contacts.CreateIdentity(ctx, tenantID, contact.ID, phoneNumber); err != nil {
			return err
		}
		created = contact
		return nil
	})
	if err == nil {
		log.Info().
			Str("contactId", created.ID).
			Str("tenantId", tenantID).
			Str("phone", util.MaskPhone(phoneNumber)).
			Msg("contact created on first inbound contact")
		return created, nil
	}

	if !repository.IsUniqueViolation(err) {
		return nil, apperrors.Database(err)
	}

	// Lost the first-contact race; the whole transaction rolled back and
	// the winner's identity row is there to read.
	identity, ferr := r.contactRepo.FindIdentityByPhone(ctx, tenantID, phoneNumber)
	if ferr != nil {
		return nil, apperrors.Database(ferr)
	}
	if identity == nil {
		return nil, apperrors.Database(err)
	}
	contact, err := r.contactRepo.FindContactByID(ctx, identity.ContactID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if contact == nil {
		return nil, apperrors.Internal("contact identity points at a missing contact")
	}
	return contact, nil
}

// ResolveConversation returns the single thread for the (account, contact)
// pair, creating it open and bound to the originating session when absent.
func (r *ConversationRouter) ResolveConversation(ctx context.Context, accountID, contactID string, sessionID *string) (*model.Conversation, error) {
	conv, err := r.convRepo.Upsert(ctx, model.CreateConversationParams{
		AccountID: accountID,
		ContactID: contactID,
		SessionID: sessionID,
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return conv, nil
}

// RecordInbound writes the message and its side effects as one transaction:
// the message row, the conversation's unread/last-message fields and the
// session's daily receive counter. A replayed provider message id lands on
// the dedup constraint and returns nil with no counter movement.
func (r *ConversationRouter) RecordInbound(ctx context.Context, params RecordInboundParams) (*model.Message, error) {
	providerMessageID := params.ProviderMessageID
	fromNumber := params.FromNumber
	receivedAt := params.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now()
	}

	var recorded *model.Message
	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		msg, err := r.messageRepo.WithTx(tx).CreateDeduped(ctx, model.CreateMessageParams{
			ConversationID:    params.Conversation.ID,
			SessionID:         &params.Session.ID,
			Direction:         model.DirectionInbound,
			MessageType:       params.MessageType,
			ProviderMessageID: &providerMessageID,
			FromNumber:        &fromNumber,
			ToNumber:          params.Session.PhoneNumber,
			Text:              params.Text,
			MediaURL:          params.MediaURL,
			MediaMimeType:     params.MediaMimeType,
			MediaCaption:      params.MediaCaption,
			Status:            model.MessageStatusReceived,
			SentAt:            &receivedAt,
		})
		if err != nil {
			return err
		}
		if msg == nil {
			// Replay: leave every counter untouched.
			return nil
		}

		if err := r.convRepo.WithTx(tx).RecordMessage(ctx, params.Conversation.ID, model.DirectionInbound, receivedAt, 1); err != nil {
			return err
		}
		if err := r.sessionRepo.WithTx(tx).IncrementRecvCount(ctx, params.Session.ID); err != nil {
			return err
		}

		recorded = msg
		return nil
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}

	if recorded == nil {
		log.Debug().
			Str("conversationId", params.Conversation.ID).
			Str("providerMessageId", params.ProviderMessageID).
			Msg("duplicate inbound message dropped")
		return nil, nil
	}

	return recorded, nil
}
