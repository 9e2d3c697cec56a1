package service

import (
	"context"

	"github.com/PayAidPayments/payaid-whatsapp/internal/audit"
	apperrors "github.com/PayAidPayments/payaid-whatsapp/internal/errors"
	"github.com/PayAidPayments/payaid-whatsapp/internal/identity"
	"github.com/PayAidPayments/payaid-whatsapp/internal/model"
	"github.com/PayAidPayments/payaid-whatsapp/internal/repository"
)

type ConversationListResult struct {
	Conversations []model.Conversation
	Total         int
}

type MessageListResult struct {
	Messages []model.Message
	Total    int
}

// ConversationService serves the tenant-facing inbox reads and the few
// conversation mutations (mark read, status/ticket changes). Threading
// itself is the ConversationRouter's job.
type ConversationService struct {
	guard       *Guard
	convRepo    repository.ConversationRepository
	messageRepo repository.MessageRepository
	recorder    *audit.Recorder
}

func NewConversationService(
	guard *Guard,
	convRepo repository.ConversationRepository,
	messageRepo repository.MessageRepository,
	recorder *audit.Recorder,
) *ConversationService {
	return &ConversationService{
		guard:       guard,
		convRepo:    convRepo,
		messageRepo: messageRepo,
		recorder:    recorder,
	}
}

func (s *ConversationService) List(ctx context.Context, ident *identity.Identity, accountID string, status *model.ConversationStatus, limit, offset int) (*ConversationListResult, error) {
	account, err := s.guard.Account(ctx, ident, accountID)
	if err != nil {
		return nil, err
	}

	convs, err := s.convRepo.FindByAccountID(ctx, account.ID, status, limit, offset)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	total, err := s.convRepo.CountByAccountID(ctx, account.ID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return &ConversationListResult{Conversations: convs, Total: total}, nil
}

func (s *ConversationService) Get(ctx context.Context, ident *identity.Identity, conversationID string) (*model.Conversation, error) {
	conv, _, err := s.guard.Conversation(ctx, ident, conversationID)
	return conv, err
}

func (s *ConversationService) Messages(ctx context.Context, ident *identity.Identity, conversationID string, limit, offset int) (*MessageListResult, error) {
	conv, _, err := s.guard.Conversation(ctx, ident, conversationID)
	if err != nil {
		return nil, err
	}

	messages, err := s.messageRepo.FindByConversationID(ctx, conv.ID, limit, offset)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	total, err := s.messageRepo.CountByConversationID(ctx, conv.ID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return &MessageListResult{Messages: messages, Total: total}, nil
}

// MarkRead zeroes the unread counter after the operator opened the thread.
func (s *ConversationService) MarkRead(ctx context.Context, ident *identity.Identity, conversationID string) (*model.Conversation, error) {
	conv, account, err := s.guard.Conversation(ctx, ident, conversationID)
	if err != nil {
		return nil, err
	}

	updated, err := s.convRepo.MarkRead(ctx, conv.ID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if updated == nil {
		return nil, apperrors.NotFound("Conversation")
	}

	s.recorder.Record(ctx, audit.Entry{
		AccountID:   account.ID,
		Action:      audit.ActionConversationRead,
		Status:      model.AuditStatusSuccess,
		Description: "conversation marked read",
		UserID:      &ident.UserID,
	})

	return updated, nil
}

func (s *ConversationService) Update(ctx context.Context, ident *identity.Identity, conversationID string, params model.UpdateConversationParams) (*model.Conversation, error) {
	if params.Status != nil {
		switch *params.Status {
		case model.ConversationStatusOpen, model.ConversationStatusClosed, model.ConversationStatusArchived:
		default:
			return nil, apperrors.InvalidInput("status", "must be open, closed or archived")
		}
	}

	conv, _, err := s.guard.Conversation(ctx, ident, conversationID)
	if err != nil {
		return nil, err
	}

	updated, err := s.convRepo.Update(ctx, conv.ID, params)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if updated == nil {
		return nil, apperrors.NotFound("Conversation")
	}
	return updated, nil
}
