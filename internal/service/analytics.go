package service

import (
	"context"
	"time"

	apperrors "github.com/PayAidPayments/payaid-whatsapp/internal/errors"
	"github.com/PayAidPayments/payaid-whatsapp/internal/identity"
	"github.com/PayAidPayments/payaid-whatsapp/internal/model"
	"github.com/PayAidPayments/payaid-whatsapp/internal/repository"
)

// AccountStats is a live rollup computed from messages, sessions and
// conversations. The heavier offline analytics pipeline sits outside this
// service.
type AccountStats struct {
	Sessions struct {
		Total     int `json:"total"`
		Connected int `json:"connected"`
	} `json:"sessions"`
	Conversations struct {
		Total int `json:"total"`
	} `json:"conversations"`
	Messages struct {
		InboundToday  int `json:"inboundToday"`
		OutboundToday int `json:"outboundToday"`
		FailedToday   int `json:"failedToday"`
	} `json:"messages"`
}

type StatsService struct {
	guard       *Guard
	sessionRepo repository.SessionRepository
	convRepo    repository.ConversationRepository
	messageRepo repository.MessageRepository
}

func NewStatsService(
	guard *Guard,
	sessionRepo repository.SessionRepository,
	convRepo repository.ConversationRepository,
	messageRepo repository.MessageRepository,
) *StatsService {
	return &StatsService{
		guard:       guard,
		sessionRepo: sessionRepo,
		convRepo:    convRepo,
		messageRepo: messageRepo,
	}
}

func (s *StatsService) AccountStats(ctx context.Context, ident *identity.Identity, accountID string) (*AccountStats, error) {
	account, err := s.guard.Account(ctx, ident, accountID)
	if err != nil {
		return nil, err
	}

	stats := &AccountStats{}

	sessions, err := s.sessionRepo.FindByAccountID(ctx, account.ID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	stats.Sessions.Total = len(sessions)
	for _, sess := range sessions {
		if sess.Status == model.SessionStatusConnected {
			stats.Sessions.Connected++
		}
	}

	convTotal, err := s.convRepo.CountByAccountID(ctx, account.ID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	stats.Conversations.Total = convTotal

	now := time.Now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	inbound, err := s.messageRepo.CountByAccountSince(ctx, account.ID, model.DirectionInbound, todayStart)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	stats.Messages.InboundToday = inbound

	outbound, err := s.messageRepo.CountByAccountSince(ctx, account.ID, model.DirectionOutbound, todayStart)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	stats.Messages.OutboundToday = outbound

	failed, err := s.messageRepo.CountByAccountAndStatusSince(ctx, account.ID, model.MessageStatusFailed, todayStart)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	stats.Messages.FailedToday = failed

	return stats, nil
}
