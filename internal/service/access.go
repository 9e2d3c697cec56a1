package service

import (
	"context"

	apperrors "github.com/PayAidPayments/payaid-whatsapp/internal/errors"
	"github.com/PayAidPayments/payaid-whatsapp/internal/identity"
	"github.com/PayAidPayments/payaid-whatsapp/internal/model"
	"github.com/PayAidPayments/payaid-whatsapp/internal/repository"
)

// Guard resolves resources and enforces tenant ownership before any
// account-scoped operation runs. A foreign-tenant reference fails with
// TENANT_MISMATCH, which the HTTP layer renders as a plain not-found so
// existence never leaks.
type Guard struct {
	accountRepo  repository.AccountRepository
	sessionRepo  repository.SessionRepository
	convRepo     repository.ConversationRepository
	templateRepo repository.TemplateRepository
}

func NewGuard(
	accountRepo repository.AccountRepository,
	sessionRepo repository.SessionRepository,
	convRepo repository.ConversationRepository,
	templateRepo repository.TemplateRepository,
) *Guard {
	return &Guard{
		accountRepo:  accountRepo,
		sessionRepo:  sessionRepo,
		convRepo:     convRepo,
		templateRepo: templateRepo,
	}
}

func (g *Guard) Account(ctx context.Context, ident *identity.Identity, accountID string) (*model.Account, error) {
	account, err := g.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if account == nil {
		return nil, apperrors.NotFound("Account")
	}
	if account.TenantID != ident.TenantID {
		return nil, apperrors.TenantMismatch("Account")
	}
	return account, nil
}

// Session resolves a session and the account that owns it, checking the
// account's tenant against the caller.
func (g *Guard) Session(ctx context.Context, ident *identity.Identity, sessionID string) (*model.Session, *model.Account, error) {
	session, err := g.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, nil, apperrors.Database(err)
	}
	if session == nil {
		return nil, nil, apperrors.NotFound("Session")
	}
	account, err := g.Account(ctx, ident, session.AccountID)
	if err != nil {
		if code := apperrors.GetCode(err); code == apperrors.ErrCodeTenantMismatch {
			return nil, nil, apperrors.TenantMismatch("Session")
		}
		return nil, nil, err
	}
	return session, account, nil
}

// Conversation resolves a conversation through its owning account.
func (g *Guard) Conversation(ctx context.Context, ident *identity.Identity, conversationID string) (*model.Conversation, *model.Account, error) {
	conv, err := g.convRepo.FindByID(ctx, conversationID)
	if err != nil {
		return nil, nil, apperrors.Database(err)
	}
	if conv == nil {
		return nil, nil, apperrors.NotFound("Conversation")
	}
	account, err := g.Account(ctx, ident, conv.AccountID)
	if err != nil {
		if code := apperrors.GetCode(err); code == apperrors.ErrCodeTenantMismatch {
			return nil, nil, apperrors.TenantMismatch("Conversation")
		}
		return nil, nil, err
	}
	return conv, account, nil
}

// Template checks tenant ownership directly since templates hang off the
// tenant, not an account.
func (g *Guard) Template(ctx context.Context, ident *identity.Identity, templateID string) (*model.Template, error) {
	tpl, err := g.templateRepo.FindByID(ctx, templateID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if tpl == nil {
		return nil, apperrors.NotFound("Template")
	}
	if tpl.TenantID != ident.TenantID {
		return nil, apperrors.TenantMismatch("Template")
	}
	return tpl, nil
}
