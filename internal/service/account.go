package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/PayAidPayments/payaid-whatsapp/internal/audit"
	apperrors "github.com/PayAidPayments/payaid-whatsapp/internal/errors"
	"github.com/PayAidPayments/payaid-whatsapp/internal/identity"
	"github.com/PayAidPayments/payaid-whatsapp/internal/model"
	"github.com/PayAidPayments/payaid-whatsapp/internal/repository"
)

type AccountListResult struct {
	Accounts []model.Account
	Total    int
}

// AccountService handles onboarding and maintenance of a tenant's provider
// bindings.
type AccountService struct {
	guard       *Guard
	accountRepo repository.AccountRepository
	auditRepo   repository.AuditLogRepository
	recorder    *audit.Recorder
}

func NewAccountService(
	guard *Guard,
	accountRepo repository.AccountRepository,
	auditRepo repository.AuditLogRepository,
	recorder *audit.Recorder,
) *AccountService {
	return &AccountService{
		guard:       guard,
		accountRepo: accountRepo,
		auditRepo:   auditRepo,
		recorder:    recorder,
	}
}

func (s *AccountService) Create(ctx context.Context, ident *identity.Identity, params model.CreateAccountParams) (*model.Account, error) {
	if params.BusinessName == "" {
		return nil, apperrors.MissingRequired("businessName")
	}
	switch params.DeploymentType {
	case model.DeploymentPlatform:
		// Platform deployments use the configured bridge.
	case model.DeploymentSelfHosted:
		if params.ProviderBaseURL == nil || *params.ProviderBaseURL == "" {
			return nil, apperrors.MissingRequired("providerBaseUrl")
		}
	default:
		return nil, apperrors.InvalidInput("deploymentType", "must be platform or self_hosted")
	}

	params.TenantID = ident.TenantID
	account, err := s.accountRepo.Create(ctx, params)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	s.recorder.Record(ctx, audit.Entry{
		AccountID:   account.ID,
		Action:      audit.ActionAccountCreate,
		Status:      model.AuditStatusSuccess,
		Description: "account created for " + account.BusinessName,
		UserID:      &ident.UserID,
	})

	log.Info().
		Str("accountId", account.ID).
		Str("tenantId", account.TenantID).
		Msg("account created")

	return account, nil
}

func (s *AccountService) Get(ctx context.Context, ident *identity.Identity, accountID string) (*model.Account, error) {
	return s.guard.Account(ctx, ident, accountID)
}

func (s *AccountService) List(ctx context.Context, ident *identity.Identity, limit, offset int) (*AccountListResult, error) {
	accounts, err := s.accountRepo.FindByTenant(ctx, ident.TenantID, limit, offset)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	total, err := s.accountRepo.CountByTenant(ctx, ident.TenantID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return &AccountListResult{Accounts: accounts, Total: total}, nil
}

func (s *AccountService) Update(ctx context.Context, ident *identity.Identity, accountID string, params model.UpdateAccountParams) (*model.Account, error) {
	account, err := s.guard.Account(ctx, ident, accountID)
	if err != nil {
		return nil, err
	}

	updated, err := s.accountRepo.Update(ctx, account.ID, params)
	if err != nil {
		dbErr := apperrors.Database(err)
		s.recorder.Record(ctx, audit.Failure(account.ID, audit.ActionAccountUpdate, "account update failed", dbErr))
		return nil, dbErr
	}

	s.recorder.Record(ctx, audit.Entry{
		AccountID:   account.ID,
		Action:      audit.ActionAccountUpdate,
		Status:      model.AuditStatusSuccess,
		Description: "account settings updated",
		UserID:      &ident.UserID,
	})

	return updated, nil
}

func (s *AccountService) Delete(ctx context.Context, ident *identity.Identity, accountID string) error {
	account, err := s.guard.Account(ctx, ident, accountID)
	if err != nil {
		return err
	}

	if err := s.accountRepo.Delete(ctx, account.ID); err != nil {
		dbErr := apperrors.Database(err)
		s.recorder.Record(ctx, audit.Failure(account.ID, audit.ActionAccountDelete, "account delete failed", dbErr))
		return dbErr
	}

	s.recorder.Record(ctx, audit.Entry{
		AccountID:   account.ID,
		Action:      audit.ActionAccountDelete,
		Status:      model.AuditStatusSuccess,
		Description: "account deleted",
		UserID:      &ident.UserID,
	})

	log.Info().Str("accountId", account.ID).Msg("account deleted")
	return nil
}

type AuditTrailResult struct {
	Entries []model.AuditLogEntry
	Total   int
}

// AuditTrail lists the account's append-only action log, newest first.
func (s *AccountService) AuditTrail(ctx context.Context, ident *identity.Identity, accountID string, limit, offset int) (*AuditTrailResult, error) {
	account, err := s.guard.Account(ctx, ident, accountID)
	if err != nil {
		return nil, err
	}

	entries, err := s.auditRepo.FindByAccountID(ctx, account.ID, limit, offset)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	total, err := s.auditRepo.CountByAccountID(ctx, account.ID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return &AuditTrailResult{Entries: entries, Total: total}, nil
}
