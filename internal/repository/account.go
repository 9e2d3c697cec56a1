package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/PayAidPayments/payaid-whatsapp/internal/model"
)

type AccountRepository interface {
	FindByID(ctx context.Context, id string) (*model.Account, error)
	FindByTenant(ctx context.Context, tenantID string, limit, offset int) ([]model.Account, error)
	CountByTenant(ctx context.Context, tenantID string) (int, error)
	Create(ctx context.Context, params model.CreateAccountParams) (*model.Account, error)
	Update(ctx context.Context, id string, params model.UpdateAccountParams) (*model.Account, error)
	UpdateStatus(ctx context.Context, id string, status model.AccountStatus, errorMessage *string) (*model.Account, error)
	Delete(ctx context.Context, id string) error
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) AccountRepository
}

type accountRepo struct {
	db sqlxDB
}

func NewAccountRepository(db *sqlx.DB) AccountRepository {
	return &accountRepo{db: db}
}

func (r *accountRepo) WithTx(tx *sqlx.Tx) AccountRepository {
	return &accountRepo{db: tx}
}

func (r *accountRepo) FindByID(ctx context.Context, id string) (*model.Account, error) {
	var account model.Account
	err := r.db.GetContext(ctx, &account, `
		SELECT * FROM accounts WHERE id = $1
	`, id)
	return HandleNotFound(&account, err)
}

func (r *accountRepo) FindByTenant(ctx context.Context, tenantID string, limit, offset int) ([]model.Account, error) {
	var accounts []model.Account
	err := r.db.SelectContext(ctx, &accounts, `
		SELECT * FROM accounts
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *accountRepo) CountByTenant(ctx context.Context, tenantID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM accounts WHERE tenant_id = $1
	`, tenantID)
	return count, err
}

func (r *accountRepo) Create(ctx context.Context, params model.CreateAccountParams) (*model.Account, error) {
	var account model.Account
	err := r.db.GetContext(ctx, &account, `
		INSERT INTO accounts
			(tenant_id, deployment_type, provider_base_url, provider_api_key,
			 business_name, primary_phone, status)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending')
		RETURNING *
	`, params.TenantID, params.DeploymentType, params.ProviderBaseURL,
		params.ProviderAPIKey, params.BusinessName, params.PrimaryPhone)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepo) Update(ctx context.Context, id string, params model.UpdateAccountParams) (*model.Account, error) {
	var account model.Account
	err := r.db.GetContext(ctx, &account, `
		UPDATE accounts SET
			business_name = COALESCE($2, business_name),
			primary_phone = COALESCE($3, primary_phone),
			provider_base_url = COALESCE($4, provider_base_url),
			provider_api_key = COALESCE($5, provider_api_key),
			status = COALESCE($6, status),
			error_message = COALESCE($7, error_message),
			updated_at = $8
		WHERE id = $1
		RETURNING *
	`, id, params.BusinessName, params.PrimaryPhone, params.ProviderBaseURL,
		params.ProviderAPIKey, params.Status, params.ErrorMessage, time.Now())
	return HandleNotFound(&account, err)
}

func (r *accountRepo) UpdateStatus(ctx context.Context, id string, status model.AccountStatus, errorMessage *string) (*model.Account, error) {
	var account model.Account
	err := r.db.GetContext(ctx, &account, `
		UPDATE accounts SET
			status = $2,
			error_message = $3,
			updated_at = $4
		WHERE id = $1
		RETURNING *
	`, id, status, errorMessage, time.Now())
	return HandleNotFound(&account, err)
}

func (r *accountRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	return err
}
