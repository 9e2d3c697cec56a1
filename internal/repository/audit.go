package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/PayAidPayments/payaid-whatsapp/internal/model"
)

// AuditLogRepository is append-only. There is deliberately no update or
// delete operation.
type AuditLogRepository interface {
	Create(ctx context.Context, params model.CreateAuditEntryParams) (*model.AuditLogEntry, error)
	FindByAccountID(ctx context.Context, accountID string, limit, offset int) ([]model.AuditLogEntry, error)
	CountByAccountID(ctx context.Context, accountID string) (int, error)
}

type auditLogRepo struct {
	db sqlxDB
}

func NewAuditLogRepository(db *sqlx.DB) AuditLogRepository {
	return &auditLogRepo{db: db}
}

func (r *auditLogRepo) Create(ctx context.Context, params model.CreateAuditEntryParams) (*model.AuditLogEntry, error) {
	var entry model.AuditLogEntry
	err := r.db.GetContext(ctx, &entry, `
		INSERT INTO audit_log
			(account_id, session_id, action, status, description,
			 error_code, user_id, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING *
	`, params.AccountID, params.SessionID, params.Action, params.Status,
		params.Description, params.ErrorCode, params.UserID, params.IPAddress,
		params.UserAgent)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *auditLogRepo) FindByAccountID(ctx context.Context, accountID string, limit, offset int) ([]model.AuditLogEntry, error) {
	var entries []model.AuditLogEntry
	err := r.db.SelectContext(ctx, &entries, `
		SELECT * FROM audit_log
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, accountID, limit, offset)
	return entries, err
}

func (r *auditLogRepo) CountByAccountID(ctx context.Context, accountID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM audit_log WHERE account_id = $1
	`, accountID)
	return count, err
}
