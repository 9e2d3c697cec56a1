package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/PayAidPayments/payaid-whatsapp/internal/model"
)

type SessionRepository interface {
	FindByID(ctx context.Context, id string) (*model.Session, error)
	FindByProviderSessionID(ctx context.Context, providerSessionID string) (*model.Session, error)
	FindByAccountID(ctx context.Context, accountID string) ([]model.Session, error)
	FindFirstConnectedByAccountID(ctx context.Context, accountID string) (*model.Session, error)
	CountByAccountIDAndStatus(ctx context.Context, accountID string, status model.SessionStatus) (int, error)
	Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error)
	MarkConnected(ctx context.Context, id string, phoneNumber *string) (*model.Session, error)
	MarkDisconnected(ctx context.Context, id string) (*model.Session, error)
	IncrementSentCount(ctx context.Context, id string) error
	IncrementRecvCount(ctx context.Context, id string) error
	ResetDailyCounters(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id string) error
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) SessionRepository
}

type sessionRepo struct {
	db sqlxDB
}

func NewSessionRepository(db *sqlx.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) WithTx(tx *sqlx.Tx) SessionRepository {
	return &sessionRepo{db: tx}
}

func (r *sessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		SELECT * FROM sessions WHERE id = $1
	`, id)
	return HandleNotFound(&session, err)
}

func (r *sessionRepo) FindByProviderSessionID(ctx context.Context, providerSessionID string) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		SELECT * FROM sessions WHERE provider_session_id = $1
	`, providerSessionID)
	return HandleNotFound(&session, err)
}

func (r *sessionRepo) FindByAccountID(ctx context.Context, accountID string) ([]model.Session, error) {
	var sessions []model.Session
	err := r.db.SelectContext(ctx, &sessions, `
		SELECT * FROM sessions
		WHERE account_id = $1
		ORDER BY created_at ASC
	`, accountID)
	return sessions, err
}

func (r *sessionRepo) FindFirstConnectedByAccountID(ctx context.Context, accountID string) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		SELECT * FROM sessions
		WHERE account_id = $1 AND status = 'connected'
		ORDER BY created_at ASC
		LIMIT 1
	`, accountID)
	return HandleNotFound(&session, err)
}

func (r *sessionRepo) CountByAccountIDAndStatus(ctx context.Context, accountID string, status model.SessionStatus) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM sessions WHERE account_id = $1 AND status = $2
	`, accountID, status)
	return count, err
}

func (r *sessionRepo) Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		INSERT INTO sessions
			(account_id, employee_id, provider_session_id, qr_code_url, device_name, status)
		VALUES ($1, $2, $3, $4, $5, 'pending_qr')
		RETURNING *
	`, params.AccountID, params.EmployeeID, params.ProviderSessionID,
		params.QRCodeURL, params.DeviceName)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) MarkConnected(ctx context.Context, id string, phoneNumber *string) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		UPDATE sessions SET
			status = 'connected',
			phone_number = COALESCE($2, phone_number),
			qr_code_url = NULL,
			last_sync_at = $3,
			last_seen_at = $3,
			updated_at = $3
		WHERE id = $1
		RETURNING *
	`, id, phoneNumber, time.Now())
	return HandleNotFound(&session, err)
}

func (r *sessionRepo) MarkDisconnected(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		UPDATE sessions SET
			status = 'disconnected',
			last_sync_at = $2,
			updated_at = $2
		WHERE id = $1
		RETURNING *
	`, id, time.Now())
	return HandleNotFound(&session, err)
}

func (r *sessionRepo) IncrementSentCount(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET
			daily_sent_count = daily_sent_count + 1,
			last_seen_at = $2,
			updated_at = $2
		WHERE id = $1
	`, id, time.Now())
	return err
}

func (r *sessionRepo) IncrementRecvCount(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET
			daily_recv_count = daily_recv_count + 1,
			last_seen_at = $2,
			updated_at = $2
		WHERE id = $1
	`, id, time.Now())
	return err
}

func (r *sessionRepo) ResetDailyCounters(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET
			daily_sent_count = 0,
			daily_recv_count = 0
		WHERE daily_sent_count > 0 OR daily_recv_count > 0
	`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *sessionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}
