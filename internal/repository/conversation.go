package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/PayAidPayments/payaid-whatsapp/internal/model"
)

type ConversationRepository interface {
	FindByID(ctx context.Context, id string) (*model.Conversation, error)
	FindByAccountAndContact(ctx context.Context, accountID, contactID string) (*model.Conversation, error)
	FindByAccountID(ctx context.Context, accountID string, status *model.ConversationStatus, limit, offset int) ([]model.Conversation, error)
	CountByAccountID(ctx context.Context, accountID string) (int, error)
	Upsert(ctx context.Context, params model.CreateConversationParams) (*model.Conversation, error)
	RecordMessage(ctx context.Context, id string, direction model.MessageDirection, at time.Time, unreadDelta int) error
	MarkRead(ctx context.Context, id string) (*model.Conversation, error)
	Update(ctx context.Context, id string, params model.UpdateConversationParams) (*model.Conversation, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) ConversationRepository
}

type conversationRepo struct {
	db sqlxDB
}

func NewConversationRepository(db *sqlx.DB) ConversationRepository {
	return &conversationRepo{db: db}
}

func (r *conversationRepo) WithTx(tx *sqlx.Tx) ConversationRepository {
	return &conversationRepo{db: tx}
}

func (r *conversationRepo) FindByID(ctx context.Context, id string) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.GetContext(ctx, &conv, `
		SELECT * FROM conversations WHERE id = $1
	`, id)
	return HandleNotFound(&conv, err)
}

func (r *conversationRepo) FindByAccountAndContact(ctx context.Context, accountID, contactID string) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.GetContext(ctx, &conv, `
		SELECT * FROM conversations
		WHERE account_id = $1 AND contact_id = $2
	`, accountID, contactID)
	return HandleNotFound(&conv, err)
}

func (r *conversationRepo) FindByAccountID(ctx context.Context, accountID string, status *model.ConversationStatus, limit, offset int) ([]model.Conversation, error) {
	var convs []model.Conversation
	if status != nil {
		err := r.db.SelectContext(ctx, &convs, `
			SELECT * FROM conversations
			WHERE account_id = $1 AND status = $2
			ORDER BY last_message_at DESC NULLS LAST
			LIMIT $3 OFFSET $4
		`, accountID, *status, limit, offset)
		return convs, err
	}
	err := r.db.SelectContext(ctx, &convs, `
		SELECT * FROM conversations
		WHERE account_id = $1
		ORDER BY last_message_at DESC NULLS LAST
		LIMIT $2 OFFSET $3
	`, accountID, limit, offset)
	return convs, err
}

func (r *conversationRepo) CountByAccountID(ctx context.Context, accountID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM conversations WHERE account_id = $1
	`, accountID)
	return count, err
}

// Upsert creates the conversation for an (account, contact) pair or returns
// the existing one. The unique index on the pair keeps concurrent creates
// down to a single row; a race loser gets the winner's row back. An existing
// null session binding is filled with the offered session, never replaced.
func (r *conversationRepo) Upsert(ctx context.Context, params model.CreateConversationParams) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.GetContext(ctx, &conv, `
		INSERT INTO conversations (account_id, contact_id, session_id, status)
		VALUES ($1, $2, $3, 'open')
		ON CONFLICT (account_id, contact_id) DO UPDATE SET
			session_id = COALESCE(conversations.session_id, EXCLUDED.session_id),
			updated_at = NOW()
		RETURNING *
	`, params.AccountID, params.ContactID, params.SessionID)
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepo) RecordMessage(ctx context.Context, id string, direction model.MessageDirection, at time.Time, unreadDelta int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE conversations SET
			last_message_at = $2,
			last_direction = $3,
			unread_count = unread_count + $4,
			updated_at = NOW()
		WHERE id = $1
	`, id, at, direction, unreadDelta)
	return err
}

func (r *conversationRepo) MarkRead(ctx context.Context, id string) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.GetContext(ctx, &conv, `
		UPDATE conversations SET
			unread_count = 0,
			updated_at = NOW()
		WHERE id = $1
		RETURNING *
	`, id)
	return HandleNotFound(&conv, err)
}

func (r *conversationRepo) Update(ctx context.Context, id string, params model.UpdateConversationParams) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.GetContext(ctx, &conv, `
		UPDATE conversations SET
			status = COALESCE($2, status),
			ticket_id = COALESCE($3, ticket_id),
			updated_at = NOW()
		WHERE id = $1
		RETURNING *
	`, id, params.Status, params.TicketID)
	return HandleNotFound(&conv, err)
}
