package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/PayAidPayments/payaid-whatsapp/internal/model"
)

type MessageRepository interface {
	FindByID(ctx context.Context, id string) (*model.Message, error)
	FindByProviderMessageID(ctx context.Context, providerMessageID string) (*model.Message, error)
	FindByConversationID(ctx context.Context, conversationID string, limit, offset int) ([]model.Message, error)
	CountByConversationID(ctx context.Context, conversationID string) (int, error)
	Create(ctx context.Context, params model.CreateMessageParams) (*model.Message, error)
	CreateDeduped(ctx context.Context, params model.CreateMessageParams) (*model.Message, error)
	MarkDelivered(ctx context.Context, id string, at time.Time) (bool, error)
	MarkRead(ctx context.Context, id string, at time.Time) (bool, error)
	MarkFailed(ctx context.Context, id string, errorCode, errorMessage *string) (bool, error)
	CountByAccountSince(ctx context.Context, accountID string, direction model.MessageDirection, since time.Time) (int, error)
	CountByAccountAndStatusSince(ctx context.Context, accountID string, status model.MessageStatus, since time.Time) (int, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) MessageRepository
}

type messageRepo struct {
	db sqlxDB
}

func NewMessageRepository(db *sqlx.DB) MessageRepository {
	return &messageRepo{db: db}
}

func (r *messageRepo) WithTx(tx *sqlx.Tx) MessageRepository {
	return &messageRepo{db: tx}
}

func (r *messageRepo) FindByID(ctx context.Context, id string) (*model.Message, error) {
	var msg model.Message
	err := r.db.GetContext(ctx, &msg, `SELECT * FROM messages WHERE id = $1`, id)
	return HandleNotFound(&msg, err)
}

func (r *messageRepo) FindByProviderMessageID(ctx context.Context, providerMessageID string) (*model.Message, error) {
	var msg model.Message
	err := r.db.GetContext(ctx, &msg, `
		SELECT * FROM messages
		WHERE provider_message_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, providerMessageID)
	return HandleNotFound(&msg, err)
}

func (r *messageRepo) FindByConversationID(ctx context.Context, conversationID string, limit, offset int) ([]model.Message, error) {
	var msgs []model.Message
	err := r.db.SelectContext(ctx, &msgs, `
		SELECT * FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, conversationID, limit, offset)
	return msgs, err
}

func (r *messageRepo) CountByConversationID(ctx context.Context, conversationID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM messages WHERE conversation_id = $1
	`, conversationID)
	return count, err
}

func (r *messageRepo) Create(ctx context.Context, params model.CreateMessageParams) (*model.Message, error) {
	var msg model.Message
	err := r.db.GetContext(ctx, &msg, `
		INSERT INTO messages
			(conversation_id, session_id, direction, message_type, provider_message_id,
			 from_number, to_number, text, media_url, media_mime_type, media_caption,
			 template_id, status, error_code, error_message, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING *
	`, params.ConversationID, params.SessionID, params.Direction, params.MessageType,
		params.ProviderMessageID, params.FromNumber, params.ToNumber, params.Text,
		params.MediaURL, params.MediaMimeType, params.MediaCaption, params.TemplateID,
		params.Status, params.ErrorCode, params.ErrorMessage, params.SentAt)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// CreateDeduped inserts like Create but suppresses rows that would repeat a
// provider message id already recorded in the conversation. A replayed
// webhook gets (nil, nil) back instead of a second row.
func (r *messageRepo) CreateDeduped(ctx context.Context, params model.CreateMessageParams) (*model.Message, error) {
	var msg model.Message
	err := r.db.GetContext(ctx, &msg, `
		INSERT INTO messages
			(conversation_id, session_id, direction, message_type, provider_message_id,
			 from_number, to_number, text, media_url, media_mime_type, media_caption,
			 template_id, status, error_code, error_message, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (conversation_id, provider_message_id) DO NOTHING
		RETURNING *
	`, params.ConversationID, params.SessionID, params.Direction, params.MessageType,
		params.ProviderMessageID, params.FromNumber, params.ToNumber, params.Text,
		params.MediaURL, params.MediaMimeType, params.MediaCaption, params.TemplateID,
		params.Status, params.ErrorCode, params.ErrorMessage, params.SentAt)
	return HandleNotFound(&msg, err)
}

// MarkDelivered moves an outbound message from sent to delivered. The status
// guard in the WHERE clause makes replays and late events no-ops, so the
// first delivery timestamp sticks.
func (r *messageRepo) MarkDelivered(ctx context.Context, id string, at time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE messages SET
			status = 'delivered',
			delivered_at = $2
		WHERE id = $1 AND direction = 'out' AND status = 'sent'
	`, id, at)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	return rows > 0, err
}

// MarkRead applies a read receipt. Repeated reads refresh read_at; failed
// messages are left alone.
func (r *messageRepo) MarkRead(ctx context.Context, id string, at time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE messages SET
			status = 'read',
			read_at = $2,
			delivered_at = COALESCE(delivered_at, $2)
		WHERE id = $1 AND direction = 'out' AND status IN ('sent', 'delivered', 'read')
	`, id, at)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	return rows > 0, err
}

// MarkFailed records a provider failure report. Read messages stay read and
// failed stays failed.
func (r *messageRepo) MarkFailed(ctx context.Context, id string, errorCode, errorMessage *string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE messages SET
			status = 'failed',
			error_code = $2,
			error_message = $3
		WHERE id = $1 AND direction = 'out' AND status IN ('sent', 'delivered')
	`, id, errorCode, errorMessage)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	return rows > 0, err
}

func (r *messageRepo) CountByAccountSince(ctx context.Context, accountID string, direction model.MessageDirection, since time.Time) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE c.account_id = $1 AND m.direction = $2 AND m.created_at >= $3
	`, accountID, direction, since)
	return count, err
}

func (r *messageRepo) CountByAccountAndStatusSince(ctx context.Context, accountID string, status model.MessageStatus, since time.Time) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE c.account_id = $1 AND m.status = $2 AND m.created_at >= $3
	`, accountID, status, since)
	return count, err
}
