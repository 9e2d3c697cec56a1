package audit

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/PayAidPayments/payaid-whatsapp/internal/errors"
	"github.com/PayAidPayments/payaid-whatsapp/internal/model"
	"github.com/PayAidPayments/payaid-whatsapp/internal/repository"
)

type Action string

const (
	ActionAccountCreate     Action = "account_create"
	ActionAccountUpdate     Action = "account_update"
	ActionAccountDelete     Action = "account_delete"
	ActionSessionCreate     Action = "session_create"
	ActionSessionDisconnect Action = "session_disconnect"
	ActionMessageSend       Action = "message_send"
	ActionMessageReceive    Action = "message_receive"
	ActionMessageStatus     Action = "message_status"
	ActionTemplateCreate    Action = "template_create"
	ActionTemplateUpdate    Action = "template_update"
	ActionTemplateDelete    Action = "template_delete"
	ActionConversationRead  Action = "conversation_read"
)

// Entry is one audit trail record before persistence.
type Entry struct {
	AccountID   string
	SessionID   *string
	Action      Action
	Status      model.AuditStatus
	Description string
	ErrorCode   *string
	UserID      *string
	IP          *string
	UserAgent   *string
}

// Success builds a success entry for an account-scoped action.
func Success(accountID string, action Action, description string) Entry {
	return Entry{
		AccountID:   accountID,
		Action:      action,
		Status:      model.AuditStatusSuccess,
		Description: description,
	}
}

// Failure builds a failure entry carrying the error code when err is an
// AppError.
func Failure(accountID string, action Action, description string, err error) Entry {
	entry := Entry{
		AccountID:   accountID,
		Action:      action,
		Status:      model.AuditStatusFailure,
		Description: description,
	}
	if err != nil {
		code := string(apperrors.GetCode(err))
		entry.ErrorCode = &code
	}
	return entry
}

const recordTimeout = 5 * time.Second

// Recorder appends entries to the audit trail. Writes never fail the
// triggering operation; a failed write is logged and dropped.
type Recorder struct {
	repo repository.AuditLogRepository
}

func NewRecorder(repo repository.AuditLogRepository) *Recorder {
	return &Recorder{repo: repo}
}

func (r *Recorder) Record(ctx context.Context, entry Entry) {
	// The entry must survive the caller's request ending first.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	_, err := r.repo.Create(ctx, model.CreateAuditEntryParams{
		AccountID:   entry.AccountID,
		SessionID:   entry.SessionID,
		Action:      string(entry.Action),
		Status:      entry.Status,
		Description: entry.Description,
		ErrorCode:   entry.ErrorCode,
		UserID:      entry.UserID,
		IPAddress:   entry.IP,
		UserAgent:   entry.UserAgent,
	})
	if err != nil {
		log.Error().
			Err(err).
			Str("accountId", entry.AccountID).
			Str("action", string(entry.Action)).
			Msg("audit write failed, entry dropped")
		return
	}

	log.Debug().
		Str("accountId", entry.AccountID).
		Str("action", string(entry.Action)).
		Str("status", string(entry.Status)).
		Msg("audit entry recorded")
}

// RecordFromRequest fills caller network details from the request before
// recording.
func (r *Recorder) RecordFromRequest(req *http.Request, entry Entry) {
	ip := getClientIP(req)
	ua := req.UserAgent()
	if ip != "" {
		entry.IP = &ip
	}
	if ua != "" {
		entry.UserAgent = &ua
	}
	r.Record(req.Context(), entry)
}

func getClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}
