package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/PayAidPayments/payaid-whatsapp/internal/audit"
	apperrors "github.com/PayAidPayments/payaid-whatsapp/internal/errors"
	"github.com/PayAidPayments/payaid-whatsapp/internal/events"
	"github.com/PayAidPayments/payaid-whatsapp/internal/identity"
	"github.com/PayAidPayments/payaid-whatsapp/internal/model"
	"github.com/PayAidPayments/payaid-whatsapp/internal/provider"
	"github.com/PayAidPayments/payaid-whatsapp/internal/repository"
	"github.com/PayAidPayments/payaid-whatsapp/internal/util"
)

// EventPublisher pushes an event onto a tenant's live inbox stream. A nil
// publisher disables publishing; services never fail an operation over it.
type EventPublisher interface {
	Publish(ctx context.Context, tenantID string, event events.Event) error
}

type CreateSessionParams struct {
	AccountID  string
	EmployeeID *string
	DeviceName *string
}

// SessionManager owns the device session lifecycle against the bridge
// provider: instance creation with QR issuance, status polling and
// disconnect. The state machine is pending_qr -> connected <-> disconnected;
// a fresh QR always means a fresh session.
type SessionManager struct {
	guard       *Guard
	sessionRepo repository.SessionRepository
	accountRepo repository.AccountRepository
	clients     *ProviderClients
	recorder    *audit.Recorder
	publisher   EventPublisher
}

func NewSessionManager(
	guard *Guard,
	sessionRepo repository.SessionRepository,
	accountRepo repository.AccountRepository,
	clients *ProviderClients,
	recorder *audit.Recorder,
	publisher EventPublisher,
) *SessionManager {
	return &SessionManager{
		guard:       guard,
		sessionRepo: sessionRepo,
		accountRepo: accountRepo,
		clients:     clients,
		recorder:    recorder,
		publisher:   publisher,
	}
}

// Create requests a new provider instance plus QR code and persists the
// session in pending_qr. Nothing is written locally when the provider call
// fails. When the local write fails after the remote create succeeded, the
// instance is deleted best-effort so it does not dangle.
func (s *SessionManager) Create(ctx context.Context, ident *identity.Identity, params CreateSessionParams) (*model.Session, error) {
	account, err := s.guard.Account(ctx, ident, params.AccountID)
	if err != nil {
		return nil, err
	}

	client, err := s.clients.For(account)
	if err != nil {
		s.recorder.Record(ctx, audit.Failure(account.ID, audit.ActionSessionCreate, "session create rejected: provider not configured", err))
		return nil, err
	}

	instanceName := "wa-" + uuid.NewString()[:8]
	instance, err := client.CreateInstance(ctx, instanceName)
	if err != nil {
		provErr := apperrors.Provider("create instance", err)
		s.recorder.Record(ctx, audit.Failure(account.ID, audit.ActionSessionCreate, "provider instance creation failed", provErr))
		return nil, provErr
	}

	var qrURL *string
	qr, err := client.GetQRCode(ctx, instance.ID)
	if err != nil {
		// The instance exists remotely but is unusable without its QR.
		s.cleanupInstance(ctx, client, instance.ID)
		provErr := apperrors.Provider("fetch QR code", err)
		s.recorder.Record(ctx, audit.Failure(account.ID, audit.ActionSessionCreate, "provider QR fetch failed", provErr))
		return nil, provErr
	}
	if qr.QR != "" {
		qrURL = &qr.QR
	}

	session, err := s.sessionRepo.Create(ctx, model.CreateSessionParams{
		AccountID:         account.ID,
		EmployeeID:        params.EmployeeID,
		ProviderSessionID: instance.ID,
		QRCodeURL:         qrURL,
		DeviceName:        params.DeviceName,
	})
	if err != nil {
		s.cleanupInstance(ctx, client, instance.ID)
		dbErr := apperrors.Database(err)
		s.recorder.Record(ctx, audit.Failure(account.ID, audit.ActionSessionCreate, "session persistence failed", dbErr))
		return nil, dbErr
	}

	s.recorder.Record(ctx, audit.Entry{
		AccountID:   account.ID,
		SessionID:   &session.ID,
		Action:      audit.ActionSessionCreate,
		Status:      model.AuditStatusSuccess,
		Description: fmt.Sprintf("session created, awaiting QR scan (instance %s)", instance.ID),
		UserID:      &ident.UserID,
	})

	if err := s.reconcileAccountStatus(ctx, account.ID); err != nil {
		log.Warn().Err(err).Str("accountId", account.ID).Msg("account status reconciliation failed")
	}

	log.Info().
		Str("sessionId", session.ID).
		Str("accountId", account.ID).
		Str("providerSessionId", instance.ID).
		Msg("session created")

	return session, nil
}

// PollStatus asks the provider for the instance state and folds the answer
// into the session row. An unreachable provider degrades to the last stored
// status instead of failing the caller.
func (s *SessionManager) PollStatus(ctx context.Context, ident *identity.Identity, sessionID string) (*model.Session, error) {
	session, account, err := s.guard.Session(ctx, ident, sessionID)
	if err != nil {
		return nil, err
	}

	client, err := s.clients.For(account)
	if err != nil {
		return session, nil
	}

	instance, err := client.GetInstance(ctx, session.ProviderSessionID)
	if err != nil {
		log.Warn().
			Err(err).
			Str("sessionId", session.ID).
			Msg("provider unreachable during status poll, returning cached status")
		return session, nil
	}

	updated, err := s.applyProviderState(ctx, session, instance)
	if err != nil {
		return nil, err
	}

	if err := s.reconcileAccountStatus(ctx, account.ID); err != nil {
		log.Warn().Err(err).Str("accountId", account.ID).Msg("account status reconciliation failed")
	}

	return updated, nil
}

// applyProviderState maps the provider's connectivity vocabulary onto the
// session. Unknown states are no-ops. A DISCONNECTED report only moves a
// connected session; a pending_qr session stays pending until the QR scan
// lands.
func (s *SessionManager) applyProviderState(ctx context.Context, session *model.Session, instance *provider.Instance) (*model.Session, error) {
	state, ok := provider.NormalizeState(instance.State)
	if !ok {
		log.Debug().
			Str("sessionId", session.ID).
			Str("state", instance.State).
			Msg("unrecognized provider state ignored")
		return session, nil
	}

	switch state {
	case model.SessionStatusConnected:
		var phone *string
		if instance.Me != nil {
			if p := util.NormalizePhone(instance.Me.User); p != "" {
				phone = &p
			}
		}
		updated, err := s.sessionRepo.MarkConnected(ctx, session.ID, phone)
		if err != nil {
			return nil, apperrors.Database(err)
		}
		if session.Status != model.SessionStatusConnected {
			s.publishSessionStatus(ctx, session, model.SessionStatusConnected)
		}
		return updated, nil

	case model.SessionStatusDisconnected:
		if session.Status != model.SessionStatusConnected {
			return session, nil
		}
		updated, err := s.sessionRepo.MarkDisconnected(ctx, session.ID)
		if err != nil {
			return nil, apperrors.Database(err)
		}
		s.publishSessionStatus(ctx, session, model.SessionStatusDisconnected)
		return updated, nil
	}

	return session, nil
}

// Disconnect tears the session down. The provider-side logout is
// best-effort; the local row always ends up disconnected.
func (s *SessionManager) Disconnect(ctx context.Context, ident *identity.Identity, sessionID string) (*model.Session, error) {
	session, account, err := s.guard.Session(ctx, ident, sessionID)
	if err != nil {
		return nil, err
	}

	if client, cerr := s.clients.For(account); cerr == nil {
		if derr := client.DeleteInstance(ctx, session.ProviderSessionID); derr != nil {
			log.Warn().
				Err(derr).
				Str("sessionId", session.ID).
				Msg("provider instance delete failed during disconnect")
		}
	}

	updated, err := s.sessionRepo.MarkDisconnected(ctx, session.ID)
	if err != nil {
		dbErr := apperrors.Database(err)
		s.recorder.Record(ctx, audit.Failure(account.ID, audit.ActionSessionDisconnect, "session disconnect failed", dbErr))
		return nil, dbErr
	}

	s.recorder.Record(ctx, audit.Entry{
		AccountID:   account.ID,
		SessionID:   &session.ID,
		Action:      audit.ActionSessionDisconnect,
		Status:      model.AuditStatusSuccess,
		Description: "session disconnected",
		UserID:      &ident.UserID,
	})
	s.publishSessionStatus(ctx, session, model.SessionStatusDisconnected)

	if err := s.reconcileAccountStatus(ctx, account.ID); err != nil {
		log.Warn().Err(err).Str("accountId", account.ID).Msg("account status reconciliation failed")
	}

	return updated, nil
}

func (s *SessionManager) Get(ctx context.Context, ident *identity.Identity, sessionID string) (*model.Session, error) {
	session, _, err := s.guard.Session(ctx, ident, sessionID)
	return session, err
}

func (s *SessionManager) List(ctx context.Context, ident *identity.Identity, accountID string) ([]model.Session, error) {
	account, err := s.guard.Account(ctx, ident, accountID)
	if err != nil {
		return nil, err
	}
	sessions, err := s.sessionRepo.FindByAccountID(ctx, account.ID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return sessions, nil
}

// reconcileAccountStatus recomputes the owning account's status from its
// sessions: any connected session makes the account active, else a pending
// QR makes it waiting_qr, else it is disconnected.
func (s *SessionManager) reconcileAccountStatus(ctx context.Context, accountID string) error {
	connected, err := s.sessionRepo.CountByAccountIDAndStatus(ctx, accountID, model.SessionStatusConnected)
	if err != nil {
		return err
	}

	status := model.AccountStatusDisconnected
	if connected > 0 {
		status = model.AccountStatusActive
	} else {
		pending, err := s.sessionRepo.CountByAccountIDAndStatus(ctx, accountID, model.SessionStatusPendingQR)
		if err != nil {
			return err
		}
		if pending > 0 {
			status = model.AccountStatusWaitingQR
		}
	}

	_, err = s.accountRepo.UpdateStatus(ctx, accountID, status, nil)
	return err
}

func (s *SessionManager) cleanupInstance(ctx context.Context, client provider.Client, instanceID string) {
	if err := client.DeleteInstance(ctx, instanceID); err != nil {
		log.Warn().
			Err(err).
			Str("instanceId", instanceID).
			Msg("orphaned provider instance cleanup failed")
	}
}

func (s *SessionManager) publishSessionStatus(ctx context.Context, session *model.Session, status model.SessionStatus) {
	if s.publisher == nil {
		return
	}

	account, err := s.accountRepo.FindByID(ctx, session.AccountID)
	if err != nil || account == nil {
		return
	}

	data, _ := json.Marshal(map[string]any{
		"sessionId": session.ID,
		"accountId": session.AccountID,
		"status":    status,
	})
	if err := s.publisher.Publish(ctx, account.TenantID, events.Event{Type: events.TypeSessionStatus, Data: data}); err != nil {
		log.Warn().Err(err).Str("sessionId", session.ID).Msg("failed to publish session status event")
	}
}
