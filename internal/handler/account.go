package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/PayAidPayments/payaid-whatsapp/internal/errors"
	"github.com/PayAidPayments/payaid-whatsapp/internal/middleware"
	"github.com/PayAidPayments/payaid-whatsapp/internal/model"
	"github.com/PayAidPayments/payaid-whatsapp/internal/service"
	"github.com/PayAidPayments/payaid-whatsapp/internal/util"
)

type AccountHandler struct {
	accounts *service.AccountService
	sessions *service.SessionManager
	convs    *service.ConversationService
	stats    *service.StatsService
}

func NewAccountHandler(
	accounts *service.AccountService,
	sessions *service.SessionManager,
	convs *service.ConversationService,
	stats *service.StatsService,
) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		sessions: sessions,
		convs:    convs,
		stats:    stats,
	}
}

func (h *AccountHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{accountID}", h.Get)
	r.Put("/{accountID}", h.Update)
	r.Delete("/{accountID}", h.Delete)
	r.Post("/{accountID}/sessions", h.CreateSession)
	r.Get("/{accountID}/sessions", h.ListSessions)
	r.Get("/{accountID}/conversations", h.ListConversations)
	r.Get("/{accountID}/stats", h.Stats)
	r.Get("/{accountID}/audit", h.AuditTrail)
	return r
}

type createAccountRequest struct {
	DeploymentType  string  `json:"deploymentType"`
	ProviderBaseURL *string `json:"providerBaseUrl"`
	ProviderAPIKey  *string `json:"providerApiKey"`
	BusinessName    string  `json:"businessName"`
	PrimaryPhone    *string `json:"primaryPhone"`
}

func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	var req createAccountRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	account, err := h.accounts.Create(r.Context(), ident, model.CreateAccountParams{
		DeploymentType:  model.DeploymentType(req.DeploymentType),
		ProviderBaseURL: req.ProviderBaseURL,
		ProviderAPIKey:  req.ProviderAPIKey,
		BusinessName:    req.BusinessName,
		PrimaryPhone:    req.PrimaryPhone,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, account)
}

func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())
	p := parsePage(r)

	result, err := h.accounts.List(r.Context(), ident, p.Limit, p.Offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeList(w, result.Accounts, result.Total, p)
}

func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	account, err := h.accounts.Get(r.Context(), ident, chi.URLParam(r, "accountID"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, account)
}

type updateAccountRequest struct {
	BusinessName    *string `json:"businessName"`
	PrimaryPhone    *string `json:"primaryPhone"`
	ProviderBaseURL *string `json:"providerBaseUrl"`
	ProviderAPIKey  *string `json:"providerApiKey"`
}

func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	var req updateAccountRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	account, err := h.accounts.Update(r.Context(), ident, chi.URLParam(r, "accountID"), model.UpdateAccountParams{
		BusinessName:    req.BusinessName,
		PrimaryPhone:    req.PrimaryPhone,
		ProviderBaseURL: req.ProviderBaseURL,
		ProviderAPIKey:  req.ProviderAPIKey,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, account)
}

func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	if err := h.accounts.Delete(r.Context(), ident, chi.URLParam(r, "accountID")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type createSessionRequest struct {
	EmployeeID *string `json:"employeeId"`
	DeviceName *string `json:"deviceName"`
}

func (h *AccountHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	var req createSessionRequest
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
	}
	if req.EmployeeID != nil && !util.IsValidUUID(*req.EmployeeID) {
		writeError(w, apperrors.InvalidInput("employeeId", "must be a UUID"))
		return
	}

	session, err := h.sessions.Create(r.Context(), ident, service.CreateSessionParams{
		AccountID:  chi.URLParam(r, "accountID"),
		EmployeeID: req.EmployeeID,
		DeviceName: req.DeviceName,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, session)
}

func (h *AccountHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	sessions, err := h.sessions.List(r.Context(), ident, chi.URLParam(r, "accountID"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": sessions})
}

func (h *AccountHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())
	p := parsePage(r)

	var status *model.ConversationStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := model.ConversationStatus(raw)
		switch s {
		case model.ConversationStatusOpen, model.ConversationStatusClosed, model.ConversationStatusArchived:
			status = &s
		default:
			writeError(w, apperrors.InvalidInput("status", "must be open, closed or archived"))
			return
		}
	}

	result, err := h.convs.List(r.Context(), ident, chi.URLParam(r, "accountID"), status, p.Limit, p.Offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeList(w, result.Conversations, result.Total, p)
}

func (h *AccountHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	stats, err := h.stats.AccountStats(r.Context(), ident, chi.URLParam(r, "accountID"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (h *AccountHandler) AuditTrail(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())
	p := parsePage(r)

	result, err := h.accounts.AuditTrail(r.Context(), ident, chi.URLParam(r, "accountID"), p.Limit, p.Offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeList(w, result.Entries, result.Total, p)
}
