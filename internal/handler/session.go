package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/PayAidPayments/payaid-whatsapp/internal/errors"
	"github.com/PayAidPayments/payaid-whatsapp/internal/middleware"
	"github.com/PayAidPayments/payaid-whatsapp/internal/service"
)

type SessionHandler struct {
	sessions *service.SessionManager
}

func NewSessionHandler(sessions *service.SessionManager) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

func (h *SessionHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{sessionID}", h.Get)
	r.Post("/{sessionID}/poll", h.Poll)
	r.Get("/{sessionID}/qr", h.QRCode)
	r.Delete("/{sessionID}", h.Disconnect)
	return r
}

// Get returns the stored session without touching the provider.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	session, err := h.sessions.Get(r.Context(), ident, chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// Poll refreshes the session from the provider. An unreachable provider
// degrades to the last stored state, so this always answers 200.
func (h *SessionHandler) Poll(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	session, err := h.sessions.PollStatus(r.Context(), ident, chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

func (h *SessionHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	session, err := h.sessions.Get(r.Context(), ident, chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if session.QRCodeURL == nil {
		writeError(w, apperrors.NotFound("QR code"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sessionId": session.ID,
		"qrCodeUrl": *session.QRCodeURL,
		"status":    session.Status,
	})
}

func (h *SessionHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	session, err := h.sessions.Disconnect(r.Context(), ident, chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}
