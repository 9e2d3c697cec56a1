package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/PayAidPayments/payaid-whatsapp/internal/middleware"
	"github.com/PayAidPayments/payaid-whatsapp/internal/model"
	"github.com/PayAidPayments/payaid-whatsapp/internal/service"
)

type ConversationHandler struct {
	convs      *service.ConversationService
	dispatcher *service.MessageDispatcher
}

func NewConversationHandler(convs *service.ConversationService, dispatcher *service.MessageDispatcher) *ConversationHandler {
	return &ConversationHandler{convs: convs, dispatcher: dispatcher}
}

func (h *ConversationHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{conversationID}", h.Get)
	r.Put("/{conversationID}", h.Update)
	r.Get("/{conversationID}/messages", h.Messages)
	r.Post("/{conversationID}/messages", h.Send)
	r.Post("/{conversationID}/read", h.MarkRead)
	return r
}

func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	conv, err := h.convs.Get(r.Context(), ident, chi.URLParam(r, "conversationID"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, conv)
}

type updateConversationRequest struct {
	Status   *string `json:"status"`
	TicketID *string `json:"ticketId"`
}

func (h *ConversationHandler) Update(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	var req updateConversationRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	params := model.UpdateConversationParams{TicketID: req.TicketID}
	if req.Status != nil {
		status := model.ConversationStatus(*req.Status)
		params.Status = &status
	}

	conv, err := h.convs.Update(r.Context(), ident, chi.URLParam(r, "conversationID"), params)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, conv)
}

func (h *ConversationHandler) Messages(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())
	p := parsePage(r)

	result, err := h.convs.Messages(r.Context(), ident, chi.URLParam(r, "conversationID"), p.Limit, p.Offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeList(w, result.Messages, result.Total, p)
}

// Send dispatches an outbound message. A 201 here means the attempt was
// recorded, not that the provider accepted it: check the message's status
// field, which is failed when the provider rejected the send.
func (h *ConversationHandler) Send(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	var payload model.SendPayload
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	message, err := h.dispatcher.Send(r.Context(), ident, chi.URLParam(r, "conversationID"), &payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, message)
}

func (h *ConversationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	conv, err := h.convs.MarkRead(r.Context(), ident, chi.URLParam(r, "conversationID"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, conv)
}
