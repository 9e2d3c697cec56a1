package handler

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"

	apperrors "github.com/PayAidPayments/payaid-whatsapp/internal/errors"
	"github.com/PayAidPayments/payaid-whatsapp/internal/service"
)

// webhookEnvelope is the provider's push payload. The data block is kept
// loosely typed on purpose: bridge builds disagree on field names and
// types, so extraction happens defensively in code instead of struct tags.
type webhookEnvelope struct {
	Instance string         `json:"instance"`
	Data     map[string]any `json:"data"`
}

type WebhookHandler struct {
	ingestor *service.WebhookIngestor
}

func NewWebhookHandler(ingestor *service.WebhookIngestor) *WebhookHandler {
	return &WebhookHandler{ingestor: ingestor}
}

// Message ingests an inbound customer message pushed by the provider.
// Attribution failures (unknown instance, replays) still answer accepted
// with a dropped marker; the provider never retries either way.
func (h *WebhookHandler) Message(w http.ResponseWriter, r *http.Request) {
	var req webhookEnvelope
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Instance == "" {
		writeError(w, apperrors.MissingRequired("instance"))
		return
	}

	msg := extractIncomingMessage(req.Data)
	if msg.ProviderMessageID == "" {
		writeError(w, apperrors.MissingRequired("data.id"))
		return
	}

	recorded, err := h.ingestor.HandleIncomingMessage(r.Context(), req.Instance, msg)
	if err != nil {
		log.Error().Err(err).Str("instanceId", req.Instance).Msg("inbound webhook processing failed")
		writeError(w, err)
		return
	}

	if recorded == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "accepted",
		"messageId": recorded.ID,
	})
}

// Status ingests a delivery receipt pushed by the provider.
func (h *WebhookHandler) Status(w http.ResponseWriter, r *http.Request) {
	var req webhookEnvelope
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	update := service.StatusUpdate{
		ProviderMessageID: firstString(req.Data, "id", "messageId"),
		Status:            cast.ToString(req.Data["status"]),
		Timestamp:         extractTimestamp(req.Data),
	}
	if update.ProviderMessageID == "" {
		writeError(w, apperrors.MissingRequired("data.id"))
		return
	}

	applied, err := h.ingestor.HandleStatusUpdate(r.Context(), update)
	if err != nil {
		log.Error().Err(err).Str("providerMessageId", update.ProviderMessageID).Msg("status webhook processing failed")
		writeError(w, err)
		return
	}

	status := "ignored"
	if applied {
		status = "accepted"
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

// extractIncomingMessage pulls the inbound message fields out of the loose
// data block. Known aliases are tried in order; missing optional fields
// default rather than fail.
func extractIncomingMessage(data map[string]any) service.IncomingMessage {
	msg := service.IncomingMessage{
		From:              cast.ToString(data["from"]),
		Body:              firstString(data, "body", "text"),
		Type:              cast.ToString(data["type"]),
		ProviderMessageID: firstString(data, "id", "messageId"),
		Timestamp:         extractTimestamp(data),
	}

	if v := cast.ToString(data["mediaUrl"]); v != "" {
		msg.MediaURL = &v
	}
	if v := cast.ToString(data["mediaMimeType"]); v != "" {
		msg.MediaMimeType = &v
	}
	if v := cast.ToString(data["mediaCaption"]); v != "" {
		msg.MediaCaption = &v
	}

	return msg
}

func firstString(data map[string]any, keys ...string) string {
	for _, key := range keys {
		if v := cast.ToString(data[key]); v != "" {
			return v
		}
	}
	return ""
}

// extractTimestamp reads a unix-seconds timestamp, tolerating numbers and
// numeric strings. Zero or garbage falls back to now.
func extractTimestamp(data map[string]any) time.Time {
	secs := cast.ToInt64(data["timestamp"])
	if secs <= 0 {
		return time.Now()
	}
	return time.Unix(secs, 0)
}
