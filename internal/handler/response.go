package handler

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/PayAidPayments/payaid-whatsapp/internal/errors"
	"github.com/PayAidPayments/payaid-whatsapp/internal/httputil"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}

// listResponse is the envelope for paginated collection endpoints.
type listResponse struct {
	Data   any `json:"data"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func writeList(w http.ResponseWriter, data any, total int, p pageParams) {
	writeJSON(w, http.StatusOK, listResponse{
		Data:   data,
		Total:  total,
		Limit:  p.Limit,
		Offset: p.Offset,
	})
}

// decodeBody parses a JSON request body into dst with a VALIDATION_ERROR on
// malformed input.
func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.ValidationError("Invalid request body").WithCause(err)
	}
	return nil
}
