package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Deepanshu954/TodoFlow/internal/model"
)

// apiError is the JSON error envelope.
type apiError struct {
	status  int
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *apiError) Error() string { return e.Message }

func newAPIError(status int, code, message string) *apiError {
	return &apiError{status: status, Code: code, Message: message}
}

func badRequest(message string) *apiError {
	return newAPIError(http.StatusBadRequest, "bad_request", message)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err onto a status and writes the envelope. Unexpected
// errors are logged and reported as 500 without detail.
func writeError(w http.ResponseWriter, log *slog.Logger, err error) {
	var ae *apiError
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ae):
	case errors.As(err, &ve):
		ae = newAPIError(http.StatusBadRequest, "validation_failed", ve.Error())
	case errors.Is(err, model.ErrNotFound):
		ae = newAPIError(http.StatusNotFound, "not_found", err.Error())
	default:
		log.Error("request failed", "err", err)
		ae = newAPIError(http.StatusInternalServerError, "internal", "internal server error")
	}
	writeJSON(w, ae.status, ae)
}
