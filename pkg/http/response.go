package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/BradenHooton/accounts/internal/models"
)

// StatusResponse is the envelope used by every non-list endpoint
type StatusResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message,omitempty"`
}

// Writer renders JSON bodies and failures.
//
// In compatibility mode (StrictStatus false) every response goes out as HTTP 200 and
// failures carry status 400 in the body, as existing clients expect. Strict mode sends
// the body status as the HTTP status too. Not-found is always a real 404.
type Writer struct {
	StrictStatus bool
	Logger       *slog.Logger
}

// WriteJSON writes v with the given HTTP status
func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	// Encoding errors can't be reported once the header is out
	_ = json.NewEncoder(w).Encode(v)
}

// JSON writes a body whose embedded status is bodyStatus
func (wr Writer) JSON(w http.ResponseWriter, bodyStatus int, v any) {
	httpStatus := http.StatusOK
	if wr.StrictStatus {
		httpStatus = bodyStatus
	}
	WriteJSON(w, httpStatus, v)
}

// Error renders err as a StatusResponse
func (wr Writer) Error(w http.ResponseWriter, err error) {
	status, message := Classify(err)

	if status >= http.StatusInternalServerError && wr.Logger != nil {
		wr.Logger.Error("request failed", slog.Any("error", err))
	}

	if status == http.StatusNotFound {
		WriteJSON(w, http.StatusNotFound, StatusResponse{Status: status, Message: message})
		return
	}

	if !wr.StrictStatus {
		status = http.StatusBadRequest
	}
	wr.JSON(w, status, StatusResponse{Status: status, Message: message})
}

// Classify maps an error to an HTTP status and a client-safe message
func Classify(err error) (int, string) {
	var appErr *models.Error
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError, "Internal server error"
	}

	switch {
	case errors.Is(appErr.Kind, models.ErrValidation):
		return http.StatusBadRequest, appErr.Error()
	case errors.Is(appErr.Kind, models.ErrConflict):
		return http.StatusConflict, appErr.Error()
	case errors.Is(appErr.Kind, models.ErrUnauthorized):
		return http.StatusUnauthorized, appErr.Error()
	case errors.Is(appErr.Kind, models.ErrNotFound):
		return http.StatusNotFound, appErr.Error()
	default:
		return http.StatusInternalServerError, appErr.Error()
	}
}
