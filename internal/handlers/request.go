package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/BradenHooton/accounts/internal/models"
	"github.com/go-chi/chi/v5"
)

const msgInvalidJSON = "Invalid JSON payload"

// decodeJSON reads the request body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return models.NewValidationError(msgInvalidJSON)
}

// intParam parses an optional integer route segment, returning def when it is absent
func intParam(r *http.Request, name string, def int) (int, error) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		return def, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, models.NewValidationError(name + " must be an integer")
	}
	return n, nil
}

// userIDParam parses {id}. Anything that is not a positive integer cannot name a user.
func userIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		return 0, models.NewNotFoundError("User not found")
	}
	return id, nil
}
