package handlers

import (
	"context"
	"net/http"

	"github.com/BradenHooton/accounts/internal/services"
	pkghttp "github.com/BradenHooton/accounts/pkg/http"
)

// AuthService defines the interface for auth business logic
type AuthService interface {
	Login(ctx context.Context, in services.LoginInput) (string, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service AuthService
	writer  pkghttp.Writer
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthService, writer pkghttp.Writer) *AuthHandler {
	return &AuthHandler{
		service: service,
		writer:  writer,
	}
}

// Login exchanges credentials for an access token
//
// @Summary User login
// @Accept json
// @Param request body services.LoginInput true "Login request"
// @Produce json
// @Success 200 {object} services.LoginResult
// @Router /api/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req services.LoginInput
	if err := decodeJSON(r, &req); err != nil {
		h.writer.Error(w, err)
		return
	}

	token, err := h.service.Login(r.Context(), req)
	if err != nil {
		h.writer.Error(w, err)
		return
	}

	h.writer.JSON(w, http.StatusOK, services.LoginResult{Status: http.StatusOK, Token: token})
}
