package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/BradenHooton/accounts/internal/auth"
	"github.com/BradenHooton/accounts/internal/models"
	"github.com/BradenHooton/accounts/internal/services"
	"github.com/BradenHooton/accounts/internal/upload"
	pkghttp "github.com/BradenHooton/accounts/pkg/http"
)

const (
	defaultPage    = 1
	defaultPerPage = 4

	avatarField      = "imageFile"
	multipartMemory  = 1 << 20
	msgFileTooLarge  = "The uploaded file is too large"
	msgInvalidUpload = "Invalid multipart form"
)

// UserService defines the interface for user business logic
type UserService interface {
	ListUsers(ctx context.Context, page, perPage int) (*services.UserList, error)
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	EditUser(ctx context.Context, id int64) (*services.UserDetail, error)
	UpdateUser(ctx context.Context, principal *models.User, id int64, in services.UpdateInput) error
	UploadAvatarFile(ctx context.Context, f *upload.File) (*services.UploadResult, error)
	VerifyPassword(ctx context.Context, principal *models.User, password string) (*services.PasswordCheck, error)
}

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	service        UserService
	writer         pkghttp.Writer
	maxUploadBytes int64
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service UserService, writer pkghttp.Writer, maxUploadBytes int64) *UserHandler {
	return &UserHandler{
		service:        service,
		writer:         writer,
		maxUploadBytes: maxUploadBytes,
	}
}

// RegisterResponse is returned after a successful registration
type RegisterResponse struct {
	Status int    `json:"status"`
	Data   string `json:"data"`
}

// EditUserResponse wraps a user projection
type EditUserResponse struct {
	Status  int                  `json:"status"`
	Message string               `json:"message"`
	Data    *services.UserDetail `json:"data"`
}

// UploadResponse carries the stored file name
type UploadResponse struct {
	Status   int    `json:"status"`
	FileName string `json:"fileName"`
}

// VerifyPasswordRequest represents the request body for password verification
type VerifyPasswordRequest struct {
	Password string `json:"password"`
}

// ListUsers returns a page of users
//
// @Summary List users
// @Param page path int false "Page (default 1)"
// @Param per_page path int false "Items per page (default 4, max 20)"
// @Produce json
// @Success 200 {object} services.UserList
// @Router /api/users/{page}/{per_page} [get]
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := intParam(r, "page", defaultPage)
	if err != nil {
		h.writer.Error(w, err)
		return
	}

	perPage, err := intParam(r, "per_page", defaultPerPage)
	if err != nil {
		h.writer.Error(w, err)
		return
	}

	list, err := h.service.ListUsers(r.Context(), page, perPage)
	if err != nil {
		h.writer.Error(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, list)
}

// Register creates a user account
//
// @Summary Register
// @Accept json
// @Param request body services.RegisterInput true "Registration"
// @Produce json
// @Success 200 {object} RegisterResponse
// @Router /api/register [post]
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterInput
	if err := decodeJSON(r, &req); err != nil {
		h.writer.Error(w, err)
		return
	}

	if _, err := h.service.Register(r.Context(), req); err != nil {
		h.writer.Error(w, err)
		return
	}

	h.writer.JSON(w, http.StatusOK, RegisterResponse{Status: http.StatusOK, Data: services.MsgRegistered})
}

// EditUser returns the editable fields of a user
//
// @Summary Get user for editing
// @Param id path int true "User ID"
// @Produce json
// @Success 200 {object} EditUserResponse
// @Failure 404 {object} pkghttp.StatusResponse
// @Router /api/edit/{id} [get]
func (h *UserHandler) EditUser(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r)
	if err != nil {
		h.writer.Error(w, err)
		return
	}

	detail, err := h.service.EditUser(r.Context(), id)
	if err != nil {
		h.writer.Error(w, err)
		return
	}

	h.writer.JSON(w, http.StatusOK, EditUserResponse{
		Status:  http.StatusOK,
		Message: services.MsgSuccess,
		Data:    detail,
	})
}

// UpdateUser applies a partial profile update
//
// @Summary Update user
// @Accept json
// @Param id path int true "User ID"
// @Param Authorization header string false "Bearer token, required to change email or password"
// @Param request body services.UpdateInput true "Fields to change"
// @Produce json
// @Success 200 {object} pkghttp.StatusResponse
// @Failure 404 {object} pkghttp.StatusResponse
// @Router /api/update/{id} [post]
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r)
	if err != nil {
		h.writer.Error(w, err)
		return
	}

	var req services.UpdateInput
	if err := decodeJSON(r, &req); err != nil {
		h.writer.Error(w, err)
		return
	}

	if err := h.service.UpdateUser(r.Context(), auth.PrincipalFromContext(r.Context()), id, req); err != nil {
		h.writer.Error(w, err)
		return
	}

	h.writer.JSON(w, http.StatusOK, pkghttp.StatusResponse{Status: http.StatusOK, Message: services.MsgUpdated})
}

// UploadFile stores an avatar image sent as multipart field "imageFile"
//
// @Summary Upload avatar
// @Accept multipart/form-data
// @Param imageFile formData file true "Avatar image (jpeg, gif or png)"
// @Produce json
// @Success 200 {object} UploadResponse
// @Router /api/uploadFile [post]
func (h *UserHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}

	file, cleanup, err := h.readAvatar(r)
	if err != nil {
		h.writer.Error(w, err)
		return
	}
	defer cleanup()

	result, err := h.service.UploadAvatarFile(r.Context(), file)
	if err != nil {
		h.writer.Error(w, err)
		return
	}

	h.writer.JSON(w, http.StatusOK, UploadResponse{Status: http.StatusOK, FileName: result.FileName})
}

// readAvatar returns the uploaded avatar, or nil when the request carries none.
// cleanup releases the file and any temporary parts and is never nil.
func (h *UserHandler) readAvatar(r *http.Request) (file *upload.File, cleanup func(), err error) {
	cleanup = func() {}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, http.ErrNotMultipart):
			return nil, cleanup, nil
		case errors.As(err, &maxErr):
			return nil, cleanup, models.NewValidationError(msgFileTooLarge)
		default:
			return nil, cleanup, models.NewValidationError(msgInvalidUpload)
		}
	}
	form := r.MultipartForm
	cleanup = func() { _ = form.RemoveAll() }

	f, header, err := r.FormFile(avatarField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, cleanup, nil
		}
		return nil, cleanup, models.NewValidationError(msgInvalidUpload)
	}
	cleanup = func() {
		_ = f.Close()
		_ = form.RemoveAll()
	}

	return &upload.File{
		OriginalName: header.Filename,
		MimeType:     header.Header.Get("Content-Type"),
		Size:         header.Size,
		Content:      f,
	}, cleanup, nil
}

// VerifyPassword checks a password against the authenticated caller's
//
// @Summary Verify password
// @Accept json
// @Param Authorization header string true "Bearer token"
// @Param request body VerifyPasswordRequest true "Password"
// @Produce json
// @Success 200 {object} services.PasswordCheck
// @Router /api/verify-password [post]
func (h *UserHandler) VerifyPassword(w http.ResponseWriter, r *http.Request) {
	var req VerifyPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		// an unreadable body is the same as a missing password
		req = VerifyPasswordRequest{}
	}

	check, err := h.service.VerifyPassword(r.Context(), auth.PrincipalFromContext(r.Context()), req.Password)
	if err != nil {
		h.writer.Error(w, err)
		return
	}

	h.writer.JSON(w, check.Status, check)
}
