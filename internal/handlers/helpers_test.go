package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/BradenHooton/accounts/internal/models"
	"github.com/BradenHooton/accounts/internal/services"
	"github.com/BradenHooton/accounts/internal/upload"
	pkghttp "github.com/BradenHooton/accounts/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockUserService implements handlers.UserService for testing
type MockUserService struct {
	ListUsersFunc        func(ctx context.Context, page, perPage int) (*services.UserList, error)
	RegisterFunc         func(ctx context.Context, in services.RegisterInput) (*models.User, error)
	EditUserFunc         func(ctx context.Context, id int64) (*services.UserDetail, error)
	UpdateUserFunc       func(ctx context.Context, principal *models.User, id int64, in services.UpdateInput) error
	UploadAvatarFileFunc func(ctx context.Context, f *upload.File) (*services.UploadResult, error)
	VerifyPasswordFunc   func(ctx context.Context, principal *models.User, password string) (*services.PasswordCheck, error)
}

func (m *MockUserService) ListUsers(ctx context.Context, page, perPage int) (*services.UserList, error) {
	return m.ListUsersFunc(ctx, page, perPage)
}

func (m *MockUserService) Register(ctx context.Context, in services.RegisterInput) (*models.User, error) {
	return m.RegisterFunc(ctx, in)
}

func (m *MockUserService) EditUser(ctx context.Context, id int64) (*services.UserDetail, error) {
	return m.EditUserFunc(ctx, id)
}

func (m *MockUserService) UpdateUser(ctx context.Context, principal *models.User, id int64, in services.UpdateInput) error {
	return m.UpdateUserFunc(ctx, principal, id, in)
}

func (m *MockUserService) UploadAvatarFile(ctx context.Context, f *upload.File) (*services.UploadResult, error) {
	return m.UploadAvatarFileFunc(ctx, f)
}

func (m *MockUserService) VerifyPassword(ctx context.Context, principal *models.User, password string) (*services.PasswordCheck, error) {
	return m.VerifyPasswordFunc(ctx, principal, password)
}

// MockAuthService implements handlers.AuthService for testing
type MockAuthService struct {
	LoginFunc func(ctx context.Context, in services.LoginInput) (string, error)
}

func (m *MockAuthService) Login(ctx context.Context, in services.LoginInput) (string, error) {
	return m.LoginFunc(ctx, in)
}

var (
	compatWriter = pkghttp.Writer{}
	strictWriter = pkghttp.Writer{StrictStatus: true}
)

func newJSONRequest(t *testing.T, method, url string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// withURLParams attaches chi route parameters to req
func withURLParams(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func newMultipartRequest(t *testing.T, field, filename, contentType string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/uploadFile", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, target any) {
	t.Helper()
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	require.NoError(t, json.NewDecoder(w.Body).Decode(target))
}
