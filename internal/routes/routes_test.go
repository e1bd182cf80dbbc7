package routes_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/BradenHooton/accounts/internal/auth"
	"github.com/BradenHooton/accounts/internal/handlers"
	"github.com/BradenHooton/accounts/internal/models"
	"github.com/BradenHooton/accounts/internal/routes"
	"github.com/BradenHooton/accounts/internal/services"
	"github.com/BradenHooton/accounts/internal/upload"
	pkghttp "github.com/BradenHooton/accounts/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUserService struct {
	lastPage, lastPerPage int
	principal             *models.User
}

func (s *stubUserService) ListUsers(ctx context.Context, page, perPage int) (*services.UserList, error) {
	s.lastPage, s.lastPerPage = page, perPage
	return &services.UserList{Page: page, PerPage: perPage, Data: []services.UserListItem{}}, nil
}

func (s *stubUserService) Register(ctx context.Context, in services.RegisterInput) (*models.User, error) {
	return &models.User{ID: 1}, nil
}

func (s *stubUserService) EditUser(ctx context.Context, id int64) (*services.UserDetail, error) {
	return &services.UserDetail{ID: id}, nil
}

func (s *stubUserService) UpdateUser(ctx context.Context, principal *models.User, id int64, in services.UpdateInput) error {
	s.principal = principal
	if in.Password != nil && (principal == nil || principal.ID != id) {
		return models.NewAuthError(services.MsgNotOwnAccount)
	}
	return nil
}

func (s *stubUserService) UploadAvatarFile(ctx context.Context, f *upload.File) (*services.UploadResult, error) {
	return &services.UploadResult{FileName: "a.png"}, nil
}

func (s *stubUserService) VerifyPassword(ctx context.Context, principal *models.User, password string) (*services.PasswordCheck, error) {
	s.principal = principal
	if principal == nil {
		return nil, models.NewAuthError(services.MsgNoPrincipal)
	}
	return &services.PasswordCheck{Status: http.StatusOK, Message: services.MsgSuccess}, nil
}

type stubAuthService struct{}

func (stubAuthService) Login(ctx context.Context, in services.LoginInput) (string, error) {
	return "token", nil
}

type stubFinder struct{ user *models.User }

func (f stubFinder) FindByID(ctx context.Context, id int64) (*models.User, error) {
	if f.user == nil || f.user.ID != id {
		return nil, models.ErrNotFound
	}
	return f.user, nil
}

type stubHealth struct{ err error }

func (h stubHealth) HealthCheck(ctx context.Context) error { return h.err }

func newRouter(t *testing.T, users *stubUserService, finder stubFinder, tm *auth.TokenManager) chi.Router {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	writer := pkghttp.Writer{Logger: logger}

	r := chi.NewRouter()
	routes.RegisterRoutes(r,
		handlers.NewUserHandler(users, writer, 1<<20),
		handlers.NewAuthHandler(stubAuthService{}, writer),
		tm, finder, 100, logger)
	return r
}

func TestRegisterRoutes_ListVariants(t *testing.T) {
	tm := auth.NewTokenManager("routes-test-secret-0123456789", time.Hour)

	tests := []struct {
		path        string
		wantPage    int
		wantPerPage int
	}{
		{"/api/users", 1, 4},
		{"/api/users/3", 3, 4},
		{"/api/users/2/10", 2, 10},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			users := &stubUserService{}
			r := newRouter(t, users, stubFinder{}, tm)

			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, tt.wantPage, users.lastPage)
			assert.Equal(t, tt.wantPerPage, users.lastPerPage)
		})
	}
}

func TestRegisterRoutes_VerifyPasswordAuthenticates(t *testing.T) {
	tm := auth.NewTokenManager("routes-test-secret-0123456789", time.Hour)
	user := &models.User{ID: 7, Email: "jane@example.com"}
	token, err := tm.GenerateAccessToken(user.ID, user.Email)
	require.NoError(t, err)

	users := &stubUserService{}
	r := newRouter(t, users, stubFinder{user: user}, tm)

	req := httptest.NewRequest(http.MethodPost, "/api/verify-password", strings.NewReader(`{"password":"secret"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, users.principal)
	assert.Equal(t, int64(7), users.principal.ID)
}

func TestRegisterRoutes_VerifyPasswordWithoutToken(t *testing.T) {
	tm := auth.NewTokenManager("routes-test-secret-0123456789", time.Hour)
	users := &stubUserService{}
	r := newRouter(t, users, stubFinder{}, tm)

	req := httptest.NewRequest(http.MethodPost, "/api/verify-password", strings.NewReader(`{"password":"secret"}`))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Nil(t, users.principal)

	var body pkghttp.StatusResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, http.StatusBadRequest, body.Status)
	assert.Equal(t, services.MsgNoPrincipal, body.Message)
}

func TestRegisterRoutes_UpdateResolvesPrincipal(t *testing.T) {
	tm := auth.NewTokenManager("routes-test-secret-0123456789", time.Hour)
	user := &models.User{ID: 7, Email: "jane@example.com"}
	token, err := tm.GenerateAccessToken(user.ID, user.Email)
	require.NoError(t, err)

	t.Run("anonymous password change is refused", func(t *testing.T) {
		users := &stubUserService{}
		r := newRouter(t, users, stubFinder{user: user}, tm)

		req := httptest.NewRequest(http.MethodPost, "/api/update/7", strings.NewReader(`{"password":"taken-over"}`))
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		assert.Nil(t, users.principal)
		var body pkghttp.StatusResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, http.StatusBadRequest, body.Status)
		assert.Equal(t, services.MsgNotOwnAccount, body.Message)
	})

	t.Run("owner token is passed through", func(t *testing.T) {
		users := &stubUserService{}
		r := newRouter(t, users, stubFinder{user: user}, tm)

		req := httptest.NewRequest(http.MethodPost, "/api/update/7", strings.NewReader(`{"password":"new-secret"}`))
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		require.NotNil(t, users.principal)
		assert.Equal(t, int64(7), users.principal.ID)
		var body pkghttp.StatusResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, http.StatusOK, body.Status)
	})
}

func TestRegisterRoutes_Login(t *testing.T) {
	tm := auth.NewTokenManager("routes-test-secret-0123456789", time.Hour)
	r := newRouter(t, &stubUserService{}, stubFinder{}, tm)

	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"email":"a@b.co","password":"x"}`))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	var body services.LoginResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "token", body.Token)
}

func TestRegisterSystemRoutes_Health(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		r := chi.NewRouter()
		routes.RegisterSystemRoutes(r, stubHealth{}, t.TempDir())

		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"status":"healthy","database":"up"}`, rr.Body.String())
	})

	t.Run("database down", func(t *testing.T) {
		r := chi.NewRouter()
		routes.RegisterSystemRoutes(r, stubHealth{err: errors.New("connection refused")}, t.TempDir())

		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.JSONEq(t, `{"status":"unhealthy","database":"down"}`, rr.Body.String())
	})
}

func TestRegisterSystemRoutes_ServesUploads(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "jane-abc.png"), []byte("png-bytes"), 0o644))

	r := chi.NewRouter()
	routes.RegisterSystemRoutes(r, stubHealth{}, dir)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/uploads/users/jane-abc.png", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "png-bytes", rr.Body.String())

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/uploads/users/", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/uploads/users/missing.png", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRegisterSystemRoutes_Metrics(t *testing.T) {
	r := chi.NewRouter()
	routes.RegisterSystemRoutes(r, stubHealth{}, t.TempDir())

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "go_goroutines")
}
