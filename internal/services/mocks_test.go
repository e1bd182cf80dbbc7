package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/BradenHooton/accounts/internal/models"
	"github.com/BradenHooton/accounts/internal/upload"
	"github.com/BradenHooton/accounts/pkg/auth"
	pkglogger "github.com/BradenHooton/accounts/pkg/logger"
)

// MockUserStore implements UserStore for testing
type MockUserStore struct {
	SaveFunc          func(ctx context.Context, user *models.User) error
	DeleteFunc        func(ctx context.Context, user *models.User) error
	FindByIDFunc      func(ctx context.Context, id int64) (*models.User, error)
	FindByEmailFunc   func(ctx context.Context, email string) (*models.User, error)
	FindPaginatedFunc func(ctx context.Context, limit, offset int) ([]*models.User, error)
	CountAllFunc      func(ctx context.Context) (int, error)
}

func (m *MockUserStore) Save(ctx context.Context, user *models.User) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, user)
	}
	return nil
}

func (m *MockUserStore) Delete(ctx context.Context, user *models.User) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, user)
	}
	return nil
}

func (m *MockUserStore) FindByID(ctx context.Context, id int64) (*models.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserStore) FindPaginated(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if m.FindPaginatedFunc != nil {
		return m.FindPaginatedFunc(ctx, limit, offset)
	}
	return []*models.User{}, nil
}

func (m *MockUserStore) CountAll(ctx context.Context) (int, error) {
	if m.CountAllFunc != nil {
		return m.CountAllFunc(ctx)
	}
	return 0, nil
}

// newMemoryStore returns a MockUserStore backed by a map, with a unique e-mail constraint
func newMemoryStore() *MockUserStore {
	var mu sync.Mutex
	users := map[int64]*models.User{}
	var nextID int64

	clone := func(u *models.User) *models.User {
		c := *u
		return &c
	}

	return &MockUserStore{
		SaveFunc: func(ctx context.Context, user *models.User) error {
			mu.Lock()
			defer mu.Unlock()
			for id, u := range users {
				if u.Email == user.Email && id != user.ID {
					return models.ErrConflict
				}
			}
			if user.ID == 0 {
				nextID++
				user.ID = nextID
			} else if _, ok := users[user.ID]; !ok {
				return models.ErrNotFound
			}
			users[user.ID] = clone(user)
			return nil
		},
		FindByIDFunc: func(ctx context.Context, id int64) (*models.User, error) {
			mu.Lock()
			defer mu.Unlock()
			if u, ok := users[id]; ok {
				return clone(u), nil
			}
			return nil, models.ErrNotFound
		},
		FindByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			mu.Lock()
			defer mu.Unlock()
			for _, u := range users {
				if u.Email == email {
					return clone(u), nil
				}
			}
			return nil, models.ErrNotFound
		},
		FindPaginatedFunc: func(ctx context.Context, limit, offset int) ([]*models.User, error) {
			mu.Lock()
			defer mu.Unlock()
			ids := make([]int64, 0, len(users))
			for id := range users {
				ids = append(ids, id)
			}
			sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
			out := []*models.User{}
			for i := offset; i < len(ids) && len(out) < limit; i++ {
				out = append(out, clone(users[ids[i]]))
			}
			return out, nil
		},
		CountAllFunc: func(ctx context.Context) (int, error) {
			mu.Lock()
			defer mu.Unlock()
			return len(users), nil
		},
	}
}

// MockAvatarStorage implements AvatarStorage for testing
type MockAvatarStorage struct {
	SaveFunc   func(ctx context.Context, name string, r io.Reader) error
	ExistsFunc func(name string) bool
}

func (m *MockAvatarStorage) Save(ctx context.Context, name string, r io.Reader) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, name, r)
	}
	return nil
}

func (m *MockAvatarStorage) Exists(name string) bool {
	if m.ExistsFunc != nil {
		return m.ExistsFunc(name)
	}
	return false
}

// MockNotifier records registration notifications
type MockNotifier struct {
	NotifyRegisteredFunc func(ctx context.Context, user *models.User) error
}

func (m *MockNotifier) NotifyRegistered(ctx context.Context, user *models.User) error {
	if m.NotifyRegisteredFunc != nil {
		return m.NotifyRegisteredFunc(ctx, user)
	}
	return nil
}

// MockTokenIssuer implements TokenIssuer for testing
type MockTokenIssuer struct {
	GenerateAccessTokenFunc func(userID int64, email string) (string, error)
}

func (m *MockTokenIssuer) GenerateAccessToken(userID int64, email string) (string, error) {
	if m.GenerateAccessTokenFunc != nil {
		return m.GenerateAccessTokenFunc(userID, email)
	}
	return "token", nil
}

const testBaseURL = "http://localhost:8080/"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testHasher() *auth.BcryptHasher {
	return auth.NewBcryptHasher(4)
}

func newTestUserService(store UserStore, storage AvatarStorage) *UserService {
	if storage == nil {
		storage = &MockAvatarStorage{}
	}
	logger := testLogger()
	return NewUserService(store, testHasher(), upload.NewValidator(), storage, testBaseURL, logger, pkglogger.NewAuditLogger(logger))
}

func validRegistration() RegisterInput {
	return RegisterInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Password:  "secret1",
	}
}

func strPtr(s string) *string { return &s }

func repeat(s string, n int) string { return strings.Repeat(s, n) }
