package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/BradenHooton/accounts/internal/models"
	"github.com/BradenHooton/accounts/internal/upload"
	"github.com/BradenHooton/accounts/pkg/auth"
	pkglogger "github.com/BradenHooton/accounts/pkg/logger"
	"github.com/BradenHooton/accounts/pkg/pager"
)

const (
	MsgEmailTaken       = "User with this email already registered"
	MsgUserNotFound     = "User not found"
	MsgNoPrincipal      = "JWT token not found"
	MsgPasswordRequired = "Password is required"
	MsgWrongPassword    = "You have entered a wrong password"
	MsgSuccess          = "Success"
	MsgUpdated          = "Data updated successfully"
	MsgRegistered       = "Registered successfully"
	MsgNotOwnAccount    = "You can only change the email or password of your own account"

	msgDatabaseError  = "Database error"
	msgAvatarNotFound = "Avatar file does not exist"
)

// UserStore defines the persistence operations the services need
type UserStore interface {
	Save(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindPaginated(ctx context.Context, limit, offset int) ([]*models.User, error)
	CountAll(ctx context.Context) (int, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hashedPassword, password string) bool
}

type UploadValidator interface {
	Validate(f *upload.File) error
}

type AvatarStorage interface {
	Save(ctx context.Context, name string, r io.Reader) error
	Exists(name string) bool
}

// Notifier is told about new registrations. Errors are logged and otherwise ignored.
type Notifier interface {
	NotifyRegistered(ctx context.Context, user *models.User) error
}

type RegisterInput struct {
	FirstName string `json:"firstName" validate:"required,min=3,max=50"`
	LastName  string `json:"lastName" validate:"required,min=3,max=50"`
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=4,max=50"`
}

// UpdateInput holds a partial profile; nil fields are left untouched
type UpdateInput struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	Avatar    *string `json:"avatar"`
}

type profile struct {
	FirstName string `json:"firstName" validate:"required,min=3,max=50"`
	LastName  string `json:"lastName" validate:"required,min=3,max=50"`
	Email     string `json:"email" validate:"required,email,max=255"`
}

type passwordInput struct {
	Password string `json:"password" validate:"required,min=4,max=50"`
}

type UserListItem struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Avatar    string `json:"avatar"`
}

type UserList struct {
	Page       int            `json:"page"`
	PerPage    int            `json:"per_page"`
	Total      int            `json:"total"`
	TotalPages int            `json:"total_pages"`
	Data       []UserListItem `json:"data"`
}

type UserDetail struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Avatar    string `json:"avatar"`
	AvatarURL string `json:"avatarUrl"`
}

type UploadResult struct {
	FileName string `json:"fileName"`
}

// PasswordCheck is the outcome of a password verification. A mismatch is a result, not an error.
type PasswordCheck struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// UserService handles user business logic
type UserService struct {
	store       UserStore
	hasher      PasswordHasher
	uploads     UploadValidator
	storage     AvatarStorage
	notifier    Notifier
	baseURL     string
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
	now         func() time.Time
}

// NewUserService creates a new UserService. baseURL must end with a slash.
func NewUserService(
	store UserStore,
	hasher PasswordHasher,
	uploads UploadValidator,
	storage AvatarStorage,
	baseURL string,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *UserService {
	return &UserService{
		store:       store,
		hasher:      hasher,
		uploads:     uploads,
		storage:     storage,
		baseURL:     baseURL,
		logger:      logger,
		auditLogger: auditLogger,
		now:         time.Now,
	}
}

func (s *UserService) SetNotifier(n Notifier) {
	s.notifier = n
}

// ListUsers returns one page of users ordered by id
func (s *UserService) ListUsers(ctx context.Context, page, perPage int) (*UserList, error) {
	p := pager.Normalize(page, perPage)

	total, err := s.store.CountAll(ctx)
	if err != nil {
		return nil, s.storeError("count users", err)
	}

	users, err := s.store.FindPaginated(ctx, p.Limit, p.Offset)
	if err != nil {
		return nil, s.storeError("list users", err)
	}

	items := make([]UserListItem, 0, len(users))
	for _, u := range users {
		items = append(items, UserListItem{
			ID:        u.ID,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Email:     u.Email,
			Avatar:    s.avatarURL(u),
		})
	}

	return &UserList{
		Page:       p.Number,
		PerPage:    p.Limit,
		Total:      total,
		TotalPages: pager.TotalPages(total, p.Limit),
		Data:       items,
	}, nil
}

// Register creates a new user. The e-mail check runs before field validation.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)

	if in.Email != "" {
		if err := s.ensureEmailFree(ctx, in.Email, 0); err != nil {
			s.audit(ctx, pkglogger.EventRegister, 0, in.Email, err)
			return nil, err
		}
	}

	if err := validateStruct(in); err != nil {
		s.audit(ctx, pkglogger.EventRegister, 0, in.Email, err)
		return nil, err
	}

	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &models.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: hash,
		DateCreated:  now,
		DateUpdated:  now,
	}

	if err := s.store.Save(ctx, user); err != nil {
		// Concurrent registrations race past the pre-check; the unique index decides
		if errors.Is(err, models.ErrConflict) {
			conflict := models.NewConflictError(MsgEmailTaken)
			s.audit(ctx, pkglogger.EventRegister, 0, in.Email, conflict)
			return nil, conflict
		}
		return nil, s.storeError("create user", err)
	}

	s.logger.Info("user registered", slog.Int64("user_id", user.ID))
	s.audit(ctx, pkglogger.EventRegister, user.ID, user.Email, nil)

	if s.notifier != nil {
		if err := s.notifier.NotifyRegistered(ctx, user); err != nil {
			s.logger.Warn("registration notification failed",
				slog.Int64("user_id", user.ID),
				slog.Any("error", err))
		}
	}

	return user, nil
}

// EditUser returns the editable projection of a user
func (s *UserService) EditUser(ctx context.Context, id int64) (*UserDetail, error) {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}

	return &UserDetail{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Avatar:    user.AvatarName(),
		AvatarURL: s.avatarURL(user),
	}, nil
}

// UpdateUser merges the present fields of in into the user and persists the result.
// The merged profile must satisfy the registration rules. Changing the e-mail or the
// password requires principal to be the user being updated.
func (s *UserService) UpdateUser(ctx context.Context, principal *models.User, id int64, in UpdateInput) error {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return err
	}

	merged := profile{
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
	}
	if in.FirstName != nil {
		merged.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		merged.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Email != nil {
		merged.Email = strings.TrimSpace(*in.Email)
	}

	if (in.Password != nil || merged.Email != user.Email) && (principal == nil || principal.ID != user.ID) {
		err := models.NewAuthError(MsgNotOwnAccount)
		s.audit(ctx, pkglogger.EventProfileUpdate, user.ID, user.Email, err)
		return err
	}

	if err := validateStruct(merged); err != nil {
		return err
	}

	if merged.Email != user.Email {
		if err := s.ensureEmailFree(ctx, merged.Email, user.ID); err != nil {
			return err
		}
	}

	if in.Password != nil {
		if err := validateStruct(passwordInput{Password: *in.Password}); err != nil {
			return err
		}
		hash, err := s.hashPassword(*in.Password)
		if err != nil {
			return err
		}
		user.PasswordHash = hash
	}

	if in.Avatar != nil {
		name := strings.TrimSpace(*in.Avatar)
		switch {
		case name == "":
			user.Avatar = nil
		case !upload.IsBareName(name) || !s.storage.Exists(name):
			return models.NewValidationError(msgAvatarNotFound)
		default:
			user.Avatar = &name
		}
	}

	user.FirstName = merged.FirstName
	user.LastName = merged.LastName
	user.Email = merged.Email
	user.DateUpdated = s.now().UTC()

	if err := s.store.Save(ctx, user); err != nil {
		switch {
		case errors.Is(err, models.ErrConflict):
			return models.NewConflictError(MsgEmailTaken)
		case errors.Is(err, models.ErrNotFound):
			return models.NewNotFoundError(MsgUserNotFound)
		}
		return s.storeError("update user", err)
	}

	s.audit(ctx, pkglogger.EventProfileUpdate, user.ID, user.Email, nil)
	return nil
}

// UploadAvatarFile validates and stores an avatar. It does not attach the file to a user;
// callers follow up with UpdateUser.
func (s *UserService) UploadAvatarFile(ctx context.Context, f *upload.File) (*UploadResult, error) {
	if err := s.uploads.Validate(f); err != nil {
		s.audit(ctx, pkglogger.EventAvatarUpload, 0, "", err)
		return nil, err
	}

	name := upload.NewFileName(f.OriginalName, f.MimeType)

	if err := s.storage.Save(ctx, name, f.Content); err != nil {
		s.logger.Error("failed to store avatar", slog.String("file", name), slog.Any("error", err))
		var appErr *models.Error
		if !errors.As(err, &appErr) {
			err = models.NewStorageError("Unable to store file", err)
		}
		return nil, err
	}

	s.audit(ctx, pkglogger.EventAvatarUpload, 0, "", nil)
	return &UploadResult{FileName: name}, nil
}

// VerifyPassword checks password against the principal's stored hash
func (s *UserService) VerifyPassword(ctx context.Context, principal *models.User, password string) (*PasswordCheck, error) {
	if principal == nil {
		return nil, models.NewAuthError(MsgNoPrincipal)
	}

	if password == "" {
		return nil, models.NewValidationError(MsgPasswordRequired)
	}

	if !s.hasher.Verify(principal.PasswordHash, password) {
		s.audit(ctx, pkglogger.EventPasswordVerify, principal.ID, principal.Email, errors.New("password mismatch"))
		return &PasswordCheck{Status: http.StatusUnauthorized, Message: MsgWrongPassword}, nil
	}

	s.audit(ctx, pkglogger.EventPasswordVerify, principal.ID, principal.Email, nil)
	return &PasswordCheck{Status: http.StatusOK, Message: MsgSuccess}, nil
}

func (s *UserService) findUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("user not found", slog.Int64("user_id", id))
			return nil, models.NewNotFoundError(MsgUserNotFound)
		}
		return nil, s.storeError("get user", err)
	}
	return user, nil
}

// ensureEmailFree fails with a ConflictError when email belongs to a user other than ownerID
func (s *UserService) ensureEmailFree(ctx context.Context, email string, ownerID int64) error {
	existing, err := s.store.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, models.ErrNotFound):
		return nil
	case err != nil:
		return s.storeError("find user by email", err)
	case existing.ID != ownerID:
		return models.NewConflictError(MsgEmailTaken)
	}
	return nil
}

func (s *UserService) hashPassword(password string) (string, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return "", models.NewValidationError("password: Password is too long")
		}
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return "", models.NewPersistenceError("Unable to process password", err)
	}
	return hash, nil
}

func (s *UserService) avatarURL(u *models.User) string {
	name := u.AvatarName()
	if name == "" {
		return ""
	}
	return s.baseURL + upload.PublicPath + name
}

func (s *UserService) storeError(op string, err error) error {
	s.logger.Error("user store failure", slog.String("op", op), slog.Any("error", err))
	return models.NewPersistenceError(msgDatabaseError, err)
}

func (s *UserService) audit(ctx context.Context, eventType string, userID int64, email string, failure error) {
	if s.auditLogger == nil {
		return
	}
	event := pkglogger.AuditEvent{
		EventType: eventType,
		UserID:    userID,
		Email:     email,
		Success:   failure == nil,
	}
	if failure != nil {
		event.FailureReason = failure.Error()
	}
	s.auditLogger.Log(ctx, event)
}
