package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/BradenHooton/accounts/internal/models"
	pkglogger "github.com/BradenHooton/accounts/pkg/logger"
)

const msgInvalidCredentials = "Invalid credentials"

// TokenIssuer creates access tokens for authenticated users
type TokenIssuer interface {
	GenerateAccessToken(userID int64, email string) (string, error)
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	Status int    `json:"status"`
	Token  string `json:"token"`
}

// AuthService handles credential checks and token issuance
type AuthService struct {
	store       UserStore
	hasher      PasswordHasher
	tokens      TokenIssuer
	dummyHash   string
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewAuthService creates a new AuthService
func NewAuthService(store UserStore, hasher PasswordHasher, tokens TokenIssuer, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *AuthService {
	// Compared against when the e-mail is unknown so both paths cost one bcrypt check
	dummyHash, err := hasher.Hash("dummy-password-for-timing")
	if err != nil {
		logger.Warn("failed to prepare dummy password hash", slog.Any("error", err))
	}

	return &AuthService{
		store:       store,
		hasher:      hasher,
		tokens:      tokens,
		dummyHash:   dummyHash,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// Login checks the credentials and returns a signed access token
func (s *AuthService) Login(ctx context.Context, in LoginInput) (string, error) {
	in.Email = strings.TrimSpace(in.Email)

	if err := validateStruct(in); err != nil {
		return "", err
	}

	user, err := s.store.FindByEmail(ctx, in.Email)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Error("failed to find user for login", slog.Any("error", err))
			return "", models.NewPersistenceError(msgDatabaseError, err)
		}
		s.hasher.Verify(s.dummyHash, in.Password)
		s.logFailure(ctx, 0, in.Email, "unknown email")
		return "", models.NewAuthError(msgInvalidCredentials)
	}

	if !s.hasher.Verify(user.PasswordHash, in.Password) {
		s.logFailure(ctx, user.ID, in.Email, "wrong password")
		return "", models.NewAuthError(msgInvalidCredentials)
	}

	token, err := s.tokens.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		s.logger.Error("failed to generate access token", slog.Any("error", err))
		return "", models.NewPersistenceError("Unable to issue token", err)
	}

	if s.auditLogger != nil {
		s.auditLogger.Log(ctx, pkglogger.AuditEvent{
			EventType: pkglogger.EventLogin,
			UserID:    user.ID,
			Email:     user.Email,
			Success:   true,
		})
	}

	return token, nil
}

func (s *AuthService) logFailure(ctx context.Context, userID int64, email, reason string) {
	if s.auditLogger == nil {
		return
	}
	s.auditLogger.Log(ctx, pkglogger.AuditEvent{
		EventType:     pkglogger.EventLogin,
		UserID:        userID,
		Email:         email,
		Success:       false,
		FailureReason: reason,
	})
}
