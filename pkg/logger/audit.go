package logger

import (
	"context"
	"log/slog"
	"time"
)

// Audit event types
const (
	EventRegister       = "register"
	EventLogin          = "login"
	EventProfileUpdate  = "profile_update"
	EventAvatarUpload   = "avatar_upload"
	EventPasswordVerify = "password_verify"
)

// AuditEvent represents an account audit event
type AuditEvent struct {
	EventType     string
	UserID        int64
	Email         string
	Success       bool
	FailureReason string
	Metadata      map[string]string
}

// AuditLogger writes account audit events through slog
type AuditLogger struct {
	logger *slog.Logger
}

func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger,
	}
}

// Log records event; failures are logged at warn level
func (al *AuditLogger) Log(ctx context.Context, event AuditEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "account"),
		slog.String("event_type", event.EventType),
		slog.Bool("success", event.Success),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if event.UserID != 0 {
		attrs = append(attrs, slog.Int64("user_id", event.UserID))
	}
	if event.Email != "" {
		attrs = append(attrs, slog.String("email", SanitizedEmail(event.Email)))
	}
	if event.FailureReason != "" {
		attrs = append(attrs, slog.String("failure_reason", event.FailureReason))
	}
	for key, val := range event.Metadata {
		attrs = append(attrs, slog.String(key, val))
	}

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}
	al.logger.LogAttrs(ctx, level, "audit", attrs...)
}
