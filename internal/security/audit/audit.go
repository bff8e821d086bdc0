package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/coachsync/internal/domain"
	"github.com/aryan0dhankhar/coachsync/internal/security/requestid"
)

// Outcome values recorded with an action.
const (
	StatusInitiated = "initiated"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusDenied    = "denied"
)

type Logger struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger.With(slog.String("component", "audit")), now: time.Now}
}

func (al *Logger) LogAction(ctx context.Context, p domain.Principal, action, resource, resourceID, status, details string) {
	al.logger.Info("audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.String("tenant_id", p.OrganizationID),
		slog.String("user_id", p.ID),
		slog.String("role", string(p.Role)),
		slog.String("status", status),
		slog.String("details", details),
		slog.String("request_id", requestid.From(ctx)),
		slog.Time("timestamp", al.now().UTC()),
	)
}

// LogLogin records a login attempt. A failed attempt carries only the
// submitted nickname.
func (al *Logger) LogLogin(ctx context.Context, p domain.Principal, nickname string, ok bool) {
	status := StatusSucceeded
	if !ok {
		status = StatusFailed
		p = domain.Principal{Nickname: nickname}
	}
	al.LogAction(ctx, p, "login", "session", nickname, status, "")
}

func (al *Logger) LogDenied(ctx context.Context, p domain.Principal, reason string) {
	al.LogAction(ctx, p, "access_denied", "api", "", StatusDenied, reason)
}
