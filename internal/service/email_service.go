package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"regexp"
	"strings"
	"time"

	"github.com/aryan0dhankhar/coachsync/internal/domain"
	"github.com/aryan0dhankhar/coachsync/internal/observability/metrics"
	"github.com/aryan0dhankhar/coachsync/internal/repository"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// Sender delivers template parameters to the mail provider.
type Sender interface {
	Configured() bool
	Send(ctx context.Context, params map[string]string) error
}

// Outbox is the tenant state that receives the email log. A session mirror
// satisfies it.
type Outbox interface {
	TenantID() string
	AppendEmailLog(ctx context.Context, entry domain.EmailLog) (domain.EmailLog, error)
}

// Message is one outgoing mail.
type Message struct {
	To      string `json:"to"`
	ToName  string `json:"toName"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// SendResult mirrors what the client shows after a send attempt.
type SendResult struct {
	Success   bool      `json:"success"`
	MessageID string    `json:"messageId,omitempty"`
	Demo      bool      `json:"demo,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// EmailService sends tenant mail and logs every attempt.
type EmailService struct {
	repos  *repository.Repositories
	sender Sender
	logger *slog.Logger
	now    func() time.Time
}

// NewEmailService creates the service. A nil or unconfigured sender puts it
// in demo mode.
func NewEmailService(repos *repository.Repositories, sender Sender, logger *slog.Logger) *EmailService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmailService{
		repos:  repos,
		sender: sender,
		logger: logger.With(slog.String("component", "email")),
		now:    time.Now,
	}
}

// Send delivers msg with the tenant's sender settings and appends the
// outcome to the outbox's email log. The returned error is the delivery
// failure, if any; the result is always filled in.
func (s *EmailService) Send(ctx context.Context, out Outbox, msg Message, kind string) (SendResult, error) {
	if out == nil || out.TenantID() == "" {
		return SendResult{}, ErrUnsupported
	}
	if !emailPattern.MatchString(msg.To) {
		return SendResult{}, &ValidationError{Problems: []string{"Ongeldig ontvanger e-mailadres"}}
	}
	tenantID := out.TenantID()
	settings := s.repos.EmailSettings.Get(ctx, tenantID)

	res, mode, err := s.deliver(ctx, settings, msg)
	if err != nil {
		res.Error = err.Error()
		metrics.ObserveEmailSend(mode, "error")
		s.logger.Warn("email not sent",
			slog.String("tenant_id", tenantID),
			slog.String("mode", mode),
			slog.String("error", err.Error()),
		)
	} else {
		metrics.ObserveEmailSend(mode, "ok")
		s.logger.Info("email sent",
			slog.String("tenant_id", tenantID),
			slog.String("mode", mode),
			slog.String("message_id", res.MessageID),
		)
	}

	entry := domain.EmailLog{
		Timestamp: res.Timestamp.Format(time.RFC3339Nano),
		Type:      kind,
		ToEmail:   msg.To,
		Subject:   msg.Subject,
		Success:   res.Success,
		Error:     res.Error,
		MessageID: res.MessageID,
	}
	if _, logErr := out.AppendEmailLog(ctx, entry); logErr != nil {
		s.logger.Error("failed to log email attempt",
			slog.String("tenant_id", tenantID),
			slog.String("error", logErr.Error()),
		)
	}
	return res, err
}

func (s *EmailService) deliver(ctx context.Context, settings domain.EmailSettings, msg Message) (SendResult, string, error) {
	now := s.now().UTC()
	res := SendResult{Timestamp: now}
	if !settings.Enabled {
		return res, "disabled", ErrEmailDisabled
	}
	if s.sender == nil || !s.sender.Configured() {
		res.Success = true
		res.Demo = true
		res.MessageID = demoMessageID(now)
		return res, "demo", nil
	}

	params := map[string]string{
		"to_email":   msg.To,
		"to_name":    orDefault(msg.ToName, "Gebruiker"),
		"from_name":  orDefault(settings.SenderName, "Coaching App"),
		"from_email": settings.SenderEmail,
		"subject":    msg.Subject,
		"message":    msg.Body,
		"reply_to":   settings.SenderEmail,
	}
	if err := s.sender.Send(ctx, params); err != nil {
		return res, "emailjs", fmt.Errorf("failed to send email: %w", err)
	}
	res.Success = true
	res.MessageID = fmt.Sprintf("emailjs_%d", now.UnixMilli())
	return res, "emailjs", nil
}

// IsDeliveryError reports whether err came from the provider rather than
// from input or configuration.
func IsDeliveryError(err error) bool {
	var verr *ValidationError
	return err != nil && !errors.Is(err, ErrEmailDisabled) && !errors.Is(err, ErrUnsupported) && !errors.As(err, &verr)
}

// ValidateSettings lists what is wrong with the sender settings.
func ValidateSettings(settings domain.EmailSettings) []string {
	var problems []string
	if settings.SenderEmail == "" {
		problems = append(problems, "Verzender e-mailadres is verplicht")
	} else if !emailPattern.MatchString(settings.SenderEmail) {
		problems = append(problems, "Ongeldig verzender e-mailadres")
	}
	if strings.TrimSpace(settings.SenderName) == "" {
		problems = append(problems, "Verzender naam is verplicht")
	}
	return problems
}

func demoMessageID(now time.Time) string {
	suffix := make([]byte, 9)
	for i := range suffix {
		suffix[i] = base36[rand.IntN(len(base36))]
	}
	return fmt.Sprintf("demo_%d_%s", now.UnixMilli(), suffix)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
