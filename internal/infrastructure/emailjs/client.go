// Package emailjs sends templated mail through the EmailJS REST API.
package emailjs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/aryan0dhankhar/coachsync/internal/reliability/circuitbreaker"
)

// DefaultEndpoint is the public EmailJS send endpoint.
const DefaultEndpoint = "https://api.emailjs.com/api/v1.0/email/send"

// Credentials identify the EmailJS account and template.
type Credentials struct {
	ServiceID  string
	TemplateID string
	PublicKey  string
	PrivateKey string
}

// StatusError is returned for any non-200 answer.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("emailjs returned %d: %s", e.StatusCode, e.Body)
}

type request struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	AccessToken    string            `json:"accessToken,omitempty"`
	TemplateParams map[string]string `json:"template_params"`
}

// Client posts send requests. It is safe for concurrent use.
type Client struct {
	endpoint string
	creds    Credentials
	http     *http.Client
	breaker  *circuitbreaker.CircuitBreaker
	logger   *slog.Logger
}

// NewClient builds a client for endpoint (DefaultEndpoint when empty).
func NewClient(endpoint string, creds Credentials, logger *slog.Logger) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "emailjs"))

	cb := circuitbreaker.NewCircuitBreaker(5, 2, 30*time.Second)
	cb.SetStateChangeCallback(func(from, to circuitbreaker.State) {
		logger.Warn("emailjs circuit changed state",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})

	return &Client{
		endpoint: endpoint,
		creds:    creds,
		http: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: cb,
		logger:  logger,
	}
}

// Configured reports whether service, template and public key are set.
func (c *Client) Configured() bool {
	return c != nil && c.creds.ServiceID != "" && c.creds.TemplateID != "" && c.creds.PublicKey != ""
}

// Send delivers one message rendered from params. Only HTTP 200 counts as
// delivered.
func (c *Client) Send(ctx context.Context, params map[string]string) error {
	if !c.Configured() {
		return errors.New("emailjs is not configured")
	}
	body, err := json.Marshal(request{
		ServiceID:      c.creds.ServiceID,
		TemplateID:     c.creds.TemplateID,
		UserID:         c.creds.PublicKey,
		AccessToken:    c.creds.PrivateKey,
		TemplateParams: params,
	})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	return c.breaker.Execute(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("failed to reach emailjs: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(text))}
		}
		return nil
	})
}
