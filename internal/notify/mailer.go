package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/obs"
	"github.com/noah-isme/backend-resto/internal/resilience"
)

const defaultMailBaseURL = "https://api.resend.com"

// ResendMailer posts messages to a Resend-compatible /emails endpoint.
type ResendMailer struct {
	BaseURL string
	APIKey  string
	From    string
	HTTP    resilience.HTTPClient
}

// MailerConfig configures NewResendMailer.
type MailerConfig struct {
	BaseURL     string
	APIKey      string
	From        string
	Timeout     time.Duration
	MaxAttempts int
	Breaker     *resilience.Breaker
}

// NewResendMailer returns a mailer whose transport is traced with otelhttp
// and wrapped in retry and circuit breaking.
func NewResendMailer(cfg MailerConfig) *ResendMailer {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = defaultMailBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	breaker := cfg.Breaker
	if breaker == nil {
		breaker = resilience.NewBreaker(5, 0.5, 30*time.Second).WithTarget("mailer")
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	return &ResendMailer{
		BaseURL: base,
		APIKey:  cfg.APIKey,
		From:    cfg.From,
		HTTP: resilience.HTTPClient{
			Client:      &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
			Breaker:     breaker,
			BaseBackoff: 200 * time.Millisecond,
			MaxAttempts: attempts,
			Jitter:      0.2,
			Timeout:     timeout,
		},
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

// Send implements common.EmailSender.
func (m *ResendMailer) Send(ctx context.Context, msg common.Email) error {
	if m == nil {
		return errors.New("mailer: not configured")
	}
	start := time.Now()
	err := m.send(ctx, msg)
	result := "sent"
	if err != nil {
		result = "failed"
	}
	obs.IncCounter(obs.NotificationDeliveriesTotal, "email", result)
	if obs.NotificationAttemptLatency != nil {
		obs.NotificationAttemptLatency.WithLabelValues("email").Observe(obs.DurationMillis(time.Since(start)))
	}
	return err
}

func (m *ResendMailer) send(ctx context.Context, msg common.Email) error {
	body, err := json.Marshal(sendRequest{From: m.From, To: []string{msg.To}, Subject: msg.Subject, HTML: msg.HTML, Text: msg.Text})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.BaseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.APIKey)

	resp, err := m.HTTP.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("mailer: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("mailer: upstream responded %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct {
	Log zerolog.Logger
}

// Send implements common.EmailSender.
func (m LogMailer) Send(_ context.Context, msg common.Email) error {
	m.Log.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("email (not sent)")
	obs.IncCounter(obs.NotificationDeliveriesTotal, "email", "logged")
	return nil
}
