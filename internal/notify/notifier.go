// Package notify delivers outbound mail. Delivery is best effort:
// services call it after their own mutation committed, and a failure
// surfaces as a warning on the response, never as a failed operation.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"reddot/internal/logger"
)

// Notifier sends one message to one address.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPConfig configures the SMTP notifier.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPNotifier delivers mail over plain SMTP with optional auth.
type SMTPNotifier struct {
	cfg SMTPConfig
}

func NewSMTP(cfg SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg}
}

func (n *SMTPNotifier) Send(ctx context.Context, to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	msg := strings.Join([]string{
		"From: " + n.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		body,
	}, "\r\n")

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, n.cfg.From, []string{to}, []byte(msg))
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send to %s: %w", to, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send to %s: %w", to, ctx.Err())
	}
}

// Mailer renders a template from the catalog and sends it with its own
// deadline, detached from whatever transaction triggered it.
type Mailer struct {
	notifier Notifier
	catalog  *Catalog
	logger   logger.Logger
	timeout  time.Duration
}

func NewMailer(n Notifier, cat *Catalog, log logger.Logger, timeout time.Duration) *Mailer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Mailer{notifier: n, catalog: cat, logger: log, timeout: timeout}
}

// Send returns a warning string instead of an error: empty on success,
// human-readable otherwise. Callers attach it to an otherwise
// successful response.
func (m *Mailer) Send(to, template string, data map[string]string) string {
	subject, body, err := m.catalog.Render(template, data)
	if err != nil {
		m.logger.Error("mail template render failed",
			logger.String("template", template),
			logger.Error(err))
		return fmt.Sprintf("notification not sent: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	if err := m.notifier.Send(ctx, to, subject, body); err != nil {
		m.logger.Warn("mail delivery failed",
			logger.String("template", template),
			logger.String("to", to),
			logger.Error(err))
		return "notification could not be delivered"
	}

	m.logger.Debug("mail sent",
		logger.String("template", template),
		logger.String("to", to))
	return ""
}
