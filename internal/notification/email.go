package notification

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ummahconnect/community-backend/config"
)

var emailTemplate = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
  <h2>{{.Subject}}</h2>
  <p>{{.Body}}</p>
  <hr>
  <p style="font-size: 12px; color: #888;">You received this message because someone invited you to join our community.</p>
</body>
</html>`))

// EmailSender sends HTML mail over SMTP with STARTTLS. With no host
// configured it only logs the message, which keeps local setups working.
type EmailSender struct {
	Host     string
	Port     string
	Username string
	Password string
	FromName string
	FromAddr string
	Timeout  time.Duration
	log      zerolog.Logger
}

func NewEmailSender(cfg *config.Config, log zerolog.Logger) *EmailSender {
	from := cfg.SMTPFromEmail
	if from == "" {
		from = cfg.SMTPUsername
	}
	return &EmailSender{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		FromName: cfg.SMTPFromName,
		FromAddr: from,
		Timeout:  10 * time.Second,
		log:      log,
	}
}

// Send renders the HTML template and sends the email
func (e *EmailSender) Send(ctx context.Context, to []string, subject string, body string) error {
	message, err := e.buildMessage(to, subject, body)
	if err != nil {
		return err
	}

	if e.Host == "" {
		e.log.Warn().Strs("to", to).Str("subject", subject).Msg("SMTP not configured, email not sent")
		return nil
	}

	addr := net.JoinHostPort(e.Host, e.Port)
	e.log.Debug().Strs("to", to).Str("addr", addr).Msg("sending email")

	if err := e.sendMailWithTLS(ctx, addr, to, message); err != nil {
		e.log.Error().Err(err).Strs("to", to).Msg("email send failed")
		return fmt.Errorf("failed to send email: %w", err)
	}

	e.log.Info().Strs("to", to).Msg("email sent")
	return nil
}

func (e *EmailSender) buildMessage(to []string, subject, body string) ([]byte, error) {
	var htmlBody bytes.Buffer
	err := emailTemplate.Execute(&htmlBody, map[string]string{
		"Subject": subject,
		"Body":    body,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render email template: %w", err)
	}

	headers := map[string]string{
		"From":         fmt.Sprintf("%s <%s>", e.FromName, e.FromAddr),
		"To":           strings.Join(to, ", "),
		"Subject":      subject,
		"MIME-Version": "1.0",
		"Content-Type": "text/html; charset=\"UTF-8\"",
	}
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var msg strings.Builder
	for _, k := range keys {
		msg.WriteString(k + ": " + headers[k] + "\r\n")
	}
	msg.WriteString("\r\n")
	msg.Write(htmlBody.Bytes())
	return []byte(msg.String()), nil
}

func (e *EmailSender) sendMailWithTLS(ctx context.Context, addr string, to []string, message []byte) error {
	dialer := &net.Dialer{Timeout: e.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to dial SMTP server: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(e.Timeout))
	}

	client, err := smtp.NewClient(conn, e.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to open SMTP session: %w", err)
	}
	defer client.Close()

	if err = client.StartTLS(&tls.Config{ServerName: e.Host}); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	if e.Username != "" {
		auth := smtp.PlainAuth("", e.Username, e.Password, e.Host)
		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("authentication failed: %w", err)
		}
	}

	if err = client.Mail(e.FromAddr); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	for _, recipient := range to {
		if err = client.Rcpt(recipient); err != nil {
			return fmt.Errorf("failed to set recipient %s: %w", recipient, err)
		}
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err = writer.Write(message); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err = writer.Close(); err != nil {
		return fmt.Errorf("failed to close writer: %w", err)
	}

	return client.Quit()
}
