package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"regexp"
	"strings"
	"time"

	"dailybriefing/internal/config"
)

// Email sends the briefing as a plain-text message over SMTP.
type Email struct {
	host     string
	port     int
	username string
	password string
	from     string
	to       []string
	useTLS   bool // STARTTLS after connecting
	useSSL   bool // implicit TLS from the first byte
}

func NewEmail(cfg config.Email) *Email {
	username := cfg.Username
	if username == "" {
		username = extractEmailAddress(cfg.From)
	}
	return &Email{
		host:     cfg.Server,
		port:     cfg.Port,
		username: username,
		password: cfg.Password,
		from:     cfg.From,
		to:       cfg.To,
		useTLS:   cfg.UseTLS,
		useSSL:   cfg.UseSSL,
	}
}

func (e *Email) Name() string { return "email" }

func (e *Email) Send(ctx context.Context, msg Message) error {
	if len(e.to) == 0 {
		return fmt.Errorf("no recipients configured")
	}
	content := e.buildMessage(msg)
	addr := net.JoinHostPort(e.host, fmt.Sprint(e.port))
	auth := smtp.PlainAuth("", e.username, e.password, e.host)

	if e.useSSL {
		return e.sendWithTLS(ctx, addr, auth, content)
	}
	return e.sendWithContext(ctx, addr, auth, content)
}

func (e *Email) buildMessage(msg Message) string {
	var content strings.Builder
	date := msg.Date
	if date.IsZero() {
		date = time.Now()
	}

	content.WriteString(fmt.Sprintf("From: %s\r\n", e.from))
	content.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(e.to, ", ")))
	content.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject)))
	content.WriteString(fmt.Sprintf("Date: %s\r\n", date.Format(time.RFC1123Z)))
	content.WriteString("MIME-Version: 1.0\r\n")
	content.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	content.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	content.WriteString("\r\n")
	content.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return content.String()
}

var reAngleAddress = regexp.MustCompile(`<([^>]+)>`)

// extractEmailAddress returns the bare address of "Name <addr>" forms.
func extractEmailAddress(address string) string {
	if m := reAngleAddress.FindStringSubmatch(address); len(m) > 1 {
		return m[1]
	}
	return strings.TrimSpace(address)
}

func (e *Email) sendWithContext(ctx context.Context, addr string, auth smtp.Auth, content string) error {
	d := &net.Dialer{Timeout: 30 * time.Second}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, e.host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	if e.useTLS {
		if err := client.StartTLS(&tls.Config{ServerName: e.host}); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}
	return e.deliver(client, auth, content)
}

func (e *Email) sendWithTLS(ctx context.Context, addr string, auth smtp.Auth, content string) error {
	d := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: 30 * time.Second},
		Config:    &tls.Config{ServerName: e.host},
	}
	// ctx bounds the TCP connect and the TLS handshake.
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to create TLS connection: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, e.host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()
	return e.deliver(client, auth, content)
}

func (e *Email) deliver(client *smtp.Client, auth smtp.Auth, content string) error {
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}
	if err := client.Mail(extractEmailAddress(e.from)); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	for _, recipient := range e.to {
		if err := client.Rcpt(extractEmailAddress(recipient)); err != nil {
			return fmt.Errorf("failed to set recipient %s: %w", recipient, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err := w.Write([]byte(content)); err != nil {
		w.Close()
		return fmt.Errorf("failed to write message content: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}
	return client.Quit()
}
