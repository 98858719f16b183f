package services

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/amirphl/orochi-partners/config"
	"github.com/amirphl/orochi-partners/logging"
	gobreaker "github.com/sony/gobreaker/v2"
)

// SMTPEmailProvider delivers email through an SMTP relay
type SMTPEmailProvider struct {
	host      string
	port      int
	username  string
	password  string
	fromEmail string
	fromName  string
	useTLS    bool
	timeout   time.Duration
}

// NewSMTPEmailProvider creates an SMTP provider from cfg
func NewSMTPEmailProvider(cfg config.EmailConfig) EmailProvider {
	return &SMTPEmailProvider{
		host:      cfg.Host,
		port:      cfg.Port,
		username:  cfg.Username,
		password:  cfg.Password,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		useTLS:    cfg.UseTLS,
		timeout:   cfg.Timeout,
	}
}

func (p *SMTPEmailProvider) Send(ctx context.Context, msg EmailMessage) error {
	addr := fmt.Sprintf("%s:%d", p.host, p.port)

	dialer := &net.Dialer{Timeout: p.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer func() { _ = conn.Close() }()

	client, err := smtp.NewClient(conn, p.host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer func() { _ = client.Close() }()

	if p.useTLS {
		if err := client.StartTLS(&tls.Config{ServerName: p.host, MinVersion: tls.VersionTLS12}); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	if p.username != "" && p.password != "" {
		if err := client.Auth(smtp.PlainAuth("", p.username, p.password, p.host)); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(p.fromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to start message: %w", err)
	}
	if _, err := writer.Write([]byte(buildMIMEMessage(p.fromName, p.fromEmail, msg, time.Now()))); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close message: %w", err)
	}

	// The message is accepted once DATA closes.
	_ = client.Quit()
	return nil
}

// buildMIMEMessage renders msg with headers, using multipart/alternative when
// both bodies are present
func buildMIMEMessage(fromName, fromEmail string, msg EmailMessage, now time.Time) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("From: %s <%s>\r\n", fromName, fromEmail))
	b.WriteString(fmt.Sprintf("To: %s\r\n", msg.To))
	b.WriteString(fmt.Sprintf("Subject: %s\r\n", msg.Subject))
	b.WriteString(fmt.Sprintf("Date: %s\r\n", now.UTC().Format(time.RFC1123Z)))
	b.WriteString("MIME-Version: 1.0\r\n")
	for k, v := range msg.Tags {
		b.WriteString(fmt.Sprintf("X-Tag-%s: %s\r\n", k, v))
	}

	switch {
	case msg.HTMLBody != "" && msg.TextBody != "":
		boundary := fmt.Sprintf("boundary_%d", now.UnixNano())
		b.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary))
		b.WriteString(fmt.Sprintf("--%s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s\r\n", boundary, msg.TextBody))
		b.WriteString(fmt.Sprintf("--%s\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s\r\n", boundary, msg.HTMLBody))
		b.WriteString(fmt.Sprintf("--%s--\r\n", boundary))
	case msg.HTMLBody != "":
		b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
		b.WriteString(msg.HTMLBody)
	default:
		b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		b.WriteString(msg.TextBody)
	}

	return b.String()
}

// BreakerEmailProvider guards another provider with a circuit breaker
type BreakerEmailProvider struct {
	next EmailProvider
	cb   *gobreaker.CircuitBreaker[struct{}]
}

// NewBreakerEmailProvider wraps next. The circuit opens when the failure ratio
// within cfg.BreakerInterval reaches cfg.BreakerFailureRatio over at least
// cfg.BreakerMinRequests requests.
func NewBreakerEmailProvider(next EmailProvider, cfg config.EmailConfig) EmailProvider {
	const name = "email-provider"
	emailBreakerState.Set(0)

	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.BreakerMaxRequests,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.BreakerMinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.BreakerFailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state transition")
			emailBreakerState.Set(breakerStateValue(to))
		},
	})

	return &BreakerEmailProvider{next: next, cb: cb}
}

func (p *BreakerEmailProvider) Send(ctx context.Context, msg EmailMessage) error {
	_, err := p.cb.Execute(func() (struct{}, error) {
		return struct{}{}, p.next.Send(ctx, msg)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		logging.Ctx(ctx).Warn().Err(err).Str("to", msg.To).Msg("email rejected by circuit breaker")
	}
	return err
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 0.5
	default:
		return 0
	}
}
