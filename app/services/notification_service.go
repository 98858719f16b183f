package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/amirphl/orochi-partners/logging"
)

// ErrEmailProviderMissing is returned when no email provider is configured
var ErrEmailProviderMissing = errors.New("email provider not configured")

// EmailMessage is a rendered email ready for delivery
type EmailMessage struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
	Tags     map[string]string
}

// NotificationService sends user facing notifications
type NotificationService interface {
	SendEmail(ctx context.Context, msg EmailMessage) error
}

// EmailProvider delivers a single email
type EmailProvider interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// NotificationServiceImpl implements NotificationService
type NotificationServiceImpl struct {
	emailProvider EmailProvider
}

// NewNotificationService creates a new notification service
func NewNotificationService(emailProvider EmailProvider) NotificationService {
	return &NotificationServiceImpl{emailProvider: emailProvider}
}

// SendEmail validates msg and hands it to the provider
func (s *NotificationServiceImpl) SendEmail(ctx context.Context, msg EmailMessage) error {
	if s.emailProvider == nil {
		return ErrEmailProviderMissing
	}

	if _, err := mail.ParseAddress(msg.To); err != nil {
		return fmt.Errorf("invalid email address %q: %w", msg.To, err)
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return fmt.Errorf("email subject is required")
	}
	if msg.TextBody == "" && msg.HTMLBody == "" {
		return fmt.Errorf("email body is required")
	}

	if err := s.emailProvider.Send(ctx, msg); err != nil {
		emailsSent.WithLabelValues("failure").Inc()
		return err
	}
	emailsSent.WithLabelValues("success").Inc()
	return nil
}

// MockEmailProvider logs emails instead of sending them
type MockEmailProvider struct{}

func NewMockEmailProvider() EmailProvider {
	return &MockEmailProvider{}
}

func (p *MockEmailProvider) Send(ctx context.Context, msg EmailMessage) error {
	logging.Ctx(ctx).Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Msg("email sent (mock provider)")
	return nil
}
