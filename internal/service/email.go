package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

type EmailService struct {
	client    *resend.Client
	fromEmail string
	isDev     bool
	baseURL   string
	appName   string
}

func NewEmailService(apiKey, fromEmail, baseURL, appName string, isDev bool) *EmailService {
	var client *resend.Client
	if apiKey != "" && !isDev {
		client = resend.NewClient(apiKey)
	}

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		isDev:     isDev,
		baseURL:   baseURL,
		appName:   appName,
	}
}

func (s *EmailService) SendVerificationEmail(email, token string) error {
	confirmLink := fmt.Sprintf("%s/auth/login?verify=email&token=%s", s.baseURL, token)
	subject := "Verify your email address"
	body := fmt.Sprintf("Click the link below to verify your email address:\n\n%s\n", confirmLink)

	return s.send("verification", email, subject, body, confirmLink)
}

func (s *EmailService) SendPasswordResetEmail(email, token string) error {
	resetLink := fmt.Sprintf("%s/auth/login?verify=password&token=%s", s.baseURL, token)
	subject := "Reset your password"
	body := fmt.Sprintf("Click the link below to reset your password:\n\n%s\n", resetLink)

	return s.send("password_reset", email, subject, body, resetLink)
}

func (s *EmailService) send(kind, email, subject, body, link string) error {
	if s.isDev {
		slog.Info("email sent (dev mode)", "type", kind, "to", email, "subject", subject, "url", link)
		return nil
	}

	if s.client == nil {
		return fmt.Errorf("email service not configured (missing RESEND_API_KEY)")
	}

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", s.appName, s.fromEmail),
		To:      []string{email},
		Subject: subject,
		Text:    body,
	}

	_, err := s.client.Emails.SendWithContext(context.Background(), params)
	if err == nil {
		slog.Info("email sent", "type", kind, "to", email)
	}
	return err
}
