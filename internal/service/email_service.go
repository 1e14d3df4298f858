package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
)

// EmailService delivers one-time elevation codes to the operator.
type EmailService interface {
	// SendElevationCode mails the code to the fixed operator recipient.
	// subjectEmail is the account that requested elevation; it is named in the
	// message body, never used as the destination.
	SendElevationCode(ctx context.Context, recipient, subjectEmail, code, idempotencyKey string) error
}

// NoopEmailService logs instead of sending. Used when no email provider is
// configured (local development, tests).
type NoopEmailService struct{}

func (s *NoopEmailService) SendElevationCode(ctx context.Context, recipient, subjectEmail, code, idempotencyKey string) error {
	log.Printf("[EmailService] noop send elevation code to=%s subject=%s", recipient, subjectEmail)
	return nil
}

// ResendEmailService sends mail via the Resend REST API.
type ResendEmailService struct {
	from   string
	client *resend.Client
}

func NewResendEmailService(apiKey, from string) (*ResendEmailService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend api key is required")
	}
	if from == "" {
		return nil, fmt.Errorf("email from is required")
	}
	return &ResendEmailService{
		from:   from,
		client: resend.NewClient(apiKey),
	}, nil
}

func (s *ResendEmailService) SendElevationCode(ctx context.Context, recipient, subjectEmail, code, idempotencyKey string) error {
	if recipient == "" || code == "" {
		return fmt.Errorf("recipient and code are required")
	}

	text := fmt.Sprintf(
		"An attempt was made by user %s to access the Admin Portal.\n\n"+
			"Your one-time Admin Token for this attempt is: %s\n\n"+
			"This token is valid for 3 minutes.",
		subjectEmail, code,
	)
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{recipient},
		Subject: "Secure Admin Access Token Request",
		Text:    text,
		Html: fmt.Sprintf(
			"<p>An attempt was made by user <strong>%s</strong> to access the Admin Portal.</p>"+
				"<p>Your one-time Admin Token for this attempt is: <strong>%s</strong></p>"+
				"<p>This token is valid for 3 minutes.</p>",
			subjectEmail, code,
		),
	}

	options := &resend.SendEmailOptions{}
	if strings.TrimSpace(idempotencyKey) != "" {
		options.IdempotencyKey = strings.TrimSpace(idempotencyKey)
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		_, err := s.client.Emails.SendWithOptions(ctx, params, options)
		if err == nil {
			return nil
		}
		lastErr = err

		if wait, ok := resendRetryDelay(err, attempt); ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
				continue
			}
		}

		return fmt.Errorf("resend send failed: %w", err)
	}

	return fmt.Errorf("resend send failed after retries: %w", lastErr)
}

func resendRetryDelay(err error, attempt int) (time.Duration, bool) {
	var rateLimitErr *resend.RateLimitError
	if errors.As(err, &rateLimitErr) {
		if seconds, convErr := strconv.Atoi(strings.TrimSpace(rateLimitErr.RetryAfter)); convErr == nil && seconds > 0 {
			if seconds > 30 {
				seconds = 30
			}
			return time.Duration(seconds) * time.Second, true
		}
		return time.Duration(attempt+1) * time.Second, true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "temporar") {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	return 0, false
}
