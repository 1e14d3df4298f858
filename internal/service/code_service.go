package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/informatics-api/internal/domain/entity"
	"github.com/yourusername/informatics-api/internal/domain/repository"
)

// CodeService issues and looks up one-time admin elevation codes.
//
// Delivery is deliberately routed to a fixed operator recipient configured at
// startup, never to the requesting account's own address: elevation has to be
// approved by an administrator, not self-served.
type CodeService struct {
	userRepo     repository.UserRepository
	codeRepo     repository.OneTimeCodeRepository
	emailService EmailService
	recipient    string
	codeTTL      time.Duration
}

func NewCodeService(
	userRepo repository.UserRepository,
	codeRepo repository.OneTimeCodeRepository,
	emailService EmailService,
	recipient string,
	codeTTL time.Duration,
) (*CodeService, error) {
	if userRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if codeRepo == nil {
		return nil, fmt.Errorf("code repository is required")
	}
	if emailService == nil {
		return nil, fmt.Errorf("email service is required")
	}
	if recipient == "" {
		return nil, fmt.Errorf("operator recipient address is required")
	}
	if codeTTL <= 0 {
		codeTTL = 3 * time.Minute
	}

	return &CodeService{
		userRepo:     userRepo,
		codeRepo:     codeRepo,
		emailService: emailService,
		recipient:    recipient,
		codeTTL:      codeTTL,
	}, nil
}

// Issue generates a fresh code for ownerEmail, superseding any earlier ones,
// and dispatches it to the operator recipient. The send is fire-and-forget:
// a delivery failure is logged but never rolls back the issuance. The code is
// not returned to the caller.
func (s *CodeService) Issue(ctx context.Context, ownerEmail string) error {
	user, err := s.userRepo.GetByEmail(ownerEmail)
	if err != nil {
		return err
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}

	now := time.Now()
	record := &entity.OneTimeCode{
		OwnerEmail: user.Email,
		Code:       code,
		ExpiresAt:  now.Add(s.codeTTL),
		CreatedAt:  now,
	}
	if err := s.codeRepo.Replace(record); err != nil {
		return fmt.Errorf("failed to store code: %w", err)
	}

	idempotencyKey := fmt.Sprintf("elevation:%s", uuid.NewString())
	go func() {
		// Detached from the request's cancellation so the send survives the
		// response being written, but keeps the caller's context values.
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := s.emailService.SendElevationCode(sendCtx, s.recipient, user.Email, code, idempotencyKey); err != nil {
			log.Printf("[CodeService] failed to deliver elevation code for %s: %v", user.Email, err)
		}
	}()

	log.Printf("[CodeService] issued elevation code for %s, dispatched to operator", user.Email)
	return nil
}

// FindValid returns the unexpired code matching submitted for ownerEmail.
// The most recently created one wins if several match.
func (s *CodeService) FindValid(ownerEmail, submitted string, now time.Time) (*entity.OneTimeCode, error) {
	return s.codeRepo.FindValid(ownerEmail, submitted, now)
}

// Recipient returns the fixed operator address codes are delivered to.
func (s *CodeService) Recipient() string {
	return s.recipient
}

// generateCode draws a 6-digit code uniformly from [100000, 999999].
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
