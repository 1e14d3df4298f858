package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/yourusername/informatics-api/internal/domain/entity"
	"github.com/yourusername/informatics-api/internal/domain/repository"
	apperrors "github.com/yourusername/informatics-api/internal/pkg/errors"
	"github.com/yourusername/informatics-api/pkg/auth"
)

// ElevationStatus tags the outcome of an elevation step.
type ElevationStatus string

const (
	// ElevationGranted means the caller holds the admin role and received an
	// admin session token.
	ElevationGranted ElevationStatus = "granted"
	// ElevationCodeRequired means credentials are accepted but a one-time
	// code must be requested and submitted before the role is upgraded.
	ElevationCodeRequired ElevationStatus = "code_required"
)

// ElevationResult is the tagged outcome of Check and Finalize.
type ElevationResult struct {
	Status    ElevationStatus
	User      *entity.User
	AuthToken string
}

// ElevationService drives the two-step admin elevation flow. The flow is
// stateless between requests: each step re-derives the caller's position from
// the persisted account and code rows plus the fields it supplies.
type ElevationService struct {
	accounts      *AccountService
	codes         *CodeService
	elevationRepo repository.ElevationRepository
	tokenService  *auth.TokenService
}

func NewElevationService(
	accounts *AccountService,
	codes *CodeService,
	elevationRepo repository.ElevationRepository,
	tokenService *auth.TokenService,
) (*ElevationService, error) {
	if accounts == nil {
		return nil, fmt.Errorf("account service is required")
	}
	if codes == nil {
		return nil, fmt.Errorf("code service is required")
	}
	if elevationRepo == nil {
		return nil, fmt.Errorf("elevation repository is required")
	}
	if tokenService == nil {
		return nil, fmt.Errorf("token service is required")
	}
	return &ElevationService{
		accounts:      accounts,
		codes:         codes,
		elevationRepo: elevationRepo,
		tokenService:  tokenService,
	}, nil
}

// Check validates credentials and reports whether a code is needed. An admin
// gets a session token immediately; a student is told to request a code.
func (s *ElevationService) Check(email, password string) (*ElevationResult, error) {
	user, err := s.accounts.Authenticate(email, password)
	if err != nil {
		return nil, err
	}
	if !user.IsVerified {
		return nil, ErrAccountNotVerified
	}

	switch user.Role {
	case entity.RoleAdmin:
		token, err := s.tokenService.Generate(user.ID, user.Email, user.Role)
		if err != nil {
			return nil, fmt.Errorf("failed to generate admin token: %w", err)
		}
		return &ElevationResult{Status: ElevationGranted, User: user, AuthToken: token}, nil
	case entity.RoleStudent:
		return &ElevationResult{Status: ElevationCodeRequired, User: user}, nil
	default:
		return nil, fmt.Errorf("account %d has unexpected role %q", user.ID, user.Role)
	}
}

// RequestCode issues a one-time code for the account, delivered to the
// operator recipient out of band.
func (s *ElevationService) RequestCode(ctx context.Context, email string) error {
	return s.codes.Issue(ctx, email)
}

// Finalize completes the elevation. Credentials are re-validated so a stale
// or forged request cannot skip the identity proof. An account that is
// already an admin succeeds without a code. Otherwise the submitted code is
// redeemed and, in one transaction, the role is upgraded and the code
// deleted. A failed attempt leaves the code in place for retry within its
// expiry window.
func (s *ElevationService) Finalize(email, password, submittedCode string) (*ElevationResult, error) {
	user, err := s.accounts.Authenticate(email, password)
	if err != nil {
		return nil, err
	}

	if user.IsAdmin() {
		token, err := s.tokenService.Generate(user.ID, user.Email, user.Role)
		if err != nil {
			return nil, fmt.Errorf("failed to generate admin token: %w", err)
		}
		return &ElevationResult{Status: ElevationGranted, User: user, AuthToken: token}, nil
	}

	if strings.TrimSpace(submittedCode) == "" {
		return nil, ErrCodeRequired
	}

	code, err := s.codes.FindValid(user.Email, submittedCode, time.Now())
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrInvalidCode
		}
		return nil, fmt.Errorf("failed to look up code: %w", err)
	}

	if err := s.elevationRepo.PromoteAndConsume(user.ID, code.ID); err != nil {
		return nil, fmt.Errorf("failed to complete elevation: %w", err)
	}
	user.Role = entity.RoleAdmin

	token, err := s.tokenService.Generate(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate admin token: %w", err)
	}

	log.Printf("[ElevationService] account ID=%d (%s) elevated to admin", user.ID, user.Email)
	return &ElevationResult{Status: ElevationGranted, User: user, AuthToken: token}, nil
}
