package service

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/yourusername/informatics-api/internal/domain/entity"
	"github.com/yourusername/informatics-api/internal/domain/repository"
	apperrors "github.com/yourusername/informatics-api/internal/pkg/errors"
	"github.com/yourusername/informatics-api/pkg/auth"
)

// LoginStatus tags the outcome of a login attempt.
type LoginStatus string

const (
	// LoginSuccess means credentials matched a verified account.
	LoginSuccess LoginStatus = "success"
	// LoginNeedsVerification means credentials matched but the account has
	// not been verified; the caller should be sent to a verification flow.
	LoginNeedsVerification LoginStatus = "needs_verification"
)

// LoginResult is the tagged outcome of AccountService.Login.
type LoginResult struct {
	Status    LoginStatus
	User      *entity.User
	AuthToken string
}

// AccountService handles registration and password login.
type AccountService struct {
	userRepo     repository.UserRepository
	tokenService *auth.TokenService
}

func NewAccountService(userRepo repository.UserRepository, tokenService *auth.TokenService) (*AccountService, error) {
	if userRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if tokenService == nil {
		return nil, fmt.Errorf("token service is required")
	}
	return &AccountService{
		userRepo:     userRepo,
		tokenService: tokenService,
	}, nil
}

// Register creates a new account. The very first account ever created gets
// the admin role; everyone else starts as a student. Accounts are verified
// immediately on registration.
func (s *AccountService) Register(fullName, email, password string) (*entity.User, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.TrimSpace(email)

	if fullName == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: full_name, email and password are required", apperrors.ErrValidation)
	}

	_, err := s.userRepo.GetByEmail(email)
	if err == nil {
		return nil, fmt.Errorf("%w: an account with this email already exists", apperrors.ErrConflict)
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}

	total, err := s.userRepo.Count()
	if err != nil {
		return nil, fmt.Errorf("failed to count accounts: %w", err)
	}

	role := entity.RoleStudent
	if total == 0 {
		role = entity.RoleAdmin
	}

	user := &entity.User{
		FullName:   fullName,
		Email:      email,
		Password:   password,
		IsVerified: true,
		Role:       role,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	log.Printf("[AccountService] registered account ID=%d (%s) role=%s", user.ID, user.Email, user.Role)
	return user, nil
}

// Login authenticates a user and issues a session token. An unverified
// account is not an error: the caller receives a tagged result directing it
// to the verification flow.
func (s *AccountService) Login(email, password string) (*LoginResult, error) {
	user, err := s.Authenticate(email, password)
	if err != nil {
		return nil, err
	}

	if !user.IsVerified {
		return &LoginResult{Status: LoginNeedsVerification, User: user}, nil
	}

	token, err := s.tokenService.Generate(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	return &LoginResult{Status: LoginSuccess, User: user, AuthToken: token}, nil
}

// List returns a page of accounts and the total count.
func (s *AccountService) List(limit, offset int) ([]entity.User, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.userRepo.List(limit, offset)
}

// Authenticate verifies credentials without creating any session state.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *AccountService) Authenticate(email, password string) (*entity.User, error) {
	email = strings.TrimSpace(email)

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid email or password", apperrors.ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	if !user.CheckPassword(password) {
		return nil, fmt.Errorf("%w: invalid email or password", apperrors.ErrUnauthorized)
	}

	return user, nil
}
