package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/informatics-api/internal/domain/entity"
	apperrors "github.com/yourusername/informatics-api/internal/pkg/errors"
)

// MockCodeRepository is a mock for repository.OneTimeCodeRepository.
type MockCodeRepository struct {
	mock.Mock
}

func (m *MockCodeRepository) Replace(code *entity.OneTimeCode) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockCodeRepository) FindValid(ownerEmail, submitted string, now time.Time) (*entity.OneTimeCode, error) {
	args := m.Called(ownerEmail, submitted, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.OneTimeCode), args.Error(1)
}

// MockElevationRepository is a mock for repository.ElevationRepository.
type MockElevationRepository struct {
	mock.Mock
}

func (m *MockElevationRepository) PromoteAndConsume(userID, codeID uint) error {
	args := m.Called(userID, codeID)
	return args.Error(0)
}

// capturedEmail records one delivery attempt made through captureEmailService.
type capturedEmail struct {
	Recipient    string
	SubjectEmail string
	Code         string
}

// captureEmailService records deliveries instead of sending them. Sends
// happen on a background goroutine, so capture is guarded and signalled.
type captureEmailService struct {
	mu    sync.Mutex
	sent  []capturedEmail
	notif chan struct{}
}

func newCaptureEmailService() *captureEmailService {
	return &captureEmailService{notif: make(chan struct{}, 16)}
}

func (s *captureEmailService) SendElevationCode(ctx context.Context, recipient, subjectEmail, code, idempotencyKey string) error {
	// A real provider client aborts on a dead context; mirror that.
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.sent = append(s.sent, capturedEmail{Recipient: recipient, SubjectEmail: subjectEmail, Code: code})
	s.mu.Unlock()
	s.notif <- struct{}{}
	return nil
}

func (s *captureEmailService) waitForSend(t *testing.T) capturedEmail {
	t.Helper()
	select {
	case <-s.notif:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for email dispatch")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent[len(s.sent)-1]
}

type elevationFixture struct {
	userRepo      *MockUserRepository
	codeRepo      *MockCodeRepository
	elevationRepo *MockElevationRepository
	emails        *captureEmailService
	service       *ElevationService
	codes         *CodeService
}

func newElevationFixture(t *testing.T) *elevationFixture {
	t.Helper()

	userRepo := new(MockUserRepository)
	codeRepo := new(MockCodeRepository)
	elevationRepo := new(MockElevationRepository)
	emails := newCaptureEmailService()
	tokenService := newTestTokenService(t)

	accounts, err := NewAccountService(userRepo, tokenService)
	require.NoError(t, err)
	codes, err := NewCodeService(userRepo, codeRepo, emails, "operator@example.com", 3*time.Minute)
	require.NoError(t, err)
	service, err := NewElevationService(accounts, codes, elevationRepo, tokenService)
	require.NoError(t, err)

	return &elevationFixture{
		userRepo:      userRepo,
		codeRepo:      codeRepo,
		elevationRepo: elevationRepo,
		emails:        emails,
		service:       service,
		codes:         codes,
	}
}

func studentUser(t *testing.T) *entity.User {
	return &entity.User{
		ID:         3,
		FullName:   "Student User",
		Email:      "student@example.com",
		Password:   hashedPassword(t, "password123"),
		IsVerified: true,
		Role:       entity.RoleStudent,
	}
}

func adminUser(t *testing.T) *entity.User {
	return &entity.User{
		ID:         1,
		FullName:   "Admin User",
		Email:      "admin@example.com",
		Password:   hashedPassword(t, "password123"),
		IsVerified: true,
		Role:       entity.RoleAdmin,
	}
}

func TestElevationService_Check_AdminGetsToken(t *testing.T) {
	f := newElevationFixture(t)
	f.userRepo.On("GetByEmail", "admin@example.com").Return(adminUser(t), nil)

	result, err := f.service.Check("admin@example.com", "password123")

	require.NoError(t, err)
	assert.Equal(t, ElevationGranted, result.Status)
	assert.NotEmpty(t, result.AuthToken)
}

func TestElevationService_Check_StudentNeedsCode(t *testing.T) {
	f := newElevationFixture(t)
	f.userRepo.On("GetByEmail", "student@example.com").Return(studentUser(t), nil)

	result, err := f.service.Check("student@example.com", "password123")

	require.NoError(t, err)
	assert.Equal(t, ElevationCodeRequired, result.Status)
	assert.Empty(t, result.AuthToken)
}

func TestElevationService_Check_UnverifiedAccount(t *testing.T) {
	f := newElevationFixture(t)
	user := studentUser(t)
	user.IsVerified = false
	f.userRepo.On("GetByEmail", "student@example.com").Return(user, nil)

	result, err := f.service.Check("student@example.com", "password123")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrAccountNotVerified)
}

func TestElevationService_Check_UnexpectedRole(t *testing.T) {
	f := newElevationFixture(t)
	user := studentUser(t)
	user.Role = "superuser"
	f.userRepo.On("GetByEmail", "student@example.com").Return(user, nil)

	result, err := f.service.Check("student@example.com", "password123")

	assert.Nil(t, result)
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrUnauthorized)
	assert.Contains(t, err.Error(), "unexpected role")
}

func TestElevationService_RequestCode_DeliversToOperator(t *testing.T) {
	f := newElevationFixture(t)
	f.userRepo.On("GetByEmail", "student@example.com").Return(studentUser(t), nil)
	f.codeRepo.On("Replace", mock.AnythingOfType("*entity.OneTimeCode")).Return(nil)

	err := f.service.RequestCode(context.Background(), "student@example.com")
	require.NoError(t, err)

	sent := f.emails.waitForSend(t)
	assert.Equal(t, "operator@example.com", sent.Recipient, "code must go to the operator, not the requester")
	assert.Equal(t, "student@example.com", sent.SubjectEmail)
	assert.Regexp(t, `^\d{6}$`, sent.Code)
}

func TestElevationService_RequestCode_SendOutlivesCallerContext(t *testing.T) {
	f := newElevationFixture(t)
	f.userRepo.On("GetByEmail", "student@example.com").Return(studentUser(t), nil)
	f.codeRepo.On("Replace", mock.AnythingOfType("*entity.OneTimeCode")).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.service.RequestCode(ctx, "student@example.com")
	require.NoError(t, err)

	// Dispatch is fire-and-forget: the request context being gone by the
	// time the goroutine runs must not abort the delivery.
	sent := f.emails.waitForSend(t)
	assert.Equal(t, "operator@example.com", sent.Recipient)
}

func TestElevationService_RequestCode_UnknownAccount(t *testing.T) {
	f := newElevationFixture(t)
	f.userRepo.On("GetByEmail", "ghost@example.com").Return(nil, apperrors.ErrNotFound)

	err := f.service.RequestCode(context.Background(), "ghost@example.com")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	f.codeRepo.AssertNotCalled(t, "Replace", mock.Anything)
}

func TestElevationService_Finalize_MissingCode(t *testing.T) {
	f := newElevationFixture(t)
	f.userRepo.On("GetByEmail", "student@example.com").Return(studentUser(t), nil)

	result, err := f.service.Finalize("student@example.com", "password123", "   ")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrCodeRequired)
}

func TestElevationService_Finalize_InvalidCodeNotConsumed(t *testing.T) {
	f := newElevationFixture(t)
	f.userRepo.On("GetByEmail", "student@example.com").Return(studentUser(t), nil)
	f.codeRepo.On("FindValid", "student@example.com", "000000", mock.AnythingOfType("time.Time")).
		Return(nil, apperrors.ErrNotFound)

	result, err := f.service.Finalize("student@example.com", "password123", "000000")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrInvalidCode)
	f.elevationRepo.AssertNotCalled(t, "PromoteAndConsume", mock.Anything, mock.Anything)
}

func TestElevationService_Finalize_ValidCodePromotes(t *testing.T) {
	f := newElevationFixture(t)
	user := studentUser(t)
	f.userRepo.On("GetByEmail", "student@example.com").Return(user, nil)
	f.codeRepo.On("FindValid", "student@example.com", "123456", mock.AnythingOfType("time.Time")).
		Return(&entity.OneTimeCode{ID: 42, OwnerEmail: "student@example.com", Code: "123456"}, nil)
	f.elevationRepo.On("PromoteAndConsume", uint(3), uint(42)).Return(nil)

	result, err := f.service.Finalize("student@example.com", "password123", "123456")

	require.NoError(t, err)
	assert.Equal(t, ElevationGranted, result.Status)
	assert.Equal(t, entity.RoleAdmin, result.User.Role)
	assert.NotEmpty(t, result.AuthToken)
	f.elevationRepo.AssertExpectations(t)
}

func TestElevationService_Finalize_AlreadyAdminSkipsCode(t *testing.T) {
	f := newElevationFixture(t)
	f.userRepo.On("GetByEmail", "admin@example.com").Return(adminUser(t), nil)

	result, err := f.service.Finalize("admin@example.com", "password123", "")

	require.NoError(t, err)
	assert.Equal(t, ElevationGranted, result.Status)
	assert.NotEmpty(t, result.AuthToken)
	f.codeRepo.AssertNotCalled(t, "FindValid", mock.Anything, mock.Anything, mock.Anything)
	f.elevationRepo.AssertNotCalled(t, "PromoteAndConsume", mock.Anything, mock.Anything)
}

func TestElevationService_Finalize_WrongPassword(t *testing.T) {
	f := newElevationFixture(t)
	f.userRepo.On("GetByEmail", "student@example.com").Return(studentUser(t), nil)

	result, err := f.service.Finalize("student@example.com", "wrong-password", "123456")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	f.codeRepo.AssertNotCalled(t, "FindValid", mock.Anything, mock.Anything, mock.Anything)
}
