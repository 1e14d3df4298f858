package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yourusername/informatics-api/internal/pkg/errors"
	"github.com/yourusername/informatics-api/internal/service"
)

// AuthHandler serves registration, login and the admin elevation flow.
type AuthHandler struct {
	accounts  *service.AccountService
	elevation *service.ElevationService
	codes     *service.CodeService
}

func NewAuthHandler(accounts *service.AccountService, elevation *service.ElevationService, codes *service.CodeService) *AuthHandler {
	return &AuthHandler{
		accounts:  accounts,
		elevation: elevation,
		codes:     codes,
	}
}

// RegisterRequest is the payload for POST /register. Fields only need to be
// present: the email is stored as an opaque case-sensitive key and any
// non-empty password is accepted.
type RegisterRequest struct {
	FullName string `json:"full_name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// CredentialsRequest is the payload for POST /login and POST /admin_login_check.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SendTokenRequest is the payload for POST /send_admin_token.
type SendTokenRequest struct {
	Email string `json:"email"`
}

// AdminLoginRequest is the payload for POST /admin_login.
type AdminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Token    string `json:"token"`
}

// Register creates a new account.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing fields"})
		return
	}

	user, err := h.accounts.Register(req.FullName, req.Email, req.Password)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful (auto-verified).",
		"email":   user.Email,
	})
}

// Login authenticates an account and returns a session token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request data"})
		return
	}

	result, err := h.accounts.Login(req.Email, req.Password)
	if err != nil {
		h.handleError(c, err)
		return
	}

	if result.Status == service.LoginNeedsVerification {
		c.JSON(http.StatusForbidden, gin.H{
			"message": "Account not verified. Redirecting to verification page.",
			"action":  "redirect_to_otp",
			"email":   result.User.Email,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"message":   "Login successful.",
		"authToken": result.AuthToken,
		"full_name": result.User.FullName,
		"role":      result.User.Role,
	})
}

// AdminLoginCheck is step one of the elevation flow: it validates credentials
// and reports whether a one-time code is required.
func (h *AuthHandler) AdminLoginCheck(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request data"})
		return
	}

	result, err := h.elevation.Check(req.Email, req.Password)
	if err != nil {
		h.handleError(c, err)
		return
	}

	if result.Status == service.ElevationCodeRequired {
		// 403 signals an accepted credential but restricted access.
		c.JSON(http.StatusForbidden, gin.H{
			"message": "Credentials accepted. Token required.",
			"action":  "require_token",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Admin login successful.",
		"authToken": result.AuthToken,
		"full_name": result.User.FullName,
		"role":      result.User.Role,
		"action":    "login_success",
	})
}

// SendAdminToken issues a one-time code and dispatches it to the operator.
func (h *AuthHandler) SendAdminToken(c *gin.Context) {
	var req SendTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing email for token generation."})
		return
	}

	if err := h.elevation.RequestCode(c.Request.Context(), req.Email); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf(
			"Token successfully generated and sent to the primary Admin email: %s",
			h.codes.Recipient(),
		),
	})
}

// AdminLogin is the final elevation step: credentials plus the one-time code.
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request data"})
		return
	}

	result, err := h.elevation.Finalize(req.Email, req.Password, req.Token)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Token verified and Admin access granted.",
		"authToken": result.AuthToken,
		"full_name": result.User.FullName,
		"role":      result.User.Role,
	})
}

// Index is the liveness endpoint.
func (h *AuthHandler) Index(c *gin.Context) {
	c.String(http.StatusOK, "Backend Server is Running.")
}

// handleError maps service errors to HTTP responses. Unexpected persistence
// failures are logged in full and surface as an opaque 500.
func (h *AuthHandler) handleError(c *gin.Context, err error) {
	log.Printf("[AuthHandler] %s %s: %v", c.Request.Method, c.FullPath(), err)

	switch {
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing fields"})
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"message": "An account with this email already exists."})
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password."})
	case errors.Is(err, service.ErrAccountNotVerified):
		c.JSON(http.StatusForbidden, gin.H{"message": "Account not verified."})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found."})
	case errors.Is(err, service.ErrCodeRequired):
		c.JSON(http.StatusForbidden, gin.H{"message": "Admin token is required for verification."})
	case errors.Is(err, service.ErrInvalidCode):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired Admin Token."})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error."})
	}
}
