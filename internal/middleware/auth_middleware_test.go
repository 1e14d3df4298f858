package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/informatics-api/pkg/auth"
)

func setupAuthRouter(t *testing.T) (*gin.Engine, *auth.TokenService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokenService, err := auth.NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)
	m := NewAuthMiddleware(tokenService)

	router := gin.New()
	admin := router.Group("/admin")
	admin.Use(m.RequireAuth(), m.AdminOnly())
	admin.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": c.GetUint("user_id"),
			"email":   c.GetString("user_email"),
		})
	})

	return router, tokenService
}

func doGet(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	router, _ := setupAuthRouter(t)

	w := doGet(router, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token_missing")
}

func TestRequireAuth_BadFormat(t *testing.T) {
	router, tokenService := setupAuthRouter(t)
	token, err := tokenService.Generate(1, "admin@example.com", "admin")
	require.NoError(t, err)

	w := doGet(router, token)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token_format")
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	router, _ := setupAuthRouter(t)

	w := doGet(router, "Bearer garbage")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token_invalid")
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	router, _ := setupAuthRouter(t)
	shortLived, err := auth.NewTokenService("test-secret", time.Nanosecond)
	require.NoError(t, err)
	token, err := shortLived.Generate(1, "admin@example.com", "admin")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	w := doGet(router, "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token_expired")
}

func TestAdminOnly_RejectsStudentToken(t *testing.T) {
	router, tokenService := setupAuthRouter(t)
	token, err := tokenService.Generate(2, "student@example.com", "student")
	require.NoError(t, err)

	w := doGet(router, "Bearer "+token)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "forbidden")
}

func TestAdminOnly_AllowsAdminToken(t *testing.T) {
	router, tokenService := setupAuthRouter(t)
	token, err := tokenService.Generate(1, "admin@example.com", "admin")
	require.NoError(t, err)

	w := doGet(router, "Bearer "+token)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "admin@example.com")
}
