package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/informatics-api/internal/config"
	"github.com/yourusername/informatics-api/internal/handler"
	"github.com/yourusername/informatics-api/internal/middleware"
	pgRepo "github.com/yourusername/informatics-api/internal/repository/postgres"
	"github.com/yourusername/informatics-api/internal/service"
	"github.com/yourusername/informatics-api/pkg/auth"
	"github.com/yourusername/informatics-api/pkg/database"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("loading configuration from %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	userRepo := pgRepo.NewUserRepo(db)
	codeRepo := pgRepo.NewOneTimeCodeRepo(db)
	elevationRepo := pgRepo.NewElevationRepo(db)

	tokenService, err := auth.NewTokenService(cfg.Auth.TokenSecret, cfg.Auth.TokenExpiry())
	if err != nil {
		log.Printf("Failed to initialize TokenService: %v", err)
		os.Exit(1)
	}

	var emailService service.EmailService
	if cfg.Email.APIKey != "" {
		emailService, err = service.NewResendEmailService(cfg.Email.APIKey, cfg.Email.From)
		if err != nil {
			log.Printf("Failed to initialize email service: %v", err)
			os.Exit(1)
		}
		log.Println("Email delivery enabled via Resend")
	} else {
		emailService = &service.NoopEmailService{}
		log.Println("No email API key configured, codes will only be logged")
	}

	accountService, err := service.NewAccountService(userRepo, tokenService)
	if err != nil {
		log.Printf("Failed to initialize AccountService: %v", err)
		os.Exit(1)
	}

	codeService, err := service.NewCodeService(userRepo, codeRepo, emailService, cfg.Auth.AdminRecipient, cfg.Auth.CodeTTL())
	if err != nil {
		log.Printf("Failed to initialize CodeService: %v", err)
		os.Exit(1)
	}

	elevationService, err := service.NewElevationService(accountService, codeService, elevationRepo, tokenService)
	if err != nil {
		log.Printf("Failed to initialize ElevationService: %v", err)
		os.Exit(1)
	}

	authHandler := handler.NewAuthHandler(accountService, elevationService, codeService)
	adminHandler := handler.NewAdminHandler(accountService)
	authMiddleware := middleware.NewAuthMiddleware(tokenService)

	isProduction := gin.Mode() == gin.ReleaseMode

	router := gin.Default()
	router.Use(middleware.RequestID())

	if isProduction {
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	allowOrigins := cfg.CORS.AllowOrigins
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// The rate limiter needs Redis; without it the endpoints stay unlimited.
	var strictLimit, defaultLimit gin.HandlerFunc
	if cfg.Redis.Addr != "" {
		redisClient, err := database.NewRedisClient(cfg.Redis)
		if err != nil {
			log.Printf("Failed to connect to Redis: %v", err)
			os.Exit(1)
		}
		defer redisClient.Close()

		limiter := middleware.NewRateLimiter(redisClient)
		strictLimit = limiter.Limit(middleware.StrictRateLimitConfig())
		defaultLimit = limiter.Limit(middleware.DefaultRateLimitConfig())
		log.Println("Redis-backed rate limiting enabled")
	} else {
		passthrough := func(c *gin.Context) { c.Next() }
		strictLimit, defaultLimit = passthrough, passthrough
		log.Println("No Redis address configured, rate limiting disabled")
	}

	router.GET("/", authHandler.Index)
	router.POST("/register", strictLimit, authHandler.Register)
	router.POST("/login", strictLimit, authHandler.Login)
	router.POST("/admin_login_check", strictLimit, authHandler.AdminLoginCheck)
	router.POST("/send_admin_token", defaultLimit, authHandler.SendAdminToken)
	router.POST("/admin_login", strictLimit, authHandler.AdminLogin)

	admin := router.Group("/admin")
	admin.Use(authMiddleware.RequireAuth(), authMiddleware.AdminOnly())
	{
		admin.GET("/users", adminHandler.ListUsers)
		admin.GET("/users/export", adminHandler.ExportUsers)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	log.Println("Server exited properly")
}
