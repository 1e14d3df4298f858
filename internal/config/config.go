package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application settings.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Email    EmailConfig
	CORS     CORSConfig
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  int
	WriteTimeout int
}

// DatabaseConfig contains PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig contains Redis settings. Redis is optional: when Addr is empty
// the rate limiter is disabled.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig contains session token and elevation flow settings.
type AuthConfig struct {
	// TokenSecret signs session tokens. Required.
	TokenSecret string `mapstructure:"token_secret"`
	// TokenExpiryHrs is the session token lifetime in hours.
	TokenExpiryHrs int `mapstructure:"token_expiry_hrs"`
	// AdminRecipient is the fixed operator address every elevation code is
	// delivered to. Required.
	AdminRecipient string `mapstructure:"admin_recipient"`
	// CodeTTLMin is the elevation code lifetime in minutes.
	CodeTTLMin int `mapstructure:"code_ttl_min"`
}

// EmailConfig contains settings for the Resend mail provider. When APIKey is
// empty, delivery falls back to a logging no-op sender.
type EmailConfig struct {
	APIKey string `mapstructure:"api_key"`
	From   string `mapstructure:"from"`
}

// CORSConfig contains allowed browser origins.
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// PostgresConnectionString builds the PostgreSQL DSN.
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// TokenExpiry returns the session token lifetime.
func (a *AuthConfig) TokenExpiry() time.Duration {
	if a.TokenExpiryHrs <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(a.TokenExpiryHrs) * time.Hour
}

// CodeTTL returns the elevation code lifetime.
func (a *AuthConfig) CodeTTL() time.Duration {
	if a.CodeTTLMin <= 0 {
		return 3 * time.Minute
	}
	return time.Duration(a.CodeTTLMin) * time.Minute
}

// Load reads configuration from an optional file plus environment variables.
func Load(configPath string) (*Config, error) {
	vip := viper.New()

	vip.SetDefault("server.port", "3000")
	vip.SetDefault("server.readtimeout", 10)
	vip.SetDefault("server.writetimeout", 10)
	vip.SetDefault("database.sslmode", "disable")
	vip.SetDefault("auth.code_ttl_min", 3)
	vip.SetDefault("auth.token_expiry_hrs", 24)

	vip.BindEnv("server.port", "SERVER_PORT")
	vip.BindEnv("server.readtimeout", "SERVER_READ_TIMEOUT")
	vip.BindEnv("server.writetimeout", "SERVER_WRITE_TIMEOUT")

	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")

	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")

	vip.BindEnv("auth.token_secret", "AUTH_TOKEN_SECRET")
	vip.BindEnv("auth.token_expiry_hrs", "AUTH_TOKEN_EXPIRY_HRS")
	vip.BindEnv("auth.admin_recipient", "AUTH_ADMIN_RECIPIENT")
	vip.BindEnv("auth.code_ttl_min", "AUTH_CODE_TTL_MIN")

	vip.BindEnv("email.api_key", "EMAIL_API_KEY")
	vip.BindEnv("email.from", "EMAIL_FROM")

	vip.BindEnv("cors.allow_origins", "CORS_ALLOW_ORIGINS")

	if configPath != "" {
		vip.SetConfigFile(configPath)
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				log.Printf("config file '%s' not found, using environment variables and defaults", configPath)
			} else {
				log.Printf("warning: failed to read config file '%s': %v", configPath, err)
			}
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Unmarshal does not coerce an env string into []string, so a
	// CORS_ALLOW_ORIGINS value has to be split by hand.
	if len(cfg.CORS.AllowOrigins) == 0 {
		if raw := vip.GetString("cors.allow_origins"); raw != "" {
			for _, origin := range strings.Split(raw, ",") {
				if origin = strings.TrimSpace(origin); origin != "" {
					cfg.CORS.AllowOrigins = append(cfg.CORS.AllowOrigins, origin)
				}
			}
		}
	}

	if os.Getenv("GIN_MODE") != "release" {
		log.Printf("--- loaded configuration ---")
		log.Printf("Server Port: %s", cfg.Server.Port)
		log.Printf("Database Host: %s", cfg.Database.Host)
		log.Printf("Database Name: %s", cfg.Database.DBName)
		log.Printf("Redis Addr: %s", cfg.Redis.Addr)
		log.Printf("Admin Recipient: %s", cfg.Auth.AdminRecipient)
		log.Printf("Token Secret Set: %t", cfg.Auth.TokenSecret != "")
		log.Printf("Email API Key Set: %t", cfg.Email.APIKey != "")
		log.Printf("----------------------------")
	}

	if cfg.Auth.TokenSecret == "" {
		return nil, fmt.Errorf("auth token secret is required (check AUTH_TOKEN_SECRET env var)")
	}
	if cfg.Auth.AdminRecipient == "" {
		return nil, fmt.Errorf("admin recipient address is required (check AUTH_ADMIN_RECIPIENT env var)")
	}
	if cfg.Database.Host == "" || cfg.Database.DBName == "" || cfg.Database.User == "" {
		return nil, fmt.Errorf("database configuration (host, dbname, user) is incomplete (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}
	if cfg.Email.APIKey != "" && cfg.Email.From == "" {
		return nil, fmt.Errorf("email from address is required when an email api key is set (check EMAIL_FROM env var)")
	}

	return &cfg, nil
}
