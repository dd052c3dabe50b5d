package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Environment string
	ServerPort  int
	Debug       bool

	// Persistence
	DatabaseType string // sqlite, postgres, mysql, file, memory
	DatabasePath string
	DatabaseURL  string
	StoreDir     string
	MaxUsers     int

	// Security
	JWTSecret       string
	DeviceTokenTTL  time.Duration
	AdminToken      string
	AllowedOrigins  []string
	ResetCodeTTL    time.Duration
	PasswordMinLen  int
	PasswordClasses int

	// Lessons
	LessonsPath string

	// Reset code delivery (Amazon SES)
	AWSRegion        string
	SESFromEmail     string
	SESFromName      string
	ResetNotifyEmail string
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	cfg := &Config{
		Environment:      getEnv("ENVIRONMENT", "development"),
		DatabaseType:     strings.ToLower(getEnv("DB_TYPE", "sqlite")),
		DatabasePath:     getEnv("DB_PATH", "./pyquest.db"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		StoreDir:         getEnv("STORE_DIR", "./data"),
		AdminToken:       os.Getenv("ADMIN_TOKEN"),
		LessonsPath:      os.Getenv("LESSONS_PATH"),
		AWSRegion:        getEnv("AWS_REGION", "us-east-1"),
		SESFromEmail:     os.Getenv("SES_FROM_EMAIL"),
		SESFromName:      getEnv("SES_FROM_NAME", "PyQuest"),
		ResetNotifyEmail: os.Getenv("RESET_NOTIFY_EMAIL"),
		AllowedOrigins:   splitList(os.Getenv("ALLOWED_ORIGINS")),
	}

	var err error
	if cfg.ServerPort, err = getEnvInt("PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.ServerPort < 1024 || cfg.ServerPort > 65535 {
		return nil, fmt.Errorf("port %d is outside the allowed range 1024-65535", cfg.ServerPort)
	}
	if cfg.MaxUsers, err = getEnvInt("MAX_USERS", 15); err != nil {
		return nil, err
	}
	if cfg.MaxUsers < 1 {
		return nil, fmt.Errorf("MAX_USERS must be positive, got %d", cfg.MaxUsers)
	}
	if cfg.PasswordMinLen, err = getEnvInt("PASSWORD_MIN_LENGTH", 6); err != nil {
		return nil, err
	}
	if cfg.PasswordClasses, err = getEnvInt("PASSWORD_MIN_CLASSES", 2); err != nil {
		return nil, err
	}
	if cfg.ResetCodeTTL, err = getEnvDuration("RESET_CODE_TTL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.DeviceTokenTTL, err = getEnvDuration("DEVICE_TOKEN_TTL", 365*24*time.Hour); err != nil {
		return nil, err
	}
	cfg.Debug, _ = strconv.ParseBool(getEnv("DEBUG", "false"))

	switch cfg.DatabaseType {
	case "sqlite", "sqlite3", "postgres", "postgresql", "mysql", "file", "memory":
	default:
		return nil, fmt.Errorf("unsupported DB_TYPE: %s", cfg.DatabaseType)
	}
	if (cfg.DatabaseType == "postgres" || cfg.DatabaseType == "postgresql" || cfg.DatabaseType == "mysql") && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required for DB_TYPE=%s", cfg.DatabaseType)
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		if !cfg.IsDevelopment() {
			return nil, fmt.Errorf("JWT_SECRET is required in %s environment", cfg.Environment)
		}
		cfg.JWTSecret = "pyquest-development-secret-change-me"
	}

	return cfg, nil
}

// IsDevelopment reports whether the app runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
