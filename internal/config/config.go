package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload" // Load .env before reading the environment
)

// Config holds everything the API process reads from its environment.
type Config struct {
	Port     int
	LogLevel string

	Database DatabaseConfig

	JWTSecret string
	JWTTTL    time.Duration

	CORSAllowedOrigins []string

	// Invite mail is only sent when InviteEmailFrom is set.
	InviteEmailFrom     string
	InviteEmailFromName string
	AWSRegion           string
	AppBaseURL          string
}

// DatabaseConfig describes the Postgres connection. URL wins over the
// individual BLUEPRINT_DB_* parts when both are present.
type DatabaseConfig struct {
	URL      string
	Host     string
	Port     string
	Username string
	Password string
	Name     string
	Schema   string
	LogLevel string
}

var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set")

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	ttl, err := time.ParseDuration(getEnv("JWT_TTL", "168h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL: %w", err)
	}

	cfg := &Config{
		Port:     port,
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Database: DatabaseConfig{
			URL:      os.Getenv("DATABASE_URL"),
			Host:     getEnv("BLUEPRINT_DB_HOST", "localhost"),
			Port:     getEnv("BLUEPRINT_DB_PORT", "5432"),
			Username: os.Getenv("BLUEPRINT_DB_USERNAME"),
			Password: os.Getenv("BLUEPRINT_DB_PASSWORD"),
			Name:     os.Getenv("BLUEPRINT_DB_DATABASE"),
			Schema:   os.Getenv("BLUEPRINT_DB_SCHEMA"),
			LogLevel: getEnv("DB_LOG_LEVEL", "warn"),
		},
		JWTSecret:           os.Getenv("JWT_SECRET"),
		JWTTTL:              ttl,
		CORSAllowedOrigins:  splitList(getEnv("CORS_ALLOWED_ORIGINS", "https://*,http://*")),
		InviteEmailFrom:     os.Getenv("INVITE_EMAIL_FROM"),
		InviteEmailFromName: getEnv("INVITE_EMAIL_FROM_NAME", "Family Todos"),
		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AppBaseURL:          getEnv("APP_BASE_URL", "http://localhost:5173"),
	}

	if cfg.JWTSecret == "" {
		return nil, ErrMissingJWTSecret
	}

	return cfg, nil
}

// DSN returns the connection string handed to the gorm postgres driver.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.Host, c.Username, c.Password, c.Name, c.Port)
	if c.Schema != "" {
		dsn += " search_path=" + c.Schema
	}
	return dsn
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
