// Package config loads process configuration from the environment. A
// .env file in the working directory is honored for local development.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything the process needs at startup. Store handles
// built from it are owned by the entry point, not by components.
type Config struct {
	Port        string
	DatabaseURL string
	GCSBucket   string
	JWTKey      string

	SMTPHost     string
	SMTPPort     int
	MailAccount  string
	MailPassword string
}

// Load reads the environment, after loading .env if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:         getenv("PORT", "8080"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		GCSBucket:    os.Getenv("GCS_BUCKET"),
		JWTKey:       os.Getenv("JWT_KEY"),
		SMTPHost:     getenv("SMTP_HOST", "smtp.gmail.com"),
		MailAccount:  os.Getenv("MAIN_EMAIL"),
		MailPassword: os.Getenv("MAIN_EMAIL_PASSWORD"),
	}

	port, err := strconv.Atoi(getenv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}
	cfg.SMTPPort = port

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}
	if cfg.JWTKey == "" {
		return nil, fmt.Errorf("JWT_KEY is not set")
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
