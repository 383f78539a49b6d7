// Package config provides application configuration loading from environment.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultSecretKey is the insecure fallback used when SECRET_KEY is unset.
const DefaultSecretKey = "default-secret-key"

// Config holds all configuration for the application.
type Config struct {
	SecretKey     string
	DBPath        string
	Host          string
	Port          int
	SecureCookie  bool
	LogLevel      string
	LogJSON       bool
	AdminUser     string
	AdminPassword string
}

// Load reads configuration from environment variables, after loading a
// .env file when one is present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		SecretKey:     getEnv("SECRET_KEY", DefaultSecretKey),
		DBPath:        getEnv("DB_PATH", "finance.db"),
		Host:          getEnv("HOST", "0.0.0.0"),
		SecureCookie:  parseBool(os.Getenv("SECURE_COOKIE")),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogJSON:       strings.EqualFold(os.Getenv("LOG_FORMAT"), "json"),
		AdminUser:     strings.TrimSpace(os.Getenv("ADMIN_USER")),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}

	portStr := getEnv("PORT", "5000")
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return nil, fmt.Errorf("invalid PORT %q", portStr)
	}
	cfg.Port = port

	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("SECRET_KEY must not be empty")
	}

	return cfg, nil
}

// Addr returns the host:port address to listen on.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// InsecureSecret reports whether the hardcoded fallback secret is in use.
func (c *Config) InsecureSecret() bool {
	return c.SecretKey == DefaultSecretKey
}

// getEnv returns the value of key, or fallback when it is unset.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && b
}
