package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all startup configuration. It is loaded once from the
// environment and treated as immutable afterwards.
type Config struct {
	// Server
	Port    string
	BaseURL string
	Env     string

	// Auth
	TokenTTL           time.Duration
	SessionTTL         time.Duration
	AllowedEmails      []string
	ShowAllowlistError bool

	// Log viewer
	EnableLogViewer bool
	LogBufferSize   int
	LogLevel        string

	// Storage
	DBPath string

	// Mail
	PostmarkToken string
	MailFrom      string
}

// Load reads configuration from PORCHLIGHT_* environment variables,
// applying defaults for anything unset.
func Load() (*Config, error) {
	cfg := &Config{
		Port:     getEnv("PORCHLIGHT_PORT", "8787"),
		BaseURL:  os.Getenv("PORCHLIGHT_BASE_URL"),
		Env:      getEnv("PORCHLIGHT_ENV", "development"),
		LogLevel: getEnv("PORCHLIGHT_LOG_LEVEL", "info"),
		DBPath:   getEnv("PORCHLIGHT_DB_PATH", "porchlight.db"),

		PostmarkToken: os.Getenv("PORCHLIGHT_POSTMARK_TOKEN"),
		MailFrom:      getEnv("PORCHLIGHT_MAIL_FROM", "no-reply@localhost"),

		ShowAllowlistError: getEnvBool("PORCHLIGHT_SHOW_ALLOWLIST_ERROR"),
		EnableLogViewer:    getEnvBool("PORCHLIGHT_ENABLE_LOG_VIEWER"),
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:" + cfg.Port
	}

	var err error
	if cfg.TokenTTL, err = getEnvDuration("PORCHLIGHT_TOKEN_TTL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = getEnvDuration("PORCHLIGHT_SESSION_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.LogBufferSize, err = getEnvInt("PORCHLIGHT_LOG_BUFFER_SIZE", 500); err != nil {
		return nil, err
	}
	if cfg.LogBufferSize < 1 {
		return nil, fmt.Errorf("PORCHLIGHT_LOG_BUFFER_SIZE must be positive, got %d", cfg.LogBufferSize)
	}

	cfg.AllowedEmails = splitEmails(os.Getenv("PORCHLIGHT_ALLOWED_EMAILS"))

	return cfg, nil
}

// splitEmails parses a comma-separated email list, trimming whitespace
// and lowercasing each entry. Empty entries are dropped.
func splitEmails(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		email := strings.ToLower(strings.TrimSpace(part))
		if email != "" {
			out = append(out, email)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string) bool {
	return os.Getenv(key) == "true"
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, d)
	}
	return d, nil
}
