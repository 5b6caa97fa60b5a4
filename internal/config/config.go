package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config collects every environment-driven knob. Loaded once in main and
// injected; handlers never read the environment directly.
type Config struct {
	Addr         string
	DatabaseDSN  string
	AllowOrigins []string

	// RatePerMinute applies per client IP on /api/*.
	RatePerMinute int
	RateBurst     int

	SMTP SMTPConfig
	AI   AIConfig

	ShutdownTimeout time.Duration
}

// SMTPConfig configures the optional report e-mail dispatch.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Enabled reports whether a relay is configured at all.
func (c SMTPConfig) Enabled() bool { return c.Host != "" }

// AIConfig configures the optional LLM analysis add-on. Empty BaseURL
// disables the feature (the endpoint answers 503).
type AIConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

func (c AIConfig) Enabled() bool { return c.BaseURL != "" }

// Load reads configuration from the environment, preloading a .env file
// when present. Missing .env is not an error; a missing DSN is.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Addr:            getenv("OPERTRACK_ADDR", ":8080"),
		DatabaseDSN:     os.Getenv("OPERTRACK_PG_DSN"),
		RatePerMinute:   getenvInt("OPERTRACK_RATE_PER_MINUTE", 1200),
		RateBurst:       getenvInt("OPERTRACK_RATE_BURST", 100),
		ShutdownTimeout: 10 * time.Second,
		SMTP: SMTPConfig{
			Host:     os.Getenv("OPERTRACK_SMTP_HOST"),
			Port:     getenvInt("OPERTRACK_SMTP_PORT", 587),
			Username: os.Getenv("OPERTRACK_SMTP_USER"),
			Password: os.Getenv("OPERTRACK_SMTP_PASS"),
			From:     getenv("OPERTRACK_SMTP_FROM", "reports@opertrack.org"),
		},
		AI: AIConfig{
			BaseURL: os.Getenv("OPERTRACK_AI_BASE_URL"),
			APIKey:  os.Getenv("OPERTRACK_AI_API_KEY"),
			Model:   getenv("OPERTRACK_AI_MODEL", "gpt-4o-mini"),
		},
	}

	if raw := strings.TrimSpace(os.Getenv("OPERTRACK_CORS_ORIGINS")); raw != "" {
		for _, origin := range strings.Split(raw, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.AllowOrigins = append(cfg.AllowOrigins, origin)
			}
		}
	}

	if cfg.DatabaseDSN == "" {
		return Config{}, fmt.Errorf("OPERTRACK_PG_DSN is required")
	}
	if cfg.RatePerMinute <= 0 {
		return Config{}, fmt.Errorf("OPERTRACK_RATE_PER_MINUTE must be positive")
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
