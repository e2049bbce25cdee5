package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "jwt-secret", "password",
}

type Config struct {
	Port                    int      `env:"PORT" envDefault:"8080"`
	DatabaseURL             string   `env:"DATABASE_URL,required"`
	RedisURL                string   `env:"REDIS_URL,required"`
	JWTSecret               string   `env:"JWT_SECRET,required"`
	LogLevel                string   `env:"LOG_LEVEL" envDefault:"info"`
	AllowedOrigins          []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:3000"`
	GlobalChatRetentionDays int      `env:"GLOBAL_CHAT_RETENTION_DAYS" envDefault:"0"`
	RateLimitPerMin         int      `env:"RATE_LIMIT_PER_MIN" envDefault:"60"`
	AutoMigrate             bool     `env:"AUTO_MIGRATE" envDefault:"true"`
}

// GlobalChatRetention returns zero when the legacy chat log is kept forever.
func (c *Config) GlobalChatRetention() time.Duration {
	if c.GlobalChatRetentionDays <= 0 {
		return 0
	}
	return time.Duration(c.GlobalChatRetentionDays) * 24 * time.Hour
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// OriginAllowed reports whether a websocket handshake from origin may proceed.
// An empty origin (non-browser client) is always allowed.
func (c *Config) OriginAllowed(origin string) bool {
	if origin == "" {
		return true
	}
	for _, o := range c.AllowedOrigins {
		o = strings.TrimSpace(o)
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

func (c *Config) Validate(isProduction bool) error {
	if c.RateLimitPerMin < 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MIN must not be negative")
	}

	if isProduction {
		if err := validateSecret("JWT_SECRET", c.JWTSecret); err != nil {
			return err
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
		for _, o := range c.AllowedOrigins {
			if strings.TrimSpace(o) == "*" {
				log.Warn().Msg("ALLOWED_ORIGINS contains * in production: any site can open a socket")
			}
		}
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: openssl rand -base64 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
