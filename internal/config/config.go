package config

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config holds runtime configuration for the courier service.
type Config struct {
	Addr           string        `env:"ADDR,default=:8080"`
	DBDSN          string        `env:"DB_DSN,required"`
	SessionSecret  string        `env:"JWT_SESSION_SECRET,required"`
	ResetSecret    string        `env:"JWT_RESET_SECRET,required"`
	SessionTTL     time.Duration `env:"SESSION_TOKEN_TTL,default=24h"`
	ResetTTL       time.Duration `env:"RESET_TOKEN_TTL,default=15m"`
	PublicBaseURL  string        `env:"PUBLIC_BASE_URL,required"`
	SMTPHost       string        `env:"SMTP_HOST"`
	SMTPPort       int           `env:"SMTP_PORT,default=587"`
	SMTPUser       string        `env:"SMTP_USER"`
	SMTPPassword   string        `env:"SMTP_PASS"`
	MailFrom       string        `env:"MAIL_FROM,default=Noreply <noreply@localhost>"`
	OTLPEndpoint   string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	AllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS,default=http://localhost:5173"`
	AuthRateLimit  int           `env:"AUTH_RATE_LIMIT,default=30"`
}

// Load returns a Config populated from environment variables.
func Load(ctx context.Context) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, err
	}
	// envconfig's required only fires on unset variables; an empty DSN is
	// just as unusable.
	if cfg.DBDSN == "" {
		return Config{}, errors.New("DB_DSN must not be empty")
	}
	return cfg, nil
}
