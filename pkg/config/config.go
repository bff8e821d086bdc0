package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Environment        string   `env:"ENVIRONMENT" envDefault:"development"`
	ServerPort         int      `env:"SERVER_PORT" envDefault:"8080"`
	LogLevel           string   `env:"LOG_LEVEL" envDefault:"info"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:3000"`

	Database Database
	Redis    Redis
	Auth     Auth
	EmailJS  EmailJS

	RateLimitPerMinute int           `env:"RATE_LIMIT_PER_MINUTE" envDefault:"100"`
	RecountInterval    time.Duration `env:"RECOUNT_INTERVAL" envDefault:"15m"`
	MirrorTTL          time.Duration `env:"MIRROR_TTL" envDefault:"30m"`
	BootstrapAttempts  int           `env:"BOOTSTRAP_ATTEMPTS" envDefault:"3"`
	OTLPEndpoint       string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Database selects and configures the store backend.
type Database struct {
	Driver          string        `env:"STORE_DRIVER" envDefault:"sqlite"`
	DSN             string        `env:"DATABASE_URL"`
	Host            string        `env:"DB_HOST" envDefault:"localhost"`
	Port            int           `env:"DB_PORT" envDefault:"5432"`
	User            string        `env:"DB_USER" envDefault:"coachsync"`
	Password        string        `env:"DB_PASSWORD" envDefault:"dev"`
	Name            string        `env:"DB_NAME" envDefault:"coachsync"`
	SSLMode         string        `env:"DB_SSLMODE" envDefault:"disable"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`
	SQLitePath      string        `env:"SQLITE_PATH" envDefault:"coachsync.db"`
}

// Redis is optional; without a URL change events stay in-process.
type Redis struct {
	URL string `env:"REDIS_URL"`
}

// Auth configures tokens and the fallback admin account.
type Auth struct {
	JWTSecret     string        `env:"JWT_SECRET"`
	TokenTTL      time.Duration `env:"TOKEN_TTL" envDefault:"12h"`
	AdminUsername string        `env:"ADMIN_USERNAME" envDefault:"admin"`
	AdminPassword string        `env:"ADMIN_PASSWORD" envDefault:"admin123"`
}

// EmailJS holds provider credentials. Delivery runs in demo mode until the
// service, template and public key are all set.
type EmailJS struct {
	ServiceID  string `env:"EMAILJS_SERVICE_ID"`
	TemplateID string `env:"EMAILJS_TEMPLATE_ID"`
	PublicKey  string `env:"EMAILJS_PUBLIC_KEY"`
	PrivateKey string `env:"EMAILJS_PRIVATE_KEY"`
	Endpoint   string `env:"EMAILJS_ENDPOINT" envDefault:"https://api.emailjs.com/api/v1.0/email/send"`
}

// Configured reports whether real delivery is possible.
func (e EmailJS) Configured() bool {
	return e.ServiceID != "" && e.TemplateID != "" && e.PublicKey != ""
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q: want postgres or sqlite", c.Database.Driver)
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("invalid SERVER_PORT: %d", c.ServerPort)
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE: %d", c.RateLimitPerMinute)
	}
	if c.Environment == "production" && c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required in production")
	}
	return nil
}
