package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the root application configuration, read from the environment.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Ledger   LedgerConfig
	Mail     MailConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port           string `env:"SERVER_PORT" env-default:"8080"`
	GinMode        string `env:"GIN_MODE" env-default:"debug"`
	Environment    string `env:"ENVIRONMENT" env-default:"development"`
	UploadPath     string `env:"UPLOAD_PATH" env-default:"./uploads"`
	MaxUploadMB    int64  `env:"MAX_UPLOAD_MB" env-default:"10"`
	AllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" env-default:"*"`
	AutoMigrate    bool   `env:"AUTO_MIGRATE" env-default:"true"`
}

type DatabaseConfig struct {
	Driver          string        `env:"DB_DRIVER" env-default:"mysql"`
	DSN             string        `env:"DB_DSN"`
	Host            string        `env:"DB_HOST" env-default:"127.0.0.1"`
	Port            string        `env:"DB_PORT" env-default:"3306"`
	Name            string        `env:"DB_DATABASE" env-default:"report_ledger"`
	Username        string        `env:"DB_USERNAME"`
	Password        string        `env:"DB_PASSWORD"`
	DebugSQL        bool          `env:"DEBUG_SQL" env-default:"false"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" env-default:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"1h"`
}

type AuthConfig struct {
	JWTSecret   string        `env:"JWT_SECRET"`
	TokenTTL    time.Duration `env:"JWT_TTL" env-default:"24h"`
	Required    bool          `env:"AUTH_REQUIRED" env-default:"false"`
	AdminRoleID int           `env:"ADMIN_ROLE_ID" env-default:"1"`
}

type LedgerConfig struct {
	PermissionCacheTTL time.Duration `env:"PERMISSION_CACHE_TTL" env-default:"60s"`
	TrendMonths        int           `env:"DASHBOARD_TREND_MONTHS" env-default:"6"`
	PendingPreview     int           `env:"DASHBOARD_PENDING_PREVIEW" env-default:"5"`
}

type MailConfig struct {
	Host          string `env:"SMTP_HOST"`
	Port          int    `env:"SMTP_PORT" env-default:"587"`
	User          string `env:"SMTP_USER"`
	Pass          string `env:"SMTP_PASS"`
	From          string `env:"SMTP_FROM"` // e.g. "Report Ledger <no-reply@your.org>"
	SkipTLSVerify bool   `env:"SMTP_SKIP_TLS_VERIFY" env-default:"false"`
}

// Enabled reports whether enough SMTP settings are present to send mail.
func (m MailConfig) Enabled() bool {
	return m.Host != "" && m.From != ""
}

type LogConfig struct {
	Level string `env:"LOG_LEVEL" env-default:"info"`
	File  string `env:"LOG_FILE" env-default:"logs/ledger-api.log"`
}

// IsProduction reports whether ENVIRONMENT is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

// Load reads configuration from environment variables, applying defaults.
// Callers load any .env file first.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.Database.Driver) {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER %q is not supported", c.Database.Driver)
	}
	if c.Auth.Required && c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required when AUTH_REQUIRED is enabled")
	}
	if c.Ledger.PermissionCacheTTL < 0 {
		return errors.New("PERMISSION_CACHE_TTL must not be negative")
	}
	if c.Ledger.TrendMonths < 1 || c.Ledger.TrendMonths > 24 {
		return errors.New("DASHBOARD_TREND_MONTHS must be between 1 and 24")
	}
	if c.Ledger.PendingPreview < 1 {
		return errors.New("DASHBOARD_PENDING_PREVIEW must be positive")
	}
	return nil
}
