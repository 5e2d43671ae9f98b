package config

import "time"

// Runtime modes accepted in ServerConfig.Env.
const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	Email    EmailConfig    `mapstructure:"email"`
	CORS     CORSConfig     `mapstructure:"cors"`
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Env == EnvProduction
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Env      string `mapstructure:"env"       validate:"required,oneof=development test production"`
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
	// AuthToken is required in production; for Postgres it doubles as the password.
	AuthToken string `mapstructure:"auth_token"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	// Secret signs bearer tokens. Optional outside production.
	Secret     string        `mapstructure:"secret"      validate:"omitempty,min=32"`
	BasePath   string        `mapstructure:"base_path"   validate:"required,startswith=/"`
	SessionTTL time.Duration `mapstructure:"session_ttl" validate:"required,gt=0"`
	CookieName string        `mapstructure:"cookie_name" validate:"required"`
	// CacheProviders reuses one provider per database handle instead of building
	// a new one on every request.
	CacheProviders bool `mapstructure:"cache_providers"`
}

// EmailConfig contains the transactional mail settings.
type EmailConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	SMTPHost string `mapstructure:"smtp_host" validate:"required_if=Enabled true"`
	SMTPPort int    `mapstructure:"smtp_port" validate:"omitempty,gt=0,lt=65536"`
	SMTPUser string `mapstructure:"smtp_user" validate:"required_if=Enabled true"`
	SMTPPass string `mapstructure:"smtp_pass" validate:"required_if=Enabled true"`
	From     string `mapstructure:"from"      validate:"required_if=Enabled true,omitempty,email"`
}

// CORSConfig lists the browser origins trusted for cross-origin calls.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins" validate:"dive,url"`
	MaxAgeSeconds  int      `mapstructure:"max_age_seconds" validate:"gte=0"`
}
