package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable the service reads,
// e.g. TASKS_DATABASE_URL for database.url.
const EnvPrefix = "TASKS"

// ErrInvalidConfig is returned when the loaded configuration fails validation.
var ErrInvalidConfig = errors.New("config validation failed")

// defaults lists every known key. Keys must be registered here for viper to
// pick them up from the environment during Unmarshal.
var defaults = map[string]any{
	"server.env":           EnvDevelopment,
	"server.port":          9999,
	"server.log_level":     "info",
	"database.url":         "",
	"database.auth_token":  "",
	"auth.secret":          "",
	"auth.base_path":       "/api/auth",
	"auth.session_ttl":     7 * 24 * time.Hour,
	"auth.cookie_name":     "tasks_session",
	"auth.cache_providers": true,
	"email.enabled":        false,
	"email.smtp_host":      "",
	"email.smtp_port":      587,
	"email.smtp_user":      "",
	"email.smtp_pass":      "",
	"email.from":           "noreply@example.com",
	"cors.allowed_origins": []string{"http://localhost:3001"},
	"cors.max_age_seconds": 600,
}

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadDotEnv reads .env (or .env.test in test mode) into the process
// environment without overriding variables that are already set.
func loadDotEnv() error {
	file := ".env"
	if os.Getenv(EnvPrefix+"_SERVER_ENV") == EnvTest {
		file = ".env.test"
	}

	if err := godotenv.Load(file); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", file, err)
	}
	return nil
}

// Validate checks cfg and reports every failing field in a single error
// wrapping ErrInvalidConfig.
func Validate(cfg *Config) error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	validate.RegisterStructValidation(productionRules, Config{})

	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	issues := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		issues = append(issues, field+": "+describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(issues, " | "))
}

// productionRules enforces the settings that become mandatory in production.
func productionRules(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(Config)
	if cfg.Server.Env != EnvProduction {
		return
	}
	if cfg.Database.AuthToken == "" {
		sl.ReportError(cfg.Database.AuthToken, "database.auth_token", "AuthToken", "required_in_production", "")
	}
	if cfg.Auth.Secret == "" {
		sl.ReportError(cfg.Auth.Secret, "auth.secret", "Secret", "required_in_production", "")
	}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_in_production":
		return "must be set when server.env is 'production'"
	case "required_if":
		return "is required when email.enabled is true"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "url":
		return "must be a valid URL"
	case "email":
		return "must be a valid email address"
	case "startswith":
		return fmt.Sprintf("must start with %q", fe.Param())
	case "gt", "lt", "gte":
		return "is out of range"
	default:
		return fmt.Sprintf("failed on the '%s' rule", fe.Tag())
	}
}
