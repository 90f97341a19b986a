package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load.
const EnvPrefix = "TODO"

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile behaves like Load but reads the given YAML file instead of searching
// the working directory for config.yaml.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about; keys without
	// defaults must be bound explicitly.
	for _, key := range []string{
		"database.url",
		"auth.jwt_secret",
		"auth.jwks_url",
		"auth.issuer",
		"notify.smtp_addr",
		"notify.smtp_from",
		"notify.smtp_username",
		"notify.smtp_password",
		"notify.subscribers",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("error binding environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct tags and the cross-field rules tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	switch c.Auth.Mode {
	case AuthModeHMAC:
		if c.Auth.JWTSecret == "" {
			return errors.New("configuration validation failed: auth.jwt_secret is required in hmac mode")
		}
	case AuthModeJWKS:
		if c.Auth.JWKSURL == "" || c.Auth.Issuer == "" {
			return errors.New("configuration validation failed: auth.jwks_url and auth.issuer are required in jwks mode")
		}
	}

	if c.Notify.SMTPAddr != "" && c.Notify.SMTPFrom == "" {
		return errors.New("configuration validation failed: notify.smtp_from is required when notify.smtp_addr is set")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout_seconds", 10)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("auth.mode", AuthModeHMAC)
	v.SetDefault("auth.token_lifetime_minutes", 60)

	v.SetDefault("reminder.min_lead_seconds", 60)

	v.SetDefault("scheduler.group", "default")
	v.SetDefault("scheduler.notification_target", "reminder-notification")
	v.SetDefault("scheduler.poll_interval_seconds", 5)
	v.SetDefault("scheduler.batch_size", 50)

	v.SetDefault("jobs.worker_count", 2)
	v.SetDefault("jobs.queue_size", 100)
	v.SetDefault("jobs.stuck_job_age_minutes", 30)

	v.SetDefault("notify.channel", "task-reminders")
}
