package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth" validate:"required"`
	Reminder  ReminderConfig  `mapstructure:"reminder" validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
	Jobs      JobsConfig      `mapstructure:"jobs" validate:"required"`
	Notify    NotifyConfig    `mapstructure:"notify" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port                   int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel               string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds" validate:"gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL          string `mapstructure:"url" validate:"required,url"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gt=0"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" validate:"gte=0"`
}

// Auth modes understood by AuthConfig.Mode.
const (
	AuthModeHMAC = "hmac"
	AuthModeJWKS = "jwks"
)

// AuthConfig contains bearer token verification settings.
// In hmac mode tokens are signed with JWTSecret; in jwks mode they are verified
// against the RSA keys published at JWKSURL and must carry Issuer.
type AuthConfig struct {
	Mode                 string `mapstructure:"mode" validate:"required,oneof=hmac jwks"`
	JWTSecret            string `mapstructure:"jwt_secret" validate:"omitempty,min=32"`
	JWKSURL              string `mapstructure:"jwks_url" validate:"omitempty,url"`
	Issuer               string `mapstructure:"issuer"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"gt=0"`
}

// ReminderConfig tunes reminder validation.
type ReminderConfig struct {
	// MinLeadSeconds is how far past "now" a reminder time must be to be accepted.
	MinLeadSeconds int `mapstructure:"min_lead_seconds" validate:"gte=0"`
}

// SchedulerConfig controls the schedule registry firing loop.
type SchedulerConfig struct {
	Group               string `mapstructure:"group" validate:"required,max=64"`
	NotificationTarget  string `mapstructure:"notification_target" validate:"required"`
	PollIntervalSeconds int    `mapstructure:"poll_interval_seconds" validate:"gt=0"`
	BatchSize           int    `mapstructure:"batch_size" validate:"gt=0,lte=1000"`
}

// JobsConfig controls the background job runner.
type JobsConfig struct {
	WorkerCount        int `mapstructure:"worker_count" validate:"gt=0"`
	QueueSize          int `mapstructure:"queue_size" validate:"gt=0"`
	StuckJobAgeMinutes int `mapstructure:"stuck_job_age_minutes" validate:"gt=0"`
}

// NotifyConfig configures the notification channel and its email subscribers.
// When SMTPAddr is empty reminders are only written to the log.
type NotifyConfig struct {
	Channel      string   `mapstructure:"channel" validate:"required"`
	SMTPAddr     string   `mapstructure:"smtp_addr" validate:"omitempty,hostname_port"`
	SMTPFrom     string   `mapstructure:"smtp_from" validate:"omitempty,email"`
	SMTPUsername string   `mapstructure:"smtp_username"`
	SMTPPassword string   `mapstructure:"smtp_password"`
	Subscribers  []string `mapstructure:"subscribers" validate:"dive,email"`
}
