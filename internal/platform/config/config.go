// Package config loads and validates registrar configuration from the
// environment and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"

	lists "registrar/pkg/platform/strings"
)

const envProduction = "production"

// Config holds process configuration.
type Config struct {
	Addr      string `mapstructure:"REGISTRAR_ADDR"`
	Env       string `mapstructure:"APP_ENV"`
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// BackendURL is the REST backend. Empty selects the in-memory dev backend.
	BackendURL     string        `mapstructure:"BACKEND_URL"`
	BackendToken   string        `mapstructure:"BACKEND_TOKEN"`
	BackendTimeout time.Duration `mapstructure:"BACKEND_TIMEOUT"`
	EventID        string        `mapstructure:"EVENT_ID"`

	ReconcileInterval      time.Duration `mapstructure:"RECONCILE_INTERVAL"`
	PaymentPollInterval    time.Duration `mapstructure:"PAYMENT_POLL_INTERVAL"`
	PaymentRetrySchedule   string        `mapstructure:"PAYMENT_RETRY_SCHEDULE"`
	OTPCooldown            time.Duration `mapstructure:"OTP_COOLDOWN"`
	RequireVerifiedContact bool          `mapstructure:"REQUIRE_VERIFIED_CONTACT"`
	// OperatorToken guards manual payment verification when set.
	OperatorToken string `mapstructure:"OPERATOR_TOKEN"`
	// CORSAllowedOrigins lists browser origins allowed to call the API. Empty disables CORS.
	CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`

	RedisURL          string        `mapstructure:"REDIS_URL"`
	RedisPoolSize     int           `mapstructure:"REDIS_POOL_SIZE"`
	RedisMinIdleConns int           `mapstructure:"REDIS_MIN_IDLE_CONNS"`
	RedisDialTimeout  time.Duration `mapstructure:"REDIS_DIAL_TIMEOUT"`
	RedisReadTimeout  time.Duration `mapstructure:"REDIS_READ_TIMEOUT"`
	RedisWriteTimeout time.Duration `mapstructure:"REDIS_WRITE_TIMEOUT"`

	DatabaseURL     string `mapstructure:"DATABASE_URL"`
	KafkaBrokers    string `mapstructure:"KAFKA_BROKERS"`
	AuditKafkaTopic string `mapstructure:"AUDIT_KAFKA_TOPIC"`
	AuditBuffer     int    `mapstructure:"AUDIT_BUFFER"`
}

// RedisConfig captures connection pool settings for the Redis transaction store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("REGISTRAR_ADDR", ":8090")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("BACKEND_URL", "")
	v.SetDefault("BACKEND_TOKEN", "")
	v.SetDefault("BACKEND_TIMEOUT", "10s")
	v.SetDefault("EVENT_ID", "")
	v.SetDefault("RECONCILE_INTERVAL", "5s")
	v.SetDefault("PAYMENT_POLL_INTERVAL", "5s")
	v.SetDefault("PAYMENT_RETRY_SCHEDULE", "1s,2s,3s,5s,8s")
	v.SetDefault("OTP_COOLDOWN", "60s")
	v.SetDefault("REQUIRE_VERIFIED_CONTACT", false)
	v.SetDefault("OPERATOR_TOKEN", "")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_POOL_SIZE", 10)
	v.SetDefault("REDIS_MIN_IDLE_CONNS", 2)
	v.SetDefault("REDIS_DIAL_TIMEOUT", "5s")
	v.SetDefault("REDIS_READ_TIMEOUT", "3s")
	v.SetDefault("REDIS_WRITE_TIMEOUT", "3s")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("AUDIT_KAFKA_TOPIC", "registrar-audit")
	v.SetDefault("AUDIT_BUFFER", 256)
}

// Load reads .env (if present), then builds and validates Config from the
// environment. Env vars override .env.
func Load() (*Config, error) {
	return load(".env")
}

func load(envFile string) (*Config, error) {
	v := viper.New()
	if envFile != "" {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		_ = v.ReadInConfig()
	}
	v.AutomaticEnv()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required fields and cross-field rules.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("config: REGISTRAR_ADDR must be set")
	}
	if c.EventID == "" && c.BackendURL != "" {
		return errors.New("config: EVENT_ID must be set when BACKEND_URL is set")
	}
	if c.BackendURL == "" && c.IsProduction() {
		return errors.New("config: BACKEND_URL must be set when APP_ENV=production")
	}
	if c.BackendURL != "" && c.BackendToken == "" {
		return errors.New("config: BACKEND_TOKEN must be set when BACKEND_URL is set")
	}
	for name, d := range map[string]time.Duration{
		"BACKEND_TIMEOUT":       c.BackendTimeout,
		"RECONCILE_INTERVAL":    c.ReconcileInterval,
		"PAYMENT_POLL_INTERVAL": c.PaymentPollInterval,
		"OTP_COOLDOWN":          c.OTPCooldown,
	} {
		if d <= 0 {
			return fmt.Errorf("config: %s must be positive", name)
		}
	}
	if _, err := c.RetrySchedule(); err != nil {
		return err
	}
	if c.AuditBuffer < 0 {
		return errors.New("config: AUDIT_BUFFER must not be negative")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == envProduction
}

// UseDevBackend reports whether the in-memory backend should be used.
func (c *Config) UseDevBackend() bool {
	return c.BackendURL == ""
}

// RetrySchedule parses PaymentRetrySchedule into delays.
func (c *Config) RetrySchedule() ([]time.Duration, error) {
	parts := lists.Fields(c.PaymentRetrySchedule)
	if len(parts) == 0 {
		return nil, errors.New("config: PAYMENT_RETRY_SCHEDULE must not be empty")
	}
	out := make([]time.Duration, 0, len(parts))
	for _, p := range parts {
		d, err := time.ParseDuration(p)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("config: PAYMENT_RETRY_SCHEDULE entry %q is not a positive duration", p)
		}
		out = append(out, d)
	}
	return out, nil
}

// KafkaBrokersList returns broker addresses from the comma-separated config.
func (c *Config) KafkaBrokersList() []string {
	if c == nil {
		return nil
	}
	return lists.SplitList(c.KafkaBrokers)
}

// AllowedOrigins returns the CORS origins from the comma-separated config.
func (c *Config) AllowedOrigins() []string {
	return lists.SplitList(c.CORSAllowedOrigins)
}

func (c *Config) Redis() RedisConfig {
	return RedisConfig{
		URL:          c.RedisURL,
		PoolSize:     c.RedisPoolSize,
		MinIdleConns: c.RedisMinIdleConns,
		DialTimeout:  c.RedisDialTimeout,
		ReadTimeout:  c.RedisReadTimeout,
		WriteTimeout: c.RedisWriteTimeout,
	}
}
