package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	LLM          LLMConfig
	Mail         MailConfig
	Triage       TriageConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines reviewer authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// LLMConfig holds credentials and limits for the text-generation provider.
type LLMConfig struct {
	BaseURL        string
	APIKey         string
	Model          string
	TimeoutSeconds int
	MaxBodyChars   int
}

// MailConfig identifies the support mailbox.
type MailConfig struct {
	SupportAddress string
	FetchBatchSize int
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	WebhookURL string
}

// TriageConfig carries the confidence thresholds and SLA hours that drive
// routing decisions. Loaded once at startup; decisions within a batch are
// self-consistent because nothing mutates it afterwards.
type TriageConfig struct {
	AutoSendThreshold   float64
	EscalationThreshold float64
	SLALowHours         int
	SLAMediumHours      int
	SLAHighHours        int
	SLACriticalHours    int
}

// Load reads configuration from environment variables, applying defaults
// where possible, and validates it. A malformed value is as fatal as an
// out-of-range one: a typo must never silently fall back to a default.
func Load() (*Config, error) {
	_ = godotenv.Load()

	env := &envReader{}
	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "support-triage-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: env.Int("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(env.Int("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(env.Int("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  env.Bool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(env.Int("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(env.Int("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       env.Int("REDIS_DB", 0),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: env.Int("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            env.Int("AUTH_BCRYPT_COST", 12),
		},
		LLM: LLMConfig{
			BaseURL:        getEnv("LLM_BASE_URL", "https://api.groq.com/openai/v1"),
			APIKey:         os.Getenv("LLM_API_KEY"),
			Model:          getEnv("LLM_MODEL", "llama-3.1-70b-versatile"),
			TimeoutSeconds: env.Int("LLM_TIMEOUT_SECONDS", 30),
			MaxBodyChars:   env.Int("LLM_MAX_BODY_CHARS", 4000),
		},
		Mail: MailConfig{
			SupportAddress: getEnv("SUPPORT_EMAIL", "support@example.com"),
			FetchBatchSize: env.Int("MAIL_FETCH_BATCH_SIZE", 10),
		},
		Triage: TriageConfig{
			AutoSendThreshold:   env.Float("AUTO_SEND_THRESHOLD", 0.8),
			EscalationThreshold: env.Float("ESCALATION_THRESHOLD", 0.6),
			SLALowHours:         env.Int("SLA_LOW", 48),
			SLAMediumHours:      env.Int("SLA_MEDIUM", 24),
			SLAHighHours:        env.Int("SLA_HIGH", 8),
			SLACriticalHours:    env.Int("SLA_CRITICAL", 2),
		},
		Notification: NotificationConfig{
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	if err := env.Err(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values whose invalidity must prevent the process from
// serving at all.
func (c *Config) Validate() error {
	if err := c.Triage.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		return fmt.Errorf("LLM_API_KEY is required")
	}
	if c.LLM.TimeoutSeconds <= 0 {
		return fmt.Errorf("LLM_TIMEOUT_SECONDS must be positive, got %d", c.LLM.TimeoutSeconds)
	}
	if c.LLM.MaxBodyChars <= 0 {
		return fmt.Errorf("LLM_MAX_BODY_CHARS must be positive, got %d", c.LLM.MaxBodyChars)
	}
	return nil
}

// Validate enforces the threshold and SLA invariants.
func (t TriageConfig) Validate() error {
	if t.AutoSendThreshold < 0 || t.AutoSendThreshold > 1 {
		return fmt.Errorf("AUTO_SEND_THRESHOLD must be in [0,1], got %v", t.AutoSendThreshold)
	}
	if t.EscalationThreshold < 0 || t.EscalationThreshold > 1 {
		return fmt.Errorf("ESCALATION_THRESHOLD must be in [0,1], got %v", t.EscalationThreshold)
	}
	if t.EscalationThreshold > t.AutoSendThreshold {
		return fmt.Errorf("ESCALATION_THRESHOLD (%v) must not exceed AUTO_SEND_THRESHOLD (%v)",
			t.EscalationThreshold, t.AutoSendThreshold)
	}
	for _, sla := range []struct {
		name  string
		hours int
	}{
		{"SLA_LOW", t.SLALowHours},
		{"SLA_MEDIUM", t.SLAMediumHours},
		{"SLA_HIGH", t.SLAHighHours},
		{"SLA_CRITICAL", t.SLACriticalHours},
	} {
		if sla.hours <= 0 {
			return fmt.Errorf("%s must be positive, got %d", sla.name, sla.hours)
		}
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Timeout returns the per-call deadline for model requests.
func (l LLMConfig) Timeout() time.Duration {
	return time.Duration(l.TimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// envReader parses typed environment variables and records the first
// malformed value instead of silently substituting the default.
type envReader struct {
	err error
}

func (r *envReader) Err() error {
	return r.err
}

func (r *envReader) record(key, val string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("invalid %s=%q: %w", key, val, err)
	}
}

func (r *envReader) Int(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		r.record(key, val, err)
		return fallback
	}
	return parsed
}

func (r *envReader) Float(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		r.record(key, val, err)
		return fallback
	}
	return parsed
}

func (r *envReader) Bool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		r.record(key, val, err)
		return fallback
	}
	return parsed
}
