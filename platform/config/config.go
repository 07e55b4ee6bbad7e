// Package config loads application configuration from the environment.
// Modules receive the narrow interface they need rather than *Config.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
	GetDatabaseMaxConns() int32
}

// JWTConfig provides token validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// AuthServiceConfig provides settings needed to issue tokens.
type AuthServiceConfig interface {
	JWTConfig
	GetAccessTokenTTL() time.Duration
}

// BootstrapConfig provides the default administrator account.
type BootstrapConfig interface {
	GetBootstrapAdminUsername() string
	GetBootstrapAdminEmail() string
	GetBootstrapAdminPassword() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
	GetIngestRatePerMinute() int
	GetIngestBurst() int
}

// TrackingConfig provides settings for the generated tracking snippet.
type TrackingConfig interface {
	GetPublicAPIBaseURL() string
}

// PhoneConfig provides the region used to interpret local phone numbers.
type PhoneConfig interface {
	GetDefaultPhoneRegion() string
}

// CacheConfig provides settings for the analytics cache.
type CacheConfig interface {
	GetRedisURL() string
	GetAnalyticsCacheTTL() time.Duration
}

// SchedulerConfig provides settings for the asynq client and worker.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// EmailConfig provides SMTP delivery settings.
type EmailConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	IsEmailEnabled() bool
}

// LeadAlertConfig provides thresholds for high-score lead notifications.
type LeadAlertConfig interface {
	GetLeadAlertMinScore() int
	GetLeadAlertRecipients() []string
}

// Config holds all application configuration values.
type Config struct {
	Env                    string
	HTTPAddr               string
	DatabaseURL            string
	DatabaseMaxConns       int32
	JWTAccessSecret        string
	AccessTokenTTL         time.Duration
	CORSOrigins            []string
	CORSAllowCreds         bool
	PublicAPIBaseURL       string
	IngestRatePerMinute    int
	IngestBurst            int
	RedisURL               string
	RedisTLSInsecure       bool
	AnalyticsCacheTTL      time.Duration
	AsynqQueueName         string
	AsynqConcurrency       int
	SMTPHost               string
	SMTPPort               int
	SMTPUsername           string
	SMTPPassword           string
	EmailFromName          string
	EmailFromAddress       string
	LeadAlertMinScore      int
	LeadAlertRecipients    []string
	DefaultPhoneRegion     string
	BootstrapAdminUsername string
	BootstrapAdminEmail    string
	BootstrapAdminPassword string
}

func (c *Config) GetDatabaseURL() string     { return c.DatabaseURL }
func (c *Config) GetDatabaseMaxConns() int32 { return c.DatabaseMaxConns }

func (c *Config) GetJWTAccessSecret() string       { return c.JWTAccessSecret }
func (c *Config) GetAccessTokenTTL() time.Duration { return c.AccessTokenTTL }

func (c *Config) GetBootstrapAdminUsername() string { return c.BootstrapAdminUsername }
func (c *Config) GetBootstrapAdminEmail() string    { return c.BootstrapAdminEmail }
func (c *Config) GetBootstrapAdminPassword() string { return c.BootstrapAdminPassword }

func (c *Config) GetHTTPAddr() string         { return c.HTTPAddr }
func (c *Config) GetCORSOrigins() []string    { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool     { return c.CORSAllowCreds }
func (c *Config) GetIngestRatePerMinute() int { return c.IngestRatePerMinute }
func (c *Config) GetIngestBurst() int         { return c.IngestBurst }

func (c *Config) GetPublicAPIBaseURL() string   { return c.PublicAPIBaseURL }
func (c *Config) GetDefaultPhoneRegion() string { return c.DefaultPhoneRegion }

func (c *Config) GetRedisURL() string                 { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool           { return c.RedisTLSInsecure }
func (c *Config) GetAnalyticsCacheTTL() time.Duration { return c.AnalyticsCacheTTL }
func (c *Config) GetAsynqQueueName() string           { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int            { return c.AsynqConcurrency }

func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) IsEmailEnabled() bool        { return c.SMTPHost != "" }

func (c *Config) GetLeadAlertMinScore() int        { return c.LeadAlertMinScore }
func (c *Config) GetLeadAlertRecipients() []string { return c.LeadAlertRecipients }

// Load reads configuration from a .env file (if present) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the current environment without reading .env.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Env:                    getEnv("APP_ENV", "development"),
		HTTPAddr:               getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		DatabaseMaxConns:       int32(getInt("DATABASE_MAX_CONNS", 25)),
		JWTAccessSecret:        getEnv("JWT_ACCESS_SECRET", ""),
		AccessTokenTTL:         getDuration("JWT_ACCESS_TTL", 8*time.Hour),
		CORSOrigins:            splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		CORSAllowCreds:         getBool("CORS_ALLOW_CREDENTIALS", true),
		PublicAPIBaseURL:       strings.TrimRight(getEnv("PUBLIC_API_BASE_URL", "http://localhost:8080"), "/"),
		IngestRatePerMinute:    getInt("INGEST_RATE_PER_MINUTE", 60),
		IngestBurst:            getInt("INGEST_BURST", 20),
		RedisURL:               getEnv("REDIS_URL", ""),
		RedisTLSInsecure:       getBool("REDIS_TLS_INSECURE", false),
		AnalyticsCacheTTL:      getDuration("ANALYTICS_CACHE_TTL", time.Minute),
		AsynqQueueName:         getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:       getInt("ASYNQ_CONCURRENCY", 10),
		SMTPHost:               getEnv("SMTP_HOST", ""),
		SMTPPort:               getInt("SMTP_PORT", 587),
		SMTPUsername:           getEnv("SMTP_USERNAME", ""),
		SMTPPassword:           getEnv("SMTP_PASSWORD", ""),
		EmailFromName:          getEnv("EMAIL_FROM_NAME", "LeadLift"),
		EmailFromAddress:       getEnv("EMAIL_FROM_ADDRESS", ""),
		LeadAlertMinScore:      getInt("LEAD_ALERT_MIN_SCORE", 70),
		LeadAlertRecipients:    splitCSV(getEnv("LEAD_ALERT_RECIPIENTS", "")),
		DefaultPhoneRegion:     strings.ToUpper(getEnv("DEFAULT_PHONE_REGION", "US")),
		BootstrapAdminUsername: getEnv("BOOTSTRAP_ADMIN_USERNAME", "admin"),
		BootstrapAdminEmail:    getEnv("BOOTSTRAP_ADMIN_EMAIL", "admin@leadlift.ai"),
		BootstrapAdminPassword: getEnv("BOOTSTRAP_ADMIN_PASSWORD", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.AccessTokenTTL <= 0 {
		return nil, fmt.Errorf("JWT_ACCESS_TTL must be a positive duration")
	}
	if cfg.IngestRatePerMinute < 1 || cfg.IngestBurst < 1 {
		return nil, fmt.Errorf("INGEST_RATE_PER_MINUTE and INGEST_BURST must be positive")
	}
	if cfg.IsEmailEnabled() && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when SMTP_HOST is set")
	}
	if cfg.LeadAlertMinScore < 0 || cfg.LeadAlertMinScore > 100 {
		return nil, fmt.Errorf("LEAD_ALERT_MIN_SCORE must be between 0 and 100")
	}
	if containsWildcard(cfg.CORSOrigins) && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ORIGINS contains *")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func getBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	return strings.EqualFold(raw, "true") || raw == "1"
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0
	}
	return parsed
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
