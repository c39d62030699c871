// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetCORSOrigins() []string
}

// SchedulerConfig provides settings for the asynq scheduler and worker.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetOutreachCronSpec() string
	GetOutreachTimezone() *time.Location
}

// CalendlyConfig provides credentials for the scheduling API.
type CalendlyConfig interface {
	GetCalendlyToken() string
	GetCalendlyUser() string
	GetCalendlyOrganization() string
}

// StripeConfig provides credentials for the payments API.
type StripeConfig interface {
	GetStripeSecretKey() string
}

// WhatsAppConfig provides credentials for the UltraMsg messaging channel.
type WhatsAppConfig interface {
	GetUltraMsgInstance() string
	GetUltraMsgToken() string
	GetPhoneRegion() string
}

// OutreachConfig provides the knobs of the sync and dispatch pipeline.
type OutreachConfig interface {
	GetBatchSize() int
	GetSendDelay() time.Duration
	GetPacer() string
	GetRatePerMinute() int
	GetDefaultCountryCode() string
	GetOutreachTimezone() *time.Location
	GetProgramRulesFile() string
}

// TriggerConfig provides the shared secret for trigger endpoints.
type TriggerConfig interface {
	GetCronSecret() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                string
	HTTPAddr           string
	DatabaseURL        string
	MigrationsEnabled  bool
	StoreDriver        string
	CORSOrigins        []string
	RedisURL           string
	RedisTLSInsecure   bool
	AsynqQueueName     string
	OutreachCronSpec   string
	CalendlyToken      string
	CalendlyUser       string
	CalendlyOrg        string
	StripeSecretKey    string
	UltraMsgInstance   string
	UltraMsgToken      string
	PhoneRegion        string
	CronSecret         string
	BatchSize          int
	SendDelay          time.Duration
	Pacer              string
	RatePerMinute      int
	DefaultCountryCode string
	Timezone           *time.Location
	ProgramRulesFile   string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// HTTPConfig implementation
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string         { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool   { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string   { return c.AsynqQueueName }
func (c *Config) GetOutreachCronSpec() string { return c.OutreachCronSpec }

// CalendlyConfig implementation
func (c *Config) GetCalendlyToken() string        { return c.CalendlyToken }
func (c *Config) GetCalendlyUser() string         { return c.CalendlyUser }
func (c *Config) GetCalendlyOrganization() string { return c.CalendlyOrg }

// StripeConfig implementation
func (c *Config) GetStripeSecretKey() string { return c.StripeSecretKey }

// WhatsAppConfig implementation
func (c *Config) GetUltraMsgInstance() string { return c.UltraMsgInstance }
func (c *Config) GetUltraMsgToken() string    { return c.UltraMsgToken }
func (c *Config) GetPhoneRegion() string      { return c.PhoneRegion }

// OutreachConfig implementation
func (c *Config) GetBatchSize() int                   { return c.BatchSize }
func (c *Config) GetSendDelay() time.Duration         { return c.SendDelay }
func (c *Config) GetPacer() string                    { return c.Pacer }
func (c *Config) GetRatePerMinute() int               { return c.RatePerMinute }
func (c *Config) GetDefaultCountryCode() string       { return c.DefaultCountryCode }
func (c *Config) GetOutreachTimezone() *time.Location { return c.Timezone }
func (c *Config) GetProgramRulesFile() string         { return c.ProgramRulesFile }

// TriggerConfig implementation
func (c *Config) GetCronSecret() string { return c.CronSecret }

// UsesMemoryStore reports whether the queue lives in process memory (local dry runs).
func (c *Config) UsesMemoryStore() bool { return c.StoreDriver == StoreDriverMemory }

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	PacerFixed = "fixed"
	PacerRate  = "rate"
)

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	tzName := getEnv("OUTREACH_TIMEZONE", "Europe/Madrid")
	tz, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("OUTREACH_TIMEZONE %q: %w", tzName, err)
	}

	cfg := &Config{
		Env:                getEnv("APP_ENV", "development"),
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		MigrationsEnabled:  strings.EqualFold(getEnv("MIGRATIONS_ENABLED", "true"), "true"),
		StoreDriver:        strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		CORSOrigins:        splitCSV(getEnv("CORS_ORIGINS", "")),
		RedisURL:           getEnv("REDIS_URL", ""),
		RedisTLSInsecure:   strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:     getEnv("ASYNQ_QUEUE", "outreach"),
		OutreachCronSpec:   getEnv("OUTREACH_CRON_SPEC", "0 10 * * 1-5"),
		CalendlyToken:      getEnv("CALENDLY_TOKEN", ""),
		CalendlyUser:       getEnv("CALENDLY_USER", ""),
		CalendlyOrg:        getEnv("CALENDLY_ORG", ""),
		StripeSecretKey:    getEnv("STRIPE_SECRET_KEY", ""),
		UltraMsgInstance:   getEnv("ULTRAMSG_INSTANCE", ""),
		UltraMsgToken:      getEnv("ULTRAMSG_TOKEN", ""),
		PhoneRegion:        strings.ToUpper(getEnv("PHONE_REGION", "ES")),
		CronSecret:         getEnv("CRON_SECRET", ""),
		BatchSize:          mustInt(getEnv("OUTREACH_BATCH_SIZE", "5")),
		SendDelay:          mustDuration(getEnv("OUTREACH_SEND_DELAY", "2s")),
		Pacer:              strings.ToLower(getEnv("OUTREACH_PACER", PacerFixed)),
		RatePerMinute:      mustInt(getEnv("OUTREACH_RATE_PER_MINUTE", "30")),
		DefaultCountryCode: getEnv("DEFAULT_COUNTRY_CODE", "+34"),
		Timezone:           tz,
		ProgramRulesFile:   getEnv("PROGRAM_RULES_FILE", ""),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER is postgres")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreDriverPostgres, StoreDriverMemory, c.StoreDriver)
	}
	if c.CalendlyToken == "" {
		return fmt.Errorf("CALENDLY_TOKEN is required")
	}
	if c.StripeSecretKey == "" {
		return fmt.Errorf("STRIPE_SECRET_KEY is required")
	}
	if c.UltraMsgInstance == "" || c.UltraMsgToken == "" {
		return fmt.Errorf("ULTRAMSG_INSTANCE and ULTRAMSG_TOKEN are required")
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("OUTREACH_BATCH_SIZE must be a positive integer")
	}
	switch c.Pacer {
	case PacerFixed:
		if c.SendDelay < 0 {
			return fmt.Errorf("OUTREACH_SEND_DELAY must not be negative")
		}
	case PacerRate:
		if c.RatePerMinute < 1 {
			return fmt.Errorf("OUTREACH_RATE_PER_MINUTE must be a positive integer")
		}
	default:
		return fmt.Errorf("OUTREACH_PACER must be %q or %q", PacerFixed, PacerRate)
	}
	if !strings.HasPrefix(c.DefaultCountryCode, "+") {
		return fmt.Errorf("DEFAULT_COUNTRY_CODE must start with '+'")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return -1
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}
