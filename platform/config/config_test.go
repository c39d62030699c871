package config

import (
	"strings"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/outreach")
	t.Setenv("CALENDLY_TOKEN", "cal")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test")
	t.Setenv("ULTRAMSG_INSTANCE", "instance1")
	t.Setenv("ULTRAMSG_TOKEN", "tok")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GetBatchSize() != 5 || cfg.GetSendDelay() != 2*time.Second || cfg.GetPacer() != PacerFixed {
		t.Fatalf("unexpected pacing defaults %+v", cfg)
	}
	if cfg.GetDefaultCountryCode() != "+34" || cfg.GetPhoneRegion() != "ES" {
		t.Fatalf("unexpected phone defaults %q %q", cfg.GetDefaultCountryCode(), cfg.GetPhoneRegion())
	}
	if cfg.GetOutreachTimezone().String() != "Europe/Madrid" {
		t.Fatalf("unexpected timezone %s", cfg.GetOutreachTimezone())
	}
	if cfg.GetOutreachCronSpec() != "0 10 * * 1-5" || cfg.GetAsynqQueueName() != "outreach" {
		t.Fatalf("unexpected scheduler defaults %q %q", cfg.GetOutreachCronSpec(), cfg.GetAsynqQueueName())
	}
	if cfg.UsesMemoryStore() {
		t.Fatal("postgres is the default store")
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("OUTREACH_PACER", "RATE")
	t.Setenv("OUTREACH_RATE_PER_MINUTE", "12")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, ,https://b.example.com")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GetPacer() != PacerRate || cfg.GetRatePerMinute() != 12 {
		t.Fatalf("unexpected pacer %q %d", cfg.GetPacer(), cfg.GetRatePerMinute())
	}
	if got := cfg.GetCORSOrigins(); len(got) != 2 || got[1] != "https://b.example.com" {
		t.Fatalf("unexpected origins %v", got)
	}
	if !cfg.UsesMemoryStore() {
		t.Fatal("expected memory store")
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{"missing database", "DATABASE_URL", "", "DATABASE_URL"},
		{"missing calendly token", "CALENDLY_TOKEN", "", "CALENDLY_TOKEN"},
		{"missing stripe key", "STRIPE_SECRET_KEY", "", "STRIPE_SECRET_KEY"},
		{"missing ultramsg token", "ULTRAMSG_TOKEN", "", "ULTRAMSG"},
		{"bad batch size", "OUTREACH_BATCH_SIZE", "zero", "OUTREACH_BATCH_SIZE"},
		{"bad delay", "OUTREACH_SEND_DELAY", "soon", "OUTREACH_SEND_DELAY"},
		{"bad pacer", "OUTREACH_PACER", "burst", "OUTREACH_PACER"},
		{"bad country code", "DEFAULT_COUNTRY_CODE", "34", "DEFAULT_COUNTRY_CODE"},
		{"bad timezone", "OUTREACH_TIMEZONE", "Mars/Olympus", "OUTREACH_TIMEZONE"},
		{"bad store", "STORE_DRIVER", "sqlite", "STORE_DRIVER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %s, got %v", tt.want, err)
			}
		})
	}
}
