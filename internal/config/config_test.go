package config

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreCSV, cfg.StoreDriver)
	assert.Equal(t, 3, cfg.MaxRetryAttempts)
	assert.Equal(t, time.Second, cfg.RetryBaseDelay)
	assert.Equal(t, 1000*time.Millisecond, cfg.RateLimitDelay)
	assert.Equal(t, 60, cfg.ScheduleIntervalMinutes)
	assert.Equal(t, 30*time.Second, cfg.SMTPVerifyInterval)
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MAX_RETRY_ATTEMPTS", "5")
	t.Setenv("RATE_LIMIT_DELAY", "250ms")
	t.Setenv("TIMEZONE", "Europe/Madrid")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.MaxRetryAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.RateLimitDelay)
	assert.Equal(t, "Europe/Madrid", cfg.Location().String())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"postgres without url", func(c *Config) { c.StoreDriver = StorePostgres }, "DATABASE_URL"},
		{"unknown driver", func(c *Config) { c.StoreDriver = "sheets" }, "unknown STORE_DRIVER"},
		{"zero attempts", func(c *Config) { c.MaxRetryAttempts = 0 }, "MAX_RETRY_ATTEMPTS"},
		{"zero interval", func(c *Config) { c.ScheduleIntervalMinutes = 0 }, "SCHEDULE_INTERVAL_MINUTES"},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, "TIMEZONE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{
				StoreDriver:             StoreCSV,
				RecipientsFile:          "r.csv",
				TemplatesFile:           "t.csv",
				MaxRetryAttempts:        3,
				ScheduleIntervalMinutes: 60,
				Timezone:                "UTC",
			}
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
