package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	StoreCSV      = "csv"
	StorePostgres = "postgres"
)

type Config struct {
	// ----------------------------
	// SMTP
	// ----------------------------
	SMTPHost     string `envconfig:"SMTP_HOST" default:"localhost"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"1025"`
	SMTPUser     string `envconfig:"SMTP_USER" default:""`
	SMTPPassword string `envconfig:"SMTP_PASSWORD" default:""`
	SMTPFrom     string `envconfig:"SMTP_FROM" default:"noreply@sheetmailer.local"`
	SMTPFromName string `envconfig:"SMTP_FROM_NAME" default:""`

	SMTPVerifyInterval time.Duration `envconfig:"SMTP_VERIFY_INTERVAL" default:"30s"`

	// ----------------------------
	// Store
	// ----------------------------
	StoreDriver    string `envconfig:"STORE_DRIVER" default:"csv"`
	RecipientsFile string `envconfig:"RECIPIENTS_FILE" default:"data/recipients.csv"`
	TemplatesFile  string `envconfig:"TEMPLATES_FILE" default:"data/templates.csv"`
	ResultsFile    string `envconfig:"RESULTS_FILE" default:"data/results.csv"`
	DatabaseURL    string `envconfig:"DATABASE_URL" default:""`

	// ----------------------------
	// Pipeline
	// ----------------------------
	MaxRetryAttempts int           `envconfig:"MAX_RETRY_ATTEMPTS" default:"3"`
	RetryBaseDelay   time.Duration `envconfig:"RETRY_BASE_DELAY" default:"1s"`
	RateLimitDelay   time.Duration `envconfig:"RATE_LIMIT_DELAY" default:"1000ms"`
	Timezone         string        `envconfig:"TIMEZONE" default:"UTC"`

	// ----------------------------
	// Scheduler
	// ----------------------------
	ScheduleIntervalMinutes int           `envconfig:"SCHEDULE_INTERVAL_MINUTES" default:"60"`
	ScheduleAutostart       bool          `envconfig:"SCHEDULE_AUTOSTART" default:"false"`
	RunOnStart              bool          `envconfig:"RUN_ON_START" default:"false"`
	RunOnStartDelay         time.Duration `envconfig:"RUN_ON_START_DELAY" default:"5s"`

	// ----------------------------
	// HTTP API
	// ----------------------------
	APIPort string `envconfig:"API_PORT" default:"8080"`

	// ----------------------------
	// Metrics
	// ----------------------------
	MetricsPort string `envconfig:"METRICS_PORT" default:"9090"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	switch c.StoreDriver {
	case StoreCSV:
		if c.RecipientsFile == "" || c.TemplatesFile == "" {
			errs = append(errs, errors.New("csv store requires RECIPIENTS_FILE and TEMPLATES_FILE"))
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("postgres store requires DATABASE_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}

	if c.MaxRetryAttempts < 1 {
		errs = append(errs, errors.New("MAX_RETRY_ATTEMPTS must be at least 1"))
	}
	if c.RetryBaseDelay < 0 || c.RateLimitDelay < 0 {
		errs = append(errs, errors.New("delays must not be negative"))
	}
	if c.ScheduleIntervalMinutes < 1 {
		errs = append(errs, errors.New("SCHEDULE_INTERVAL_MINUTES must be at least 1"))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("invalid TIMEZONE: %w", err))
	}

	return errors.Join(errs...)
}

// Location returns the zone used for result-log timestamps.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
