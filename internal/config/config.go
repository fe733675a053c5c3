package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "ORDERBOARD"

// Freshness modes of the dashboard.
const (
	RefreshOnRequest = "request"
	RefreshOnStartup = "startup"
)

type Config struct {
	// HTTP Server
	Port int `envconfig:"PORT" default:"8081" validate:"min=1,max=65535"`

	// Pipeline
	InputPath      string        `envconfig:"INPUT_PATH" default:"data/orders.csv" validate:"required"`
	InputDelimiter string        `envconfig:"INPUT_DELIMITER" default:","`
	OutputDir      string        `envconfig:"OUTPUT_DIR" default:"data/output" validate:"required"`
	RefreshMode    string        `envconfig:"REFRESH_MODE" default:"request" validate:"oneof=request startup"`
	RunTimeout     time.Duration `envconfig:"RUN_TIMEOUT" default:"60s"`
	PublishTimeout time.Duration `envconfig:"PUBLISH_TIMEOUT" default:"15s"`
	TopCustomers   int           `envconfig:"TOP_CUSTOMERS" default:"5" validate:"min=1,max=1000"`
	WriteWorkbook  bool          `envconfig:"WRITE_WORKBOOK" default:"true"`

	// Logging
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text" validate:"oneof=text json"`

	// Run ledger
	SQLiteDBPath string `envconfig:"SQLITE_DB_PATH"`

	// AMQP
	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"orderboard"`
	AMQPQueue    string `envconfig:"AMQP_QUEUE" default:"pipeline_runs"`

	// Google Sheets
	GoogleSpreadsheetID      string `envconfig:"GOOGLE_SPREADSHEET_ID"`
	GoogleServiceAccountFile string `envconfig:"GOOGLE_SERVICE_ACCOUNT_FILE"`
	GoogleServiceAccountJSON string `envconfig:"GOOGLE_SERVICE_ACCOUNT_JSON"`

	// Rate limiting of pipeline-triggering routes
	RateLimitPerMinute int `envconfig:"RATE_LIMIT_PER_MINUTE" default:"30" validate:"min=1"`
}

// Load reads the configuration from ORDERBOARD_* environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}
	return &cfg, nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if err := validator.New().Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				errors = append(errors, formatFieldError(fe))
			}
		} else {
			errors = append(errors, err.Error())
		}
	}

	if utf8.RuneCountInString(c.InputDelimiter) != 1 {
		errors = append(errors, fmt.Sprintf("invalid input delimiter %q: must be a single character", c.InputDelimiter))
	} else if r := c.Delimiter(); r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		errors = append(errors, fmt.Sprintf("invalid input delimiter %q", c.InputDelimiter))
	}

	if c.RunTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid run timeout %v: must be at least 1 second", c.RunTimeout))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.GoogleSpreadsheetID != "" && c.GoogleServiceAccountFile == "" && c.GoogleServiceAccountJSON == "" {
		errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided when GOOGLE_SPREADSHEET_ID is set")
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("invalid %s '%v': must be one of [%s]", fe.Field(), fe.Value(), fe.Param())
	case "min":
		return fmt.Sprintf("invalid %s %v: must be at least %s", fe.Field(), fe.Value(), fe.Param())
	case "max":
		return fmt.Sprintf("invalid %s %v: must be at most %s", fe.Field(), fe.Value(), fe.Param())
	}
	return fmt.Sprintf("invalid %s: failed %s check", fe.Field(), fe.Tag())
}

// Delimiter returns the input delimiter as a rune.
func (c *Config) Delimiter() rune {
	r, _ := utf8.DecodeRuneInString(c.InputDelimiter)
	return r
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// LedgerEnabled reports whether runs are recorded in SQLite.
func (c *Config) LedgerEnabled() bool { return c.SQLiteDBPath != "" }

// MessagingEnabled reports whether AMQP is configured.
func (c *Config) MessagingEnabled() bool { return c.AMQPURL != "" }

// SheetsEnabled reports whether aggregates are published to Google Sheets.
func (c *Config) SheetsEnabled() bool { return c.GoogleSpreadsheetID != "" }
