package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

type Config struct {
	// Logging
	LogLevel  string `yaml:"log_level"  env:"LOG_LEVEL"  env-default:"info"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT" env-default:"text"`

	// Backend selection
	DataBackend  string `yaml:"data_backend"   env:"DATA_BACKEND"   env-default:"memory"`
	SQLiteDBPath string `yaml:"sqlite_db_path" env:"SQLITE_DB_PATH" env-default:"./data/myfinance.db"`

	// Wizard
	TaxonomyFile string   `yaml:"taxonomy_file" env:"TAXONOMY_FILE"`
	Currencies   []string `yaml:"currencies"    env:"CURRENCIES"    env-default:"UAH,USD,EUR" env-separator:","`
	Timezone     string   `yaml:"timezone"      env:"TIMEZONE"      env-default:"UTC"`

	// Sessions
	SessionTTL time.Duration `yaml:"session_ttl" env:"SESSION_TTL" env-default:"30m"`
	SessionMax int           `yaml:"session_max" env:"SESSION_MAX" env-default:"10000"`

	// Reports
	ExportDir string `yaml:"export_dir" env:"EXPORT_DIR" env-default:"./exports"`

	// AMQP, disabled when the URL is empty
	AMQPURL      string `yaml:"amqp_url"      env:"AMQP_URL"`
	AMQPExchange string `yaml:"amqp_exchange" env:"AMQP_EXCHANGE" env-default:"myfinance"`
	AMQPQueue    string `yaml:"amqp_queue"    env:"AMQP_QUEUE"    env-default:"sync_transactions"`

	// Google Sheets
	GoogleSpreadsheetID      string `yaml:"google_spreadsheet_id"        env:"GOOGLE_SPREADSHEET_ID"`
	GoogleSheetName          string `yaml:"google_sheet_name"            env:"GOOGLE_SHEET_NAME" env-default:"Transactions"`
	GoogleServiceAccountFile string `yaml:"google_service_account_file"  env:"GOOGLE_SERVICE_ACCOUNT_FILE"`
	GoogleServiceAccountJSON string `yaml:"google_service_account_json"  env:"GOOGLE_SERVICE_ACCOUNT_JSON"`
}

// Load reads the configuration from the environment, on top of the YAML file
// named by CONFIG_PATH when set, and validates it.
func Load() (*Config, error) {
	var cfg Config

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.DataBackend = strings.ToLower(strings.TrimSpace(c.DataBackend))
	currencies := c.Currencies[:0:0]
	for _, cur := range c.Currencies {
		if cur = strings.TrimSpace(cur); cur != "" {
			currencies = append(currencies, cur)
		}
	}
	c.Currencies = currencies
}

// Location resolves Timezone. Validate guarantees it succeeds.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// SheetsEnabled reports whether the sync worker has a spreadsheet to write to.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	validBackends := []string{BackendMemory, BackendSQLite}
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}
	if c.DataBackend == BackendSQLite && c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if len(c.Currencies) == 0 {
		errors = append(errors, "at least one currency is required")
	}
	seen := make(map[string]bool, len(c.Currencies))
	for _, cur := range c.Currencies {
		if seen[cur] {
			errors = append(errors, fmt.Sprintf("duplicate currency '%s'", cur))
		}
		seen[cur] = true
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}

	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}
	if c.SessionMax < 1 {
		errors = append(errors, fmt.Sprintf("invalid session max %d: must be at least 1", c.SessionMax))
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

	if c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// ValidateWorker checks the settings the sync worker needs on top of Validate.
func (c *Config) ValidateWorker() error {
	var errors []string
	if c.DataBackend != BackendSQLite {
		errors = append(errors, "the sync worker reads transactions from SQLite, set DATA_BACKEND=sqlite")
	}
	if c.AMQPURL == "" {
		errors = append(errors, "AMQP_URL is required for the sync worker")
	}
	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "GOOGLE_SPREADSHEET_ID is required for the sync worker")
	}
	if len(errors) > 0 {
		return fmt.Errorf("worker configuration invalid:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}
