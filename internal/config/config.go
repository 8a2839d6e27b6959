package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Backends accepted by DATA_BACKEND.
var validBackends = []string{"memory", "sqlite", "sheets", "apper"}

type Config struct {
	// HTTP Server
	Port    string `mapstructure:"port"`
	GinMode string `mapstructure:"gin_mode"`

	// Backend selection
	DataBackend string `mapstructure:"data_backend"`

	// Memory backend seed file
	DataFile string `mapstructure:"data_file"`

	// Database
	SQLiteDBPath string `mapstructure:"sqlite_db_path"`

	// Google Sheets
	GoogleSpreadsheetID      string `mapstructure:"google_spreadsheet_id"`
	GoogleServiceAccountJSON string `mapstructure:"google_service_account_json"`
	GoogleServiceAccountFile string `mapstructure:"google_service_account_file"`

	// Hosted record service
	ApperBaseURL   string        `mapstructure:"apper_base_url"`
	ApperProjectID string        `mapstructure:"apper_project_id"`
	ApperAPIKey    string        `mapstructure:"apper_api_key"`
	ApperTimeout   time.Duration `mapstructure:"apper_timeout"`

	// AMQP
	AMQPURL      string `mapstructure:"amqp_url"`
	AMQPExchange string `mapstructure:"amqp_exchange"`
	AMQPQueue    string `mapstructure:"amqp_queue"`

	// Worker
	RecomputeInterval time.Duration `mapstructure:"recompute_interval"`

	// Rate limiting
	RateLimitRequests int           `mapstructure:"rate_limit_requests"`
	RateLimitWindow   time.Duration `mapstructure:"rate_limit_window"`

	// Logging
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	SeedDefaults    bool          `mapstructure:"seed_defaults"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8081")
	v.SetDefault("gin_mode", "release")
	v.SetDefault("data_backend", "memory")
	v.SetDefault("data_file", "")
	v.SetDefault("sqlite_db_path", "./data/fintrack.db")

	v.SetDefault("google_spreadsheet_id", "")
	v.SetDefault("google_service_account_json", "")
	v.SetDefault("google_service_account_file", "")

	v.SetDefault("apper_base_url", "")
	v.SetDefault("apper_project_id", "")
	v.SetDefault("apper_api_key", "")
	v.SetDefault("apper_timeout", 30*time.Second)

	v.SetDefault("amqp_url", "")
	v.SetDefault("amqp_exchange", "fintrack")
	v.SetDefault("amqp_queue", "record_changes")

	v.SetDefault("recompute_interval", 15*time.Minute)
	v.SetDefault("rate_limit_requests", 120)
	v.SetDefault("rate_limit_window", time.Minute)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	v.SetDefault("seed_defaults", true)
	v.SetDefault("shutdown_timeout", 30*time.Second)
}

// Load resolves the configuration from defaults, the optional YAML file
// named by CONFIG_FILE, then environment variables.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.DataBackend = strings.ToLower(strings.TrimSpace(cfg.DataBackend))
	return &cfg, nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	case "sheets":
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	case "apper":
		if c.ApperBaseURL == "" {
			errors = append(errors, "APPER_BASE_URL is required when using apper backend")
		} else if u, err := url.Parse(c.ApperBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errors = append(errors, fmt.Sprintf("invalid APPER_BASE_URL '%s': must be an http(s) URL", c.ApperBaseURL))
		}
		if c.ApperProjectID == "" {
			errors = append(errors, "APPER_PROJECT_ID is required when using apper backend")
		}
		if c.ApperTimeout <= 0 {
			errors = append(errors, fmt.Sprintf("invalid apper timeout %v: must be positive", c.ApperTimeout))
		}
	}

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

	if c.RecomputeInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid recompute interval %v: must be at least 1 second", c.RecomputeInterval))
	} else if c.RecomputeInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid recompute interval %v: must be at most 24 hours", c.RecomputeInterval))
	}

	if c.RateLimitRequests < 0 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must not be negative", c.RateLimitRequests))
	}
	if c.RateLimitRequests > 0 && c.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("invalid rate limit window %v: must be positive", c.RateLimitWindow))
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}
