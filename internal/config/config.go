package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
// It is read-only after Load() returns and thread-safe for concurrent reads.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Sheets     SheetsConfig     `yaml:"sheets"`
	Auth       AuthConfig       `yaml:"auth"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Reminder   ReminderConfig   `yaml:"reminder"`
	Backup     BackupConfig     `yaml:"backup"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// SheetsConfig contains remote spreadsheet settings. Exactly one of
// CredentialsFile and CredentialsJSON must be set.
type SheetsConfig struct {
	SpreadsheetID   string   `yaml:"spreadsheet_id"`
	CredentialsFile string   `yaml:"credentials_file"`
	CredentialsJSON string   `yaml:"-"` // env-only, never in YAML
	Endpoint        string   `yaml:"endpoint"`
	MaxAttempts     int      `yaml:"max_attempts"`
	InitialBackoff  Duration `yaml:"initial_backoff"`
	MaxConcurrent   int      `yaml:"max_concurrent"`
}

// AuthConfig contains API authentication settings.
type AuthConfig struct {
	APIKey string `yaml:"-"` // env-only, never in YAML
}

// SummarizerConfig contains AI summarizer settings.
type SummarizerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"-"` // env-only, never in YAML
}

// ReminderConfig contains reminder worker settings.
type ReminderConfig struct {
	Enabled       bool     `yaml:"enabled"`
	Interval      Duration `yaml:"interval"`
	LookaheadDays int      `yaml:"lookahead_days"`
	WebhookURL    string   `yaml:"webhook_url"`
	Message       string   `yaml:"message"`
}

// BackupConfig contains S3-compatible backup export settings. An empty
// bucket disables backups entirely.
type BackupConfig struct {
	Bucket    string   `yaml:"bucket"`
	Endpoint  string   `yaml:"endpoint"`
	Region    string   `yaml:"region"`
	AccessKey string   `yaml:"-"` // env-only, never in YAML
	SecretKey string   `yaml:"-"` // env-only, never in YAML
	UseSSL    *bool    `yaml:"use_ssl"`
	Interval  Duration `yaml:"interval"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Duration is a wrapper around time.Duration that supports YAML string parsing.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Load loads configuration with precedence: defaults → YAML file → env vars.
// Returns an immutable Config suitable for concurrent read access.
func Load() (*Config, error) {
	cfg := newDefaults()

	configPath := getEnv("COMPASS_CONFIG_PATH", "config/compass.yaml")

	// Load YAML file if it exists (missing file is not an error)
	if err := loadYAMLFile(cfg, configPath); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a specific path.
// Used for testing and explicit path specification.
func LoadFromFile(path string) (*Config, error) {
	cfg := newDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Credentials returns the service-account credential payload from whichever
// source is configured.
func (c *Config) Credentials() ([]byte, error) {
	if c.Sheets.CredentialsJSON != "" {
		return []byte(c.Sheets.CredentialsJSON), nil
	}
	data, err := os.ReadFile(c.Sheets.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("reading credentials file: %w", err)
	}
	return data, nil
}

// newDefaults returns a Config with all default values.
func newDefaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     Duration(30 * time.Second),
			WriteTimeout:    Duration(30 * time.Second),
			ShutdownTimeout: Duration(15 * time.Second),
		},
		Sheets: SheetsConfig{
			MaxAttempts:    3,
			InitialBackoff: Duration(1 * time.Second),
			MaxConcurrent:  4,
		},
		Summarizer: SummarizerConfig{
			Enabled: false,
			Model:   "gpt-4o-mini",
		},
		Reminder: ReminderConfig{
			Enabled:       false,
			Interval:      Duration(24 * time.Hour),
			LookaheadDays: 7,
			Message:       "Weekly check-in: what were your top 3 accomplishments this week?",
		},
		Backup: BackupConfig{
			Interval: Duration(24 * time.Hour),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// loadYAMLFile loads configuration from a YAML file if it exists.
// Missing file is not an error; we just use defaults.
func loadYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Only non-empty env vars override config values.
func applyEnvOverrides(cfg *Config) {
	// Server
	if v := os.Getenv("COMPASS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("COMPASS_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = Duration(d)
		}
	}
	if v := os.Getenv("COMPASS_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = Duration(d)
		}
	}
	if v := os.Getenv("COMPASS_SHUTDOWN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ShutdownTimeout = Duration(d)
		}
	}

	// Sheets
	if v := os.Getenv("COMPASS_SPREADSHEET_ID"); v != "" {
		cfg.Sheets.SpreadsheetID = v
	}
	if v := os.Getenv("COMPASS_CREDENTIALS_FILE"); v != "" {
		cfg.Sheets.CredentialsFile = v
	}
	if v := os.Getenv("COMPASS_CREDENTIALS_JSON"); v != "" {
		cfg.Sheets.CredentialsJSON = v
	}
	if v := os.Getenv("COMPASS_SHEETS_ENDPOINT"); v != "" {
		cfg.Sheets.Endpoint = v
	}
	if v := os.Getenv("COMPASS_SHEETS_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Sheets.MaxAttempts = n
		}
	}
	if v := os.Getenv("COMPASS_SHEETS_INITIAL_BACKOFF"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Sheets.InitialBackoff = Duration(d)
		}
	}
	if v := os.Getenv("COMPASS_SHEETS_MAX_CONCURRENT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Sheets.MaxConcurrent = n
		}
	}

	// Auth
	if v := os.Getenv("COMPASS_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}

	// Summarizer (OPENAI_API_KEY is industry convention)
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Summarizer.APIKey = v
	}
	if v := os.Getenv("COMPASS_SUMMARIZER_ENABLED"); v != "" {
		cfg.Summarizer.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("COMPASS_SUMMARIZER_MODEL"); v != "" {
		cfg.Summarizer.Model = v
	}

	// Reminder
	if v := os.Getenv("COMPASS_REMINDER_ENABLED"); v != "" {
		cfg.Reminder.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("COMPASS_REMINDER_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Reminder.Interval = Duration(d)
		}
	}
	if v := os.Getenv("COMPASS_REMINDER_LOOKAHEAD_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Reminder.LookaheadDays = n
		}
	}
	if v := os.Getenv("COMPASS_REMINDER_WEBHOOK_URL"); v != "" {
		cfg.Reminder.WebhookURL = v
	}

	// Backup
	if v := os.Getenv("COMPASS_BACKUP_BUCKET"); v != "" {
		cfg.Backup.Bucket = v
	}
	if v := os.Getenv("COMPASS_BACKUP_ENDPOINT"); v != "" {
		cfg.Backup.Endpoint = v
	}
	if v := os.Getenv("COMPASS_BACKUP_ACCESS_KEY"); v != "" {
		cfg.Backup.AccessKey = v
	}
	if v := os.Getenv("COMPASS_BACKUP_SECRET_KEY"); v != "" {
		cfg.Backup.SecretKey = v
	}

	// Log
	if v := os.Getenv("COMPASS_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("COMPASS_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// validate checks that required configuration values are set.
// In dev mode (COMPASS_DEV_MODE=true), API key validation is skipped.
func (c *Config) validate() error {
	if c.Sheets.SpreadsheetID == "" {
		return errors.New("COMPASS_SPREADSHEET_ID is required")
	}

	hasFile := c.Sheets.CredentialsFile != ""
	hasJSON := c.Sheets.CredentialsJSON != ""
	switch {
	case !hasFile && !hasJSON:
		return errors.New("one of COMPASS_CREDENTIALS_FILE or COMPASS_CREDENTIALS_JSON is required")
	case hasFile && hasJSON:
		return errors.New("COMPASS_CREDENTIALS_FILE and COMPASS_CREDENTIALS_JSON are mutually exclusive")
	}

	// Dev mode bypasses API key validation
	if os.Getenv("COMPASS_DEV_MODE") == "true" {
		return nil
	}

	if c.Auth.APIKey == "" {
		return errors.New("COMPASS_API_KEY is required")
	}
	return nil
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
