package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Known broker decoder names.
var Brokers = []string{"schwab", "ib"}

// Config represents the complete terminal configuration
type Config struct {
	Account   AccountConfig   `json:"account" yaml:"account"`
	Brokers   []string        `json:"brokers" yaml:"brokers"`
	Scheduler SchedulerConfig `json:"scheduler" yaml:"scheduler"`
	Journal   JournalConfig   `json:"journal" yaml:"journal"`
	Log       LogConfig       `json:"log" yaml:"log"`
}

// AccountConfig contains account initialization parameters
type AccountConfig struct {
	ID         string  `json:"id" yaml:"id"`
	Balance    float64 `json:"balance" yaml:"balance"`
	Commission float64 `json:"commission,omitempty" yaml:"commission,omitempty"` // per unit, one side
}

// SchedulerConfig bounds how change notifications are batched.
type SchedulerConfig struct {
	Count int    `json:"count" yaml:"count"`
	Span  string `json:"span" yaml:"span"` // e.g. "100ms"
}

// ParseSpan converts the span string to time.Duration
func (s SchedulerConfig) ParseSpan() (time.Duration, error) {
	if s.Span == "" {
		return 0, nil
	}
	return time.ParseDuration(s.Span)
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv", "sqlite" or "none"
	DealsFile  string `json:"deals_file,omitempty" yaml:"deals_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LogConfig contains logger parameters
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`                       // "json" or "text"
	Output string `json:"output" yaml:"output"`                       // "stderr", "stdout" or a file path
	MaxAge int    `json:"max_age,omitempty" yaml:"max_age,omitempty"` // days to keep rotated files
}

// RootConfig carries the persistent command line flags.
type RootConfig struct {
	ConfigPath string
	DBPath     string
	LogLevel   string
	NoColor    bool
}

// LoadFromFile loads configuration from a file (YAML or JSON)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Account.ID == "" {
		return fmt.Errorf("account.id is required")
	}
	if c.Account.Balance <= 0 {
		return fmt.Errorf("account.balance must be positive")
	}
	if c.Account.Commission < 0 {
		return fmt.Errorf("account.commission must not be negative")
	}
	for _, b := range c.Brokers {
		if !known(b) {
			return fmt.Errorf("unknown broker: %s", b)
		}
	}
	if c.Scheduler.Count < 0 {
		return fmt.Errorf("scheduler.count must not be negative")
	}
	span, err := c.Scheduler.ParseSpan()
	if err != nil {
		return fmt.Errorf("scheduler.span: %w", err)
	}
	if span < 0 {
		return fmt.Errorf("scheduler.span must not be negative")
	}
	switch c.Journal.Type {
	case "none":
	case "csv":
		if c.Journal.DealsFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal deals_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite' or 'none'")
	}
	switch c.Log.Format {
	case "", "json", "text":
	default:
		return fmt.Errorf("log.format must be 'json' or 'text'")
	}
	if c.Log.MaxAge < 0 {
		return fmt.Errorf("log.max_age must not be negative")
	}
	return nil
}

func known(name string) bool {
	for _, b := range Brokers {
		if b == name {
			return true
		}
	}
	return false
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			ID:      "TERM-001",
			Balance: 100000,
		},
		Brokers: append([]string(nil), Brokers...),
		Scheduler: SchedulerConfig{
			Count: 1,
			Span:  "100ms",
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./terminal.sqlite",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
			Output: "stderr",
		},
	}
}
