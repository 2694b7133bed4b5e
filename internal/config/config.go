package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Input    InputConfig    `yaml:"input"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
	Output   OutputConfig   `yaml:"output"`
}

// InputConfig describes the price history source file
type InputConfig struct {
	Path string `yaml:"path"`
	// DateLayout is the Go reference layout for the Date column.
	// The default matches day-month-year sources like "05-01-2010".
	DateLayout string `yaml:"date_layout" split_words:"true"`
	// Sheet selects a workbook sheet by name when loading .xlsx input.
	// Empty means detect by header keywords.
	Sheet string `yaml:"sheet"`
}

// PipelineConfig contains the analysis pipeline settings
type PipelineConfig struct {
	// FromYear/ToYear bound the inclusive year filter. Zero on both sides
	// disables the filter.
	FromYear int `yaml:"from_year" split_words:"true"`
	ToYear   int `yaml:"to_year" split_words:"true"`
	// IncludePriceChange adds Price_Change to the correlation metric set.
	IncludePriceChange bool `yaml:"include_price_change" split_words:"true"`
	// KeepUndefined keeps rows whose derived metrics are undefined instead
	// of dropping them.
	KeepUndefined bool `yaml:"keep_undefined" split_words:"true"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int             `yaml:"port" validate:"gt=0,lte=65535"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" split_words:"true" validate:"gt=0"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" split_words:"true" validate:"gt=0"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" split_words:"true"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" split_words:"true"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" split_words:"true"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled"`
	RPS     float64 `yaml:"rps"`
	Burst   int     `yaml:"burst"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path" split_words:"true"`
}

// OutputConfig describes where batch reports are written
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// Load loads configuration from environment variables and an optional
// config file. Environment variables take precedence over the file.
func Load() (*Config, error) {
	return LoadFrom(findConfigFile())
}

// LoadFrom loads configuration with an explicit config file path. An empty
// path means environment variables only. Precedence: environment over file
// over built-in defaults; a layer only touches the keys it actually sets.
func LoadFrom(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// The structs carry no envconfig defaults or alternate names, so
	// Process is a pure overlay: only fields with a PRICELENS_* variable
	// present are written, everything else keeps its file or default value.
	if err := envconfig.Process("PRICELENS", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays configuration from a YAML file. Keys absent from
// the file leave the current values untouched.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}

	if c.Pipeline.FromYear != 0 || c.Pipeline.ToYear != 0 {
		if c.Pipeline.ToYear < c.Pipeline.FromYear {
			return fmt.Errorf("invalid year range: from_year %d after to_year %d",
				c.Pipeline.FromYear, c.Pipeline.ToYear)
		}
	}

	if c.Input.DateLayout == "" {
		return fmt.Errorf("date layout must not be empty")
	}

	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		c.Logging.Output = "console"
	}

	return nil
}

// findConfigFile returns the first config file found in the common
// locations, or empty when none exists.
func findConfigFile() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Input: InputConfig{
			DateLayout: "02-01-2006",
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/pricelens.log",
		},
		Output: OutputConfig{
			Dir: "reports",
		},
	}
}
