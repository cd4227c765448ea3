// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	API        APIConfig        `yaml:"api"`
	Generation GenerationConfig `yaml:"generation"`
	Log        LogConfig        `yaml:"log"`
	Messages   MessagesConfig   `yaml:"messages"`
}

// APIConfig represents the MetaTune service configuration.
type APIConfig struct {
	BaseURL    string `yaml:"base_url" default:"http://localhost:8000" validate:"required,url"`
	TimeoutSec int    `yaml:"timeout_sec" default:"60" validate:"gte=1,lte=600"`
}

// GenerationConfig represents music generation configuration.
type GenerationConfig struct {
	Generator       string `yaml:"generator" default:"suno" validate:"oneof=suno musicgen"`
	PollIntervalMs  int    `yaml:"poll_interval_ms" default:"5000" validate:"gte=100,lte=60000"`
	MaxPollAttempts int    `yaml:"max_poll_attempts" default:"60" validate:"gte=1,lte=1000"`
}

// LogConfig represents logger configuration.
type LogConfig struct {
	Level string `yaml:"level" default:"info" validate:"oneof=debug info warn warning error"`
	File  string `yaml:"file"`
}

// MessagesConfig represents user-facing messages.
type MessagesConfig struct {
	EmptyText        string `yaml:"empty_text" default:"Please enter a prompt."`
	EmptyFields      string `yaml:"empty_fields" default:"Please fill in at least one field."`
	GenerationError  string `yaml:"generation_error" default:"Error during music generation: %s"`
	GenerationFailed string `yaml:"generation_failed" default:"Music generation failed"`
	InvalidResponse  string `yaml:"invalid_response" default:"Invalid response from the server"`
	PollTimeout      string `yaml:"poll_timeout" default:"Music generation timed out"`
	InFlight         string `yaml:"in_flight" default:"Music generation is already in progress"`
	TransformFailed  string `yaml:"transform_failed" default:"conversion failed"`
	Generating       string `yaml:"generating" default:"Generating music..."`
	Completed        string `yaml:"completed" default:"Music generation complete!"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	return finalize(&cfg)
}

// LoadOrDefault loads the config file at path, or falls back to defaults
// (plus environment overrides) when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		} else if !os.IsNotExist(err) {
			return nil, errors.Wrap(err, "failed to stat config file")
		}
	}
	return finalize(&Config{})
}

// Default returns the default configuration without consulting the environment.
func Default() *Config {
	var cfg Config
	// Defaults are static tags; an error here is a programming mistake.
	if err := defaults.Set(&cfg); err != nil {
		panic(err)
	}
	return &cfg
}

func finalize(cfg *Config) (*Config, error) {
	cfg.overrideFromEnv()

	if err := defaults.Set(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("METATUNE_API_BASE_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("METATUNE_GENERATOR"); v != "" {
		c.Generation.Generator = v
	}
	if v := os.Getenv("METATUNE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}

// Timeout returns the HTTP timeout for a single API call.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSec) * time.Second
}

// PollInterval returns the delay between task status polls.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Generation.PollIntervalMs) * time.Millisecond
}
