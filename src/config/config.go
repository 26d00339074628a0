package config

import (
	"fmt"
	"os"
	"strconv"

	"mt5-market-hub/src/models"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config embeds models.MConfig and carries the loading, defaulting and
// validation behaviour on top of the raw struct.
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig loads a YAML file, layers defaults and environment overrides on
// top of it, and validates the result.
func NewConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.applyDefaults()
	config.applyEnvOverrides()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// applyDefaults fills the tunables the file may omit.
func (c *Config) applyDefaults() {
	if c.Feed.PollIntervalMs == 0 {
		c.Feed.PollIntervalMs = 500
	}
	if c.Levels.Margin == 0 {
		c.Levels.Margin = 10
	}
	if c.Levels.MaxLevels == 0 {
		c.Levels.MaxLevels = 5
	}
	if c.Levels.MinPipsDistance == 0 {
		c.Levels.MinPipsDistance = 10
	}
	if c.Synthetic.Bars == 0 {
		c.Synthetic.Bars = 100
	}
	if c.Redis.TimeoutSeconds == 0 {
		c.Redis.TimeoutSeconds = 5
	}
}

// -----------------------------------------------------------------------------

// applyEnvOverrides keeps the container deployment contract working:
// REDIS_HOST / REDIS_PORT take precedence over the file.
func (c *Config) applyEnvOverrides() {
	if host := os.Getenv("REDIS_HOST"); host != "" {
		c.Redis.Host = host
	}
	if portStr := os.Getenv("REDIS_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			c.Redis.Port = port
		}
	}
}

// -----------------------------------------------------------------------------

// Validate rejects configurations the rest of the system cannot run with.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}

	if c.Redis.Host == "" {
		return fmt.Errorf("redis host cannot be empty")
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		return fmt.Errorf("invalid redis port number: %d", c.Redis.Port)
	}

	if len(c.Feed.Symbols) == 0 {
		return fmt.Errorf("at least one feed symbol must be configured")
	}
	if c.Feed.PollIntervalMs <= 0 {
		return fmt.Errorf("poll interval must be greater than 0")
	}

	if c.Levels.Margin <= 0 {
		return fmt.Errorf("levels margin must be greater than 0")
	}
	if c.Levels.MaxLevels <= 0 {
		return fmt.Errorf("max levels must be greater than 0")
	}
	if c.Levels.MinPipsDistance <= 0 {
		return fmt.Errorf("min pips distance must be greater than 0")
	}

	if c.Synthetic.Bars <= 0 {
		return fmt.Errorf("synthetic bar count must be greater than 0")
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save writes the effective configuration back out as YAML, overrides and
// defaults included.
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
