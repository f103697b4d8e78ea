// Package config carries the runtime settings for the monitor.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration. Fields absent from the file keep
// their defaults; command line flags may override on top.
type Config struct {
	LogLevel string `yaml:"log_level" default:"info"`

	// Adapter is the logical HCI device used for scanning and connections.
	Adapter string `yaml:"adapter" default:"hci1"`

	// StatePath is where the room list is persisted between runs.
	StatePath string `yaml:"state_path" default:"rooms.json"`

	// Listen is the status page address.
	Listen string `yaml:"listen" default:":8037"`

	ConnectTimeoutSeconds int `yaml:"connect_timeout_seconds" default:"30"`
	DispatchPeriodSeconds int `yaml:"dispatch_period_seconds" default:"3600"`
	AutosaveSeconds       int `yaml:"autosave_seconds" default:"300"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := new(Config)
	defaults.SetDefaults(cfg)
	return cfg
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults untouched.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutSeconds) * time.Second
}

func (c *Config) DispatchPeriod() time.Duration {
	return time.Duration(c.DispatchPeriodSeconds) * time.Second
}

func (c *Config) AutosavePeriod() time.Duration {
	return time.Duration(c.AutosaveSeconds) * time.Second
}

// NewLogger creates a configured logger instance. An unparseable level
// falls back to info.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	// Use structured logging format
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	return logger
}
