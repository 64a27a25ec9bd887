// Package config loads weaveflow configuration from defaults, an optional
// YAML file, WEAVEFLOW_ environment variables and command line flags.
package config

import (
	"fmt"
	"time"

	"github.com/avi3tal/weaveflow/pkg/types"
)

const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"

	DefaultAddr        = ":8080"
	DefaultStoragePath = "weaveflow.db"
	DefaultLogLevel    = "info"
)

// Config is the full process configuration.
type Config struct {
	LogLevel     string             `koanf:"log_level"`
	Debug        bool               `koanf:"debug"`
	Server       ServerConfig       `koanf:"server"`
	Storage      StorageConfig      `koanf:"storage"`
	Engine       EngineConfig       `koanf:"engine"`
	Gemini       GeminiConfig       `koanf:"gemini"`
	HuggingFace  HuggingFaceConfig  `koanf:"huggingface"`
	Pollinations PollinationsConfig `koanf:"pollinations"`
}

type ServerConfig struct {
	Addr string `koanf:"addr"`
}

type StorageConfig struct {
	Driver string `koanf:"driver"`
	Path   string `koanf:"path"`
}

type EngineConfig struct {
	Timeout      time.Duration `koanf:"timeout"`
	HistoryLimit int           `koanf:"history_limit"`
	DragDebounce time.Duration `koanf:"drag_debounce"`
}

type GeminiConfig struct {
	APIKey      string `koanf:"api_key"`
	Model       string `koanf:"model"`
	VisionModel string `koanf:"vision_model"`
}

type HuggingFaceConfig struct {
	Token   string `koanf:"token"`
	BaseURL string `koanf:"base_url"`
	Model   string `koanf:"model"`
}

type PollinationsConfig struct {
	BaseURL string `koanf:"base_url"`
	Width   int    `koanf:"width"`
	Height  int    `koanf:"height"`
}

// Runtime returns the graph and engine settings.
func (c *Config) Runtime() types.Config {
	return types.Config{
		Timeout:      c.Engine.Timeout,
		HistoryLimit: c.Engine.HistoryLimit,
		DragDebounce: c.Engine.DragDebounce,
		Debug:        c.Debug,
	}
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the %s driver", DriverSQLite)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q (want %s or %s)", c.Storage.Driver, DriverSQLite, DriverMemory)
	}
	if c.Engine.Timeout <= 0 {
		return fmt.Errorf("engine.timeout must be positive, got %s", c.Engine.Timeout)
	}
	if c.Engine.HistoryLimit <= 0 {
		return fmt.Errorf("engine.history_limit must be positive, got %d", c.Engine.HistoryLimit)
	}
	if c.Engine.DragDebounce < 0 {
		return fmt.Errorf("engine.drag_debounce must not be negative, got %s", c.Engine.DragDebounce)
	}
	if c.Pollinations.Width <= 0 || c.Pollinations.Height <= 0 {
		return fmt.Errorf("pollinations image size must be positive, got %dx%d", c.Pollinations.Width, c.Pollinations.Height)
	}
	return nil
}
