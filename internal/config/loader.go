package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/avi3tal/weaveflow/internal/providers"
)

const envPrefix = "WEAVEFLOW_"

// dotenv files are read in order; earlier files win.
var dotEnvFiles = []string{".env.local", ".env"}

// sections are the nested config groups; WEAVEFLOW_ENGINE_HISTORY_LIMIT
// becomes engine.history_limit.
var sections = []string{"server", "storage", "engine", "gemini", "huggingface", "pollinations"}

// flagKeys maps CLI flag names to config keys where they differ.
var flagKeys = map[string]string{
	"addr":    "server.addr",
	"storage": "storage.driver",
	"db":      "storage.path",
	"timeout": "engine.timeout",
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"log_level":             DefaultLogLevel,
		"debug":                 false,
		"server.addr":           DefaultAddr,
		"storage.driver":        DriverSQLite,
		"storage.path":          DefaultStoragePath,
		"engine.timeout":        2 * time.Minute,
		"engine.history_limit":  20,
		"engine.drag_debounce":  100 * time.Millisecond,
		"gemini.model":          "gemini-2.5-flash",
		"gemini.vision_model":   "gemini-2.5-flash",
		"huggingface.base_url":  providers.HuggingFaceBaseURL,
		"huggingface.model":     providers.FluxSchnellModel,
		"pollinations.base_url": providers.PollinationsBaseURL,
		"pollinations.width":    1024,
		"pollinations.height":   1024,
	}
}

// findConfigFile returns the explicit path or the first weaveflow config
// file in the working directory.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"weaveflow.yaml", "weaveflow.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// LoadDotEnv loads .env.local and .env when present. Variables already in
// the environment are kept.
func LoadDotEnv() error {
	for _, f := range dotEnvFiles {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("error loading %s: %w", f, err)
		}
	}
	return nil
}

// Load builds the configuration.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	if path := findConfigFile(cfgFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// 3. Environment (WEAVEFLOW_ prefix)
	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags that were explicitly set
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				key = strings.ReplaceAll(f.Name, "-", "_")
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// conventional credential variables
	if cfg.Gemini.APIKey == "" {
		cfg.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.HuggingFace.Token == "" {
		cfg.HuggingFace.Token = os.Getenv("HF_TOKEN")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	for _, sec := range sections {
		if rest, ok := strings.CutPrefix(key, sec+"_"); ok {
			return sec + "." + rest
		}
	}
	return key
}
