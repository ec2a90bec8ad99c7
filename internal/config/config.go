package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// DatabaseURL enables the Postgres-backed settings store. Empty keeps
	// settings in memory.
	DatabaseURL       string        `envconfig:"DATABASE_URL" default:""`
	SettingsPollEvery time.Duration `envconfig:"LINGO_SETTINGS_POLL_EVERY" default:"5s"`
	DefaultTranslator string        `envconfig:"LINGO_DEFAULT_TRANSLATOR" default:"bing"`
	SourceLanguage    string        `envconfig:"LINGO_SOURCE_LANGUAGE" default:"auto"`
	TargetLanguage    string        `envconfig:"LINGO_TARGET_LANGUAGE" default:"en"`
	MutualTranslate   bool          `envconfig:"LINGO_MUTUAL_TRANSLATE" default:"false"`
	CacheMaxEntries   int           `envconfig:"LINGO_CACHE_MAX_ENTRIES" default:"300"`
	DetectCacheTTL    time.Duration `envconfig:"LINGO_DETECT_CACHE_TTL" default:"10m"`
	TranslateCacheTTL time.Duration `envconfig:"LINGO_TRANSLATE_CACHE_TTL" default:"30m"`
	DebounceWindow    time.Duration `envconfig:"LINGO_DEBOUNCE_WINDOW" default:"250ms"`
	BingHost          string        `envconfig:"LINGO_BING_HOST" default:""`
	GoogleHost        string        `envconfig:"LINGO_GOOGLE_HOST" default:""`
	RequestTimeout    time.Duration `envconfig:"LINGO_REQUEST_TIMEOUT" default:"30s"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DefaultTranslator) == "" {
		return fmt.Errorf("LINGO_DEFAULT_TRANSLATOR is required")
	}
	if strings.TrimSpace(c.SourceLanguage) == "" {
		return fmt.Errorf("LINGO_SOURCE_LANGUAGE is required")
	}
	target := strings.TrimSpace(c.TargetLanguage)
	if target == "" || target == "auto" {
		return fmt.Errorf("LINGO_TARGET_LANGUAGE must be a concrete language code")
	}
	if c.CacheMaxEntries < 1 {
		return fmt.Errorf("LINGO_CACHE_MAX_ENTRIES must be >= 1")
	}
	if c.DetectCacheTTL <= 0 {
		return fmt.Errorf("LINGO_DETECT_CACHE_TTL must be positive")
	}
	if c.TranslateCacheTTL <= 0 {
		return fmt.Errorf("LINGO_TRANSLATE_CACHE_TTL must be positive")
	}
	if c.DebounceWindow < 0 {
		return fmt.Errorf("LINGO_DEBOUNCE_WINDOW cannot be negative")
	}
	if c.SettingsPollEvery <= 0 {
		return fmt.Errorf("LINGO_SETTINGS_POLL_EVERY must be positive")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("LINGO_REQUEST_TIMEOUT must be positive")
	}
	return nil
}
