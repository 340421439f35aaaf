// Package config loads the navigator engine settings and declaration tree files.
package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/comalice/navigatorx/internal/logging"
)

// Config is the engine configuration, normally read from navx.toml.
type Config struct {
	Log         LogConfig
	Store       StoreConfig
	Transitions TransitionConfig
	Persist     PersistConfig
	Inspect     InspectConfig
	I18n        I18nConfig
}

type LogConfig struct {
	Level     string
	JSON      bool
	NoColor   bool
	Timestamp bool
}

type StoreConfig struct {
	// SubscriberBuffer is the channel capacity handed to each subscriber.
	SubscriberBuffer int
}

type TransitionConfig struct {
	Timers   bool
	DimAlpha float64
}

type PersistConfig struct {
	// Dir is empty when persistence is off.
	Dir    string
	Format string
}

type InspectConfig struct {
	Addr string
}

type I18nConfig struct {
	DefaultLanguage string
	Files           []string
}

type fileConfig struct {
	Log struct {
		Level     string `toml:"level"`
		JSON      bool   `toml:"json"`
		NoColor   bool   `toml:"no_color"`
		Timestamp bool   `toml:"timestamp"`
	} `toml:"log"`
	Store struct {
		SubscriberBuffer int `toml:"subscriber_buffer"`
	} `toml:"store"`
	Transitions struct {
		Timers   bool    `toml:"timers"`
		DimAlpha float64 `toml:"dim_alpha"`
	} `toml:"transitions"`
	Persist struct {
		Dir    string `toml:"dir"`
		Format string `toml:"format"`
	} `toml:"persist"`
	Inspect struct {
		Addr string `toml:"addr"`
	} `toml:"inspect"`
	I18n struct {
		DefaultLanguage string   `toml:"default_language"`
		Files           []string `toml:"files"`
	} `toml:"i18n"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Log:         LogConfig{Level: "info", Timestamp: true},
		Store:       StoreConfig{SubscriberBuffer: 16},
		Transitions: TransitionConfig{Timers: true, DimAlpha: 0.5},
		Persist:     PersistConfig{Format: "json"},
		Inspect:     InspectConfig{Addr: "127.0.0.1:8088"},
		I18n:        I18nConfig{DefaultLanguage: "en"},
	}
}

// Load reads path over Default. Keys absent from the file keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load navx config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load navx config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("log", "level") {
		cfg.Log.Level = strings.TrimSpace(raw.Log.Level)
	}
	if meta.IsDefined("log", "json") {
		cfg.Log.JSON = raw.Log.JSON
	}
	if meta.IsDefined("log", "no_color") {
		cfg.Log.NoColor = raw.Log.NoColor
	}
	if meta.IsDefined("log", "timestamp") {
		cfg.Log.Timestamp = raw.Log.Timestamp
	}

	if meta.IsDefined("store", "subscriber_buffer") {
		cfg.Store.SubscriberBuffer = raw.Store.SubscriberBuffer
	}

	if meta.IsDefined("transitions", "timers") {
		cfg.Transitions.Timers = raw.Transitions.Timers
	}
	if meta.IsDefined("transitions", "dim_alpha") {
		cfg.Transitions.DimAlpha = raw.Transitions.DimAlpha
	}

	if meta.IsDefined("persist", "dir") {
		cfg.Persist.Dir = strings.TrimSpace(raw.Persist.Dir)
	}
	if meta.IsDefined("persist", "format") {
		cfg.Persist.Format = strings.ToLower(strings.TrimSpace(raw.Persist.Format))
	}

	if meta.IsDefined("inspect", "addr") {
		cfg.Inspect.Addr = strings.TrimSpace(raw.Inspect.Addr)
	}

	if meta.IsDefined("i18n", "default_language") {
		cfg.I18n.DefaultLanguage = strings.TrimSpace(raw.I18n.DefaultLanguage)
	}
	if meta.IsDefined("i18n", "files") {
		cfg.I18n.Files = normalizeList(raw.I18n.Files)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	if _, ok := logging.ParseLevel(c.Log.Level); !ok {
		return fmt.Errorf("log.level: unknown level %q", c.Log.Level)
	}
	if c.Store.SubscriberBuffer < 0 {
		return fmt.Errorf("store.subscriber_buffer must be >= 0, got %d", c.Store.SubscriberBuffer)
	}
	if c.Transitions.DimAlpha < 0 || c.Transitions.DimAlpha > 1 {
		return fmt.Errorf("transitions.dim_alpha must be within [0, 1], got %v", c.Transitions.DimAlpha)
	}
	switch c.Persist.Format {
	case "json", "yaml":
	default:
		return fmt.Errorf("persist.format: unsupported format %q (want json or yaml)", c.Persist.Format)
	}
	if c.I18n.DefaultLanguage == "" {
		return fmt.Errorf("i18n.default_language is required")
	}
	return nil
}

// Logging converts the [log] section into a logging configuration for profile.
// Environment overrides still apply on top when the result is configured.
func (c Config) Logging(profile logging.Profile) logging.Config {
	out := logging.DefaultConfig(profile)
	if level, ok := logging.ParseLevel(c.Log.Level); ok {
		out.Level = level
	}
	out.JSON = c.Log.JSON
	out.NoColor = c.Log.NoColor
	out.Timestamp = c.Log.Timestamp
	return out
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
