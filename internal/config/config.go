// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full set of runtime settings.
type Config struct {
	DBPath      string        `env:"NINTHGATE_DB_PATH"       envDefault:"data/ninthgate.db"`
	StoryPath   string        `env:"NINTHGATE_STORY"`
	SaveKey     string        `env:"NINTHGATE_SAVE_KEY"      envDefault:"ninthGateSave_v1"`
	Seed        int64         `env:"NINTHGATE_SEED"          envDefault:"0"`
	ChoiceDelay time.Duration `env:"NINTHGATE_CHOICE_DELAY"  envDefault:"420ms"`
	LogLevel    string        `env:"NINTHGATE_LOG_LEVEL"     envDefault:"info"`
	LogFile     string        `env:"NINTHGATE_LOG_FILE"      envDefault:"data/ninthgate.log"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads Config from the environment and checks it.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.ChoiceDelay < 0 {
		return Config{}, fmt.Errorf("NINTHGATE_CHOICE_DELAY must not be negative, got %s", cfg.ChoiceDelay)
	}
	if strings.TrimSpace(cfg.SaveKey) == "" {
		return Config{}, fmt.Errorf("NINTHGATE_SAVE_KEY must not be empty")
	}
	if _, err := ParseLevel(cfg.LogLevel); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Level returns the configured log level. Load has already rejected
// anything unparseable.
func (c Config) Level() slog.Level {
	lvl, _ := ParseLevel(c.LogLevel)
	return lvl
}

// ParseLevel maps a level name (debug, info, warn, error) to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level %q: %w", s, err)
	}
	return lvl, nil
}
