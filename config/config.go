// Package config loads environment variables and provides a typed Config used across the service.
// It applies sensible defaults so the binary can run locally with minimal setup: with nothing set
// it joins the default channel anonymously and keeps settings in memory.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultChannel is joined when TWITCH_CHANNEL is unset.
const DefaultChannel = "habbi3"

type Config struct {
	// Twitch
	TwitchChannel  string
	ReconnectDelay time.Duration

	// Overlay
	DemoMode bool

	// HTTP
	HTTPAddr string

	// Database (optional; empty keeps settings in memory)
	DBDsn string

	// Environment name (dev, production); drives CORS defaults.
	Env string
}

// Load reads environment variables and applies defaults. It fails only on values that are set
// but malformed.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.TwitchChannel = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(os.Getenv("TWITCH_CHANNEL"))), "#")
	if cfg.TwitchChannel == "" {
		cfg.TwitchChannel = DefaultChannel
	}

	cfg.ReconnectDelay = 5 * time.Second
	if v := os.Getenv("TWITCH_RECONNECT_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid TWITCH_RECONNECT_DELAY %q (want a positive duration like 5s)", v)
		}
		cfg.ReconnectDelay = d
	}

	if v := os.Getenv("DEMO_MODE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid DEMO_MODE: %w", err)
		}
		cfg.DemoMode = b
	}

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	cfg.DBDsn = os.Getenv("DB_DSN")

	cfg.Env = strings.ToLower(os.Getenv("ENV"))
	if cfg.Env == "" {
		cfg.Env = "dev"
	}

	return cfg, nil
}

// PersistSettings reports whether overlay settings go to Postgres.
func (c *Config) PersistSettings() bool { return c.DBDsn != "" }
