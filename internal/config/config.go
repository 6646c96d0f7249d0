// Package config loads the process configuration from yaml with
// environment-variable overrides for deployment-specific paths and secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dexpulse/dexpulse/internal/market"
	"github.com/dexpulse/dexpulse/internal/scan"
)

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	StaticDir    string        `yaml:"static_dir"`
}

// CacheConfig selects the snapshot cache backend.
type CacheConfig struct {
	Backend string `yaml:"backend"` // "memory" or "redis"
	Redis   struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
}

// StoreConfig holds the durable-state paths and debounce delay.
type StoreConfig struct {
	VetoPath        string        `yaml:"veto_path"`
	PerfHistoryPath string        `yaml:"perf_history_path"`
	FlushDelay      time.Duration `yaml:"flush_delay"`
}

// PipelineConfig tunes the fetch orchestrator.
type PipelineConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// RelayConfig drives the Telegram forwarder.
type RelayConfig struct {
	BotToken     string        `yaml:"bot_token"`
	ChatID       string        `yaml:"chat_id"`
	PollInterval time.Duration `yaml:"poll_interval"`
	DedupeWindow time.Duration `yaml:"dedupe_window"`
}

// LogConfig selects the log sink.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"` // empty logs to stderr only
}

// Config is the full process configuration.
type Config struct {
	Server   ServerConfig        `yaml:"server"`
	Client   market.ClientConfig `yaml:"client"`
	Cache    CacheConfig         `yaml:"cache"`
	Stores   StoreConfig         `yaml:"stores"`
	Pipeline PipelineConfig      `yaml:"pipeline"`
	Relay    RelayConfig         `yaml:"relay"`
	Log      LogConfig           `yaml:"log"`
	Majors   []scan.MajorToken   `yaml:"majors"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
			StaticDir:    "public",
		},
		Client: market.DefaultClientConfig(),
		Cache:  CacheConfig{Backend: "memory"},
		Stores: StoreConfig{
			VetoPath:        "/var/data/veto_blacklist.json",
			PerfHistoryPath: "/var/data/performance_history.json",
			FlushDelay:      1500 * time.Millisecond,
		},
		Pipeline: PipelineConfig{Concurrency: 4},
		Relay: RelayConfig{
			PollInterval: 60 * time.Second,
			DedupeWindow: 6 * time.Hour,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads a yaml config file over the defaults, then applies
// environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

// applyEnv layers the environment variables older deployments set.
func (c *Config) applyEnv() {
	if v := os.Getenv("VETO_PATH"); v != "" {
		c.Stores.VetoPath = v
	}
	if v := os.Getenv("PERF_HISTORY_PATH"); v != "" {
		c.Stores.PerfHistoryPath = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Backend = "redis"
		c.Cache.Redis.Addr = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Relay.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Relay.ChatID = v
	}
}
