// Package config loads the marketpulse YAML configuration with sane
// defaults and environment overrides for deployment secrets.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Provider  ProviderConfig  `yaml:"provider"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Store     StoreConfig     `yaml:"store"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// ProviderConfig configures the quote source and its guards.
type ProviderConfig struct {
	Endpoints    []string      `yaml:"endpoints"`
	Timeout      time.Duration `yaml:"timeout"`
	UserAgent    string        `yaml:"user_agent"`
	RPS          float64       `yaml:"rps"`
	Burst        int           `yaml:"burst"`
	ItemTimeout  time.Duration `yaml:"item_timeout"`
	StockRetries int           `yaml:"stock_retries"`
	RetryDelay   time.Duration `yaml:"retry_delay"`
}

// SchedulerConfig configures the refresh loop.
type SchedulerConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// StoreConfig configures the GitHub document store. Token, owner, repo,
// and branch come from the environment in deployment.
type StoreConfig struct {
	Owner     string `yaml:"owner"`
	Repo      string `yaml:"repo"`
	Branch    string `yaml:"branch"`
	Token     string `yaml:"-"`
	CacheSize int    `yaml:"cache_size"`
}

// LogConfig configures zerolog.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the production defaults: Yahoo's two chart hosts, 10s
// request timeout, 8s item budget, two equity retries, 10s refresh.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 20 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Provider: ProviderConfig{
			Endpoints: []string{
				"https://query1.finance.yahoo.com",
				"https://query2.finance.yahoo.com",
			},
			Timeout:      10 * time.Second,
			UserAgent:    "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			RPS:          5,
			Burst:        10,
			ItemTimeout:  8 * time.Second,
			StockRetries: 2,
			RetryDelay:   time.Second,
		},
		Scheduler: SchedulerConfig{Interval: 10 * time.Second},
		Store: StoreConfig{
			Branch:    "main",
			CacheSize: 64,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. A missing file is not an error: the defaults
// plus environment are a complete configuration.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("HTTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("GITHUB_OWNER"); v != "" {
		cfg.Store.Owner = v
	}
	if v := os.Getenv("GITHUB_REPO"); v != "" {
		cfg.Store.Repo = v
	}
	if v := os.Getenv("GITHUB_BRANCH"); v != "" {
		cfg.Store.Branch = v
	}
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		cfg.Store.Token = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if len(c.Provider.Endpoints) == 0 {
		return fmt.Errorf("at least one provider endpoint is required")
	}
	if c.Provider.ItemTimeout <= 0 {
		return fmt.Errorf("item timeout must be positive")
	}
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler interval must be positive")
	}
	return nil
}
