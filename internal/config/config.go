// Package config loads server settings from an optional YAML file with
// environment variable overrides on top.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config holds all server configuration.
type Config struct {
	Server struct {
		Addr string `yaml:"addr" env:"AUCTION_ADDR"`
	} `yaml:"server"`
	Auction struct {
		// BidWindowSec is the per-item countdown in seconds. Every
		// accepted bid resets it.
		BidWindowSec int `yaml:"bid_window_sec" env:"AUCTION_BID_WINDOW_SEC"`
		// StartingBudget applies to participants whose roster entry
		// has no explicit budget. Decimal string, e.g. "100".
		StartingBudget string `yaml:"starting_budget" env:"AUCTION_STARTING_BUDGET"`
		// ManualAdvance makes the engine wait for an admin advance
		// between items instead of announcing the next one itself.
		ManualAdvance bool `yaml:"manual_advance" env:"AUCTION_MANUAL_ADVANCE"`
	} `yaml:"auction"`
	Market struct {
		// Cron specs use six fields (with seconds).
		OpenCron  string `yaml:"open_cron" env:"AUCTION_MARKET_OPEN_CRON"`
		CloseCron string `yaml:"close_cron" env:"AUCTION_MARKET_CLOSE_CRON"`
		Disabled  bool   `yaml:"disabled" env:"AUCTION_MARKET_DISABLED"`
	} `yaml:"market"`
	Roster struct {
		// Path to the league roster YAML. Empty runs the server with
		// the built-in demo leagues.
		Path string `yaml:"path" env:"AUCTION_ROSTER_PATH"`
	} `yaml:"roster"`
	Database struct {
		// PostgresDSN switches the outcome store from in-memory to
		// Postgres when set.
		PostgresDSN string `yaml:"postgres_dsn" env:"AUCTION_POSTGRES_DSN"`
	} `yaml:"database"`
	History struct {
		// SQLitePath enables the append-only history recorder.
		SQLitePath string `yaml:"sqlite_path" env:"AUCTION_SQLITE_PATH"`
	} `yaml:"history"`
	Log struct {
		Development bool `yaml:"development" env:"AUCTION_LOG_DEVELOPMENT"`
	} `yaml:"log"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides. A missing file is not an error; the defaults carry a
// runnable in-memory setup.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	// Defaults
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Auction.BidWindowSec == 0 {
		cfg.Auction.BidWindowSec = 30
	}
	if cfg.Auction.StartingBudget == "" {
		cfg.Auction.StartingBudget = "100"
	}
	if cfg.Market.OpenCron == "" {
		cfg.Market.OpenCron = "0 0 9 * * 1"
	}
	if cfg.Market.CloseCron == "" {
		cfg.Market.CloseCron = "0 0 18 * * 5"
	}

	return cfg, nil
}

// Validate checks that the loaded values can actually run a server.
func (c *Config) Validate() error {
	if c.Auction.BidWindowSec <= 0 {
		return fmt.Errorf("auction.bid_window_sec must be positive")
	}
	budget, err := decimal.NewFromString(c.Auction.StartingBudget)
	if err != nil {
		return fmt.Errorf("auction.starting_budget: %w", err)
	}
	if budget.Sign() <= 0 {
		return fmt.Errorf("auction.starting_budget must be positive")
	}
	if !c.Market.Disabled {
		if c.Market.OpenCron == "" {
			return fmt.Errorf("market.open_cron is required")
		}
		if c.Market.CloseCron == "" {
			return fmt.Errorf("market.close_cron is required")
		}
	}
	return nil
}

// BidWindow returns the countdown as a duration.
func (c *Config) BidWindow() time.Duration {
	return time.Duration(c.Auction.BidWindowSec) * time.Second
}

// StartingBudget returns the parsed budget. It is zero if the string
// does not parse; Validate rejects that before anything reads it.
func (c *Config) StartingBudget() decimal.Decimal {
	d, err := decimal.NewFromString(c.Auction.StartingBudget)
	if err != nil {
		return decimal.Decimal{}
	}
	return d
}
