package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.Server.Addr)
	require.Equal(t, 30, cfg.Auction.BidWindowSec)
	require.Equal(t, "100", cfg.Auction.StartingBudget)
	require.False(t, cfg.Auction.ManualAdvance)
	require.Equal(t, "0 0 9 * * 1", cfg.Market.OpenCron)
	require.Equal(t, "0 0 18 * * 5", cfg.Market.CloseCron)
	require.Empty(t, cfg.Database.PostgresDSN)

	require.NoError(t, cfg.Validate())
	require.Equal(t, 30*time.Second, cfg.BidWindow())
	require.True(t, cfg.StartingBudget().Equal(dec("100")))
}

func TestLoadMissingFileIsFine(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "no-such.yml"))
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
auction:
  bid_window_sec: 45
  starting_budget: "250.50"
  manual_advance: true
market:
  disabled: true
database:
  postgres_dsn: "host=db user=auction"
history:
  sqlite_path: "history.db"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.Equal(t, ":9090", cfg.Server.Addr)
	require.Equal(t, 45*time.Second, cfg.BidWindow())
	require.True(t, cfg.StartingBudget().Equal(dec("250.50")))
	require.True(t, cfg.Auction.ManualAdvance)
	require.True(t, cfg.Market.Disabled)
	require.Equal(t, "host=db user=auction", cfg.Database.PostgresDSN)
	require.Equal(t, "history.db", cfg.History.SQLitePath)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
auction:
  bid_window_sec: 45
`), 0o600))

	t.Setenv("AUCTION_ADDR", ":7070")
	t.Setenv("AUCTION_BID_WINDOW_SEC", "60")
	t.Setenv("AUCTION_STARTING_BUDGET", "500")

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, ":7070", cfg.Server.Addr)
	require.Equal(t, 60, cfg.Auction.BidWindowSec)
	require.Equal(t, "500", cfg.Auction.StartingBudget)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not: a: map"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "negative window",
			mutate:  func(c *Config) { c.Auction.BidWindowSec = -5 },
			wantErr: "bid_window_sec",
		},
		{
			name:    "budget not a number",
			mutate:  func(c *Config) { c.Auction.StartingBudget = "lots" },
			wantErr: "starting_budget",
		},
		{
			name:    "budget zero",
			mutate:  func(c *Config) { c.Auction.StartingBudget = "0" },
			wantErr: "starting_budget",
		},
		{
			name: "market enabled without open cron",
			mutate: func(c *Config) {
				c.Market.OpenCron = ""
			},
			wantErr: "open_cron",
		},
		{
			name: "disabled market skips cron checks",
			mutate: func(c *Config) {
				c.Market.Disabled = true
				c.Market.OpenCron = ""
				c.Market.CloseCron = ""
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			tt.mutate(cfg)

			err = cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}
