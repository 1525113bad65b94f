package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigYAML = `
port: 8080
log_level: debug
league:
  rating_staleness: 45m
  min_rapid_games: 5
  team_names: [Team Carlsen, Team Nepomniachtchi, Team Ding]
balance:
  restarts: 2
  budget: 1s
pairing:
  max_iterations: 5000
  budget: 0s
export:
  bucket: league
  endpoint: https://example.r2.cloudflarestorage.com
  public_base_url: https://files.example.com
jobs:
  rating_refresh: "@every 1h"
`

func TestLoadFromBytes(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(testConfigYAML))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Equal(t, 45*time.Minute, cfg.League.RatingStaleness.Duration)
	assert.Equal(t, 5, cfg.League.MinRapidGames)
	assert.Len(t, cfg.League.TeamNames, 3)
	assert.Equal(t, 2, cfg.Balance.Restarts)
	assert.Equal(t, time.Second, cfg.Balance.Budget.Duration)
	assert.Equal(t, 5000, cfg.Pairing.MaxIterations)
	assert.True(t, cfg.Export.Enabled())
	assert.Equal(t, "@every 1h", cfg.Jobs.RatingRefresh)

	// untouched keys keep their defaults
	assert.Equal(t, 50, cfg.League.MinTotalGames)
	assert.Equal(t, 100, cfg.League.SubHeadroom)
	assert.Equal(t, "900+10", cfg.League.TimeControl)
	assert.Equal(t, 16, cfg.Pairing.Restarts)
	assert.Equal(t, "auto", cfg.Export.Region)
	assert.Equal(t, "@daily", cfg.Jobs.SeasonSetup)
	assert.Equal(t, "/mcp", cfg.MCP.Path)
}

func TestLoadFromBytes_invalid(t *testing.T) {
	tests := map[string]string{
		"bad duration":        "league:\n  rating_staleness: soon\n",
		"bad port":            "port: 70000\n",
		"bad log level":       "log_level: loud\n",
		"one team":            "league:\n  team_names: [Team Carlsen]\n",
		"duplicate team":      "league:\n  team_names: [A, A]\n",
		"no search bound":     "balance:\n  budget: 0s\n",
		"no restarts":         "pairing:\n  restarts: -1\n",
		"export without url":  "export:\n  bucket: league\n",
		"relative mcp path":   "mcp:\n  path: mcp\n",
		"relative public url": "public_url: league.example.com\n",
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFromBytes([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestLoad_environmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 8080\nadmin:\n  password: from-file\n"), 0o600))

	t.Setenv("PORT", "9090")
	t.Setenv("ADMIN_PASSWORD", "from-env")
	t.Setenv("POSTGRES_CONN_STR", "postgres://localhost/grubberbot")
	t.Setenv("MCP_API_KEY", "")
	t.Setenv("PUBLIC_URL", "https://league.example.com")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "from-env", cfg.Admin.Password)
	assert.Equal(t, "postgres://localhost/grubberbot", cfg.PostgresConnStr)
	assert.Empty(t, cfg.MCP.APIKey)
	assert.Equal(t, "https://league.example.com", cfg.PublicURL)
}

func TestLoad_errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	t.Setenv("PORT", "not-a-number")
	_, err = Load("")
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.validate())
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "http://localhost:3000", cfg.PublicURL)
	assert.Equal(t, 30*time.Minute, cfg.League.RatingStaleness.Duration)
	assert.Equal(t, 10*time.Second, cfg.Balance.Budget.Duration)
	assert.Equal(t, 4*time.Second, cfg.Pairing.Budget.Duration)
	assert.False(t, cfg.Export.Enabled())
}
