package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that parses from strings like "30m" or "10s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	v, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	d.Duration = v
	return nil
}

type League struct {
	RatingStaleness Duration `yaml:"rating_staleness"`
	ServeStale      bool     `yaml:"serve_stale"`
	MinRapidGames   int      `yaml:"min_rapid_games"`
	MinTotalGames   int      `yaml:"min_total_games"`
	SubHeadroom     int      `yaml:"sub_headroom"`
	TimeControl     string   `yaml:"time_control"`
	SeasonHorizon   int      `yaml:"season_horizon"`
	TeamNames       []string `yaml:"team_names"`
}

// Search bounds a randomized search: restarts, wall clock per restart, and an optional iteration cap.
type Search struct {
	Restarts      int      `yaml:"restarts"`
	Budget        Duration `yaml:"budget"`
	MaxIterations int      `yaml:"max_iterations"`
}

type Chesscom struct {
	URL       string   `yaml:"url"`
	UserAgent string   `yaml:"user_agent"`
	Timeout   Duration `yaml:"timeout"`
}

type Notify struct {
	WebhookURL string `yaml:"webhook_url"`
}

type Export struct {
	Bucket          string `yaml:"bucket"`
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	PublicBaseURL   string `yaml:"public_base_url"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// Enabled reports whether uploads are configured.
func (e Export) Enabled() bool {
	return e.Bucket != ""
}

type Admin struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type MCP struct {
	Path   string `yaml:"path"`
	APIKey string `yaml:"api_key"`
}

type Jobs struct {
	SeasonSetup   string `yaml:"season_setup"`
	RatingRefresh string `yaml:"rating_refresh"`
}

type Config struct {
	PostgresConnStr string   `yaml:"postgres_conn_str"`
	Port            int      `yaml:"port"`
	PublicURL       string   `yaml:"public_url"`
	LogLevel        string   `yaml:"log_level"`
	League          League   `yaml:"league"`
	Balance         Search   `yaml:"balance"`
	Pairing         Search   `yaml:"pairing"`
	Chesscom        Chesscom `yaml:"chesscom"`
	Notify          Notify   `yaml:"notify"`
	Export          Export   `yaml:"export"`
	Admin           Admin    `yaml:"admin"`
	MCP             MCP      `yaml:"mcp"`
	Jobs            Jobs     `yaml:"jobs"`
}

func Default() *Config {
	return &Config{
		Port:      3000,
		PublicURL: "http://localhost:3000",
		LogLevel:  "info",
		League: League{
			RatingStaleness: Duration{30 * time.Minute},
			ServeStale:      true,
			MinRapidGames:   10,
			MinTotalGames:   50,
			SubHeadroom:     100,
			TimeControl:     "900+10",
			SeasonHorizon:   12,
			TeamNames:       []string{"Team Carlsen", "Team Nepomniachtchi"},
		},
		Balance: Search{Restarts: 8, Budget: Duration{10 * time.Second}},
		Pairing: Search{Restarts: 16, Budget: Duration{4 * time.Second}},
		Chesscom: Chesscom{
			URL:       "https://api.chess.com",
			UserAgent: "grubberbot (league management)",
			Timeout:   Duration{30 * time.Second},
		},
		Export: Export{Region: "auto"},
		Admin:  Admin{User: "admin"},
		MCP:    MCP{Path: "/mcp"},
		Jobs: Jobs{
			SeasonSetup:   "@daily",
			RatingRefresh: "@every 30m",
		},
	}
}

// LoadFromBytes applies YAML on top of the defaults and validates the result. The
// environment is not consulted.
func LoadFromBytes(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads the optional YAML file at path, then .env and the environment, which
// override values from the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config: %w", err)
		}
	}

	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	setString := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	setString("POSTGRES_CONN_STR", &c.PostgresConnStr)
	setString("PUBLIC_URL", &c.PublicURL)
	setString("LOG_LEVEL", &c.LogLevel)
	setString("NOTIFY_WEBHOOK_URL", &c.Notify.WebhookURL)
	setString("EXPORT_ACCESS_KEY_ID", &c.Export.AccessKeyID)
	setString("EXPORT_SECRET_ACCESS_KEY", &c.Export.SecretAccessKey)
	setString("ADMIN_PASSWORD", &c.Admin.Password)
	setString("MCP_API_KEY", &c.MCP.APIKey)

	if port := getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("error parsing port number: %w", err)
		}
		c.Port = p
	}
	return nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if u, err := url.Parse(c.PublicURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("public_url must be an absolute URL, got %q", c.PublicURL)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.League.RatingStaleness.Duration <= 0 {
		return fmt.Errorf("league.rating_staleness must be positive")
	}
	if c.League.MinRapidGames < 0 || c.League.MinTotalGames < 0 || c.League.SubHeadroom < 0 {
		return fmt.Errorf("league game minimums and sub_headroom cannot be negative")
	}
	if c.League.SeasonHorizon < 0 {
		return fmt.Errorf("league.season_horizon cannot be negative")
	}
	if len(c.League.TeamNames) < 2 {
		return fmt.Errorf("at least two league.team_names are required")
	}
	seen := make(map[string]bool)
	for _, name := range c.League.TeamNames {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("team names cannot be empty")
		}
		if seen[name] {
			return fmt.Errorf("team %q is listed twice", name)
		}
		seen[name] = true
	}
	for name, s := range map[string]Search{"balance": c.Balance, "pairing": c.Pairing} {
		if s.Restarts < 1 {
			return fmt.Errorf("%s.restarts must be at least 1", name)
		}
		if s.Budget.Duration <= 0 && s.MaxIterations <= 0 {
			return fmt.Errorf("%s needs a budget or max_iterations", name)
		}
	}
	if c.Export.Enabled() && c.Export.PublicBaseURL == "" {
		return fmt.Errorf("export.public_base_url is required when export.bucket is set")
	}
	if !strings.HasPrefix(c.MCP.Path, "/") {
		return fmt.Errorf("mcp.path must start with /, got %q", c.MCP.Path)
	}
	return nil
}

func (c *Config) SlogLevel() slog.Level {
	l, _ := parseLevel(c.LogLevel)
	return l
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log_level %q", level)
}
