// Package config provides YAML-based configuration loading for rankdate.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/osuqueue/rankdate/internal/rankconst"
)

// Config is the top-level rankdate configuration, loaded from a YAML file.
type Config struct {
	Platform PlatformConfig `yaml:"platform"`
	Store    StoreConfig    `yaml:"store"`
	Refresh  RefreshConfig  `yaml:"refresh"`
	Tunables TunablesConfig `yaml:"tunables"`
	Notify   NotifyConfig   `yaml:"notify"`
}

// PlatformConfig holds the upstream REST API's base URL and OAuth
// client-credentials. CLIENT_ID and CLIENT_SECRET may also come from
// environment variables, which take precedence over the YAML values.
type PlatformConfig struct {
	BaseURL      string `yaml:"base_url"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

// StoreConfig selects the relational backend and its connection string.
type StoreConfig struct {
	Driver string `yaml:"driver"` // "mysql" or "sqlite"
	DSN    string `yaml:"dsn"`
}

// RefreshConfig governs the scheduled refresh cycle.
type RefreshConfig struct {
	Cron          string `yaml:"cron"`
	MaxEventPages int    `yaml:"max_event_pages"`
	EventPageSize int    `yaml:"event_page_size"`
}

// TunablesConfig mirrors rankconst.Tunables for YAML loading.
type TunablesConfig struct {
	RankIntervalMinutes int     `yaml:"rank_interval_minutes"`
	RankPerRun          int     `yaml:"rank_per_run"`
	RankPerDay          int     `yaml:"rank_per_day"`
	MinimumDaysForRank  int     `yaml:"minimum_days_for_rank"`
	MaximumPenaltyDays  int     `yaml:"maximum_penalty_days"`
	DelayMinSeconds     int     `yaml:"delay_min_seconds"`
	DelayMaxSeconds     int     `yaml:"delay_max_seconds"`
	Split               float64 `yaml:"split"`
}

// NotifyConfig holds best-effort alerting backend credentials; either or
// both may be left empty to disable that backend.
type NotifyConfig struct {
	SlackToken       string `yaml:"slack_token"`
	SlackChannel     string `yaml:"slack_channel"`
	DiscordToken     string `yaml:"discord_token"`
	DiscordChannelID string `yaml:"discord_channel_id"`
}

// Load reads a YAML config file from path, applies CLIENT_ID/CLIENT_SECRET
// environment overrides, and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyEnvOverrides()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnvOverrides lets CLIENT_ID and CLIENT_SECRET from the environment
// take precedence over whatever the YAML file carries, so secrets never
// need to live on disk.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("CLIENT_ID"); v != "" {
		c.Platform.ClientID = v
	}
	if v := os.Getenv("CLIENT_SECRET"); v != "" {
		c.Platform.ClientSecret = v
	}
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Store.Driver == "" {
		c.Store.Driver = "sqlite"
	}
	if c.Store.DSN == "" && c.Store.Driver == "sqlite" {
		c.Store.DSN = "rankdate.db"
	}
	if c.Refresh.Cron == "" {
		c.Refresh.Cron = "*/20 * * * *"
	}
	if c.Refresh.MaxEventPages == 0 {
		c.Refresh.MaxEventPages = 200
	}
	if c.Refresh.EventPageSize == 0 {
		c.Refresh.EventPageSize = 50
	}

	defaults := rankconst.Default()
	if c.Tunables.RankIntervalMinutes == 0 {
		c.Tunables.RankIntervalMinutes = int(defaults.RankInterval.Minutes())
	}
	if c.Tunables.RankPerRun == 0 {
		c.Tunables.RankPerRun = defaults.RankPerRun
	}
	if c.Tunables.RankPerDay == 0 {
		c.Tunables.RankPerDay = defaults.RankPerDay
	}
	if c.Tunables.MinimumDaysForRank == 0 {
		c.Tunables.MinimumDaysForRank = defaults.MinimumDaysForRank
	}
	if c.Tunables.MaximumPenaltyDays == 0 {
		c.Tunables.MaximumPenaltyDays = defaults.MaximumPenaltyDays
	}
	if c.Tunables.DelayMinSeconds == 0 {
		c.Tunables.DelayMinSeconds = int(defaults.DelayMin.Seconds())
	}
	if c.Tunables.DelayMaxSeconds == 0 {
		c.Tunables.DelayMaxSeconds = int(defaults.DelayMax.Seconds())
	}
	if c.Tunables.Split == 0 {
		c.Tunables.Split = defaults.Split
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Platform.BaseURL == "" {
		errs = append(errs, "platform.base_url is required")
	}
	if c.Platform.ClientID == "" {
		errs = append(errs, "platform client id is required (platform.client_id or CLIENT_ID)")
	}
	if c.Platform.ClientSecret == "" {
		errs = append(errs, "platform client secret is required (platform.client_secret or CLIENT_SECRET)")
	}
	if c.Store.Driver != "mysql" && c.Store.Driver != "sqlite" {
		errs = append(errs, fmt.Sprintf("store.driver %q is not one of mysql, sqlite", c.Store.Driver))
	}
	if c.Tunables.DelayMaxSeconds <= c.Tunables.DelayMinSeconds {
		errs = append(errs, "tunables.delay_max_seconds must be greater than delay_min_seconds")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ToTunables converts the loaded config into the rankconst.Tunables shape
// consumed by the projection packages.
func (c *Config) ToTunables() rankconst.Tunables {
	return rankconst.Tunables{
		RankInterval:       rankconst.Minute * time.Duration(c.Tunables.RankIntervalMinutes),
		RankPerRun:         c.Tunables.RankPerRun,
		RankPerDay:         c.Tunables.RankPerDay,
		MinimumDaysForRank: c.Tunables.MinimumDaysForRank,
		MaximumPenaltyDays: c.Tunables.MaximumPenaltyDays,
		DelayMin:           rankconst.Second * time.Duration(c.Tunables.DelayMinSeconds),
		DelayMax:           rankconst.Second * time.Duration(c.Tunables.DelayMaxSeconds),
		Split:              c.Tunables.Split,
	}
}
