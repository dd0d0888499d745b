package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const fullYAML = `
platform:
  base_url: https://osu.ppy.sh/api/v2
  client_id: "1234"
  client_secret: s3cret

store:
  driver: mysql
  dsn: user:pass@tcp(127.0.0.1:3306)/rankdate

refresh:
  cron: "*/20 * * * *"
  max_event_pages: 50
  event_page_size: 25

tunables:
  rank_interval_minutes: 20
  rank_per_run: 3
  rank_per_day: 8
  minimum_days_for_rank: 7
  maximum_penalty_days: 28
  delay_min_seconds: 5
  delay_max_seconds: 300
  split: 0.5

notify:
  slack_token: xoxb-abc
  slack_channel: "#rank-alerts"
`

const minimalYAML = `
platform:
  base_url: https://osu.ppy.sh/api/v2
  client_id: "1234"
  client_secret: s3cret
`

func TestParse_FullConfig(t *testing.T) {
	cfg, err := Parse([]byte(fullYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Platform.BaseURL != "https://osu.ppy.sh/api/v2" {
		t.Errorf("Platform.BaseURL = %q", cfg.Platform.BaseURL)
	}
	if cfg.Store.Driver != "mysql" {
		t.Errorf("Store.Driver = %q, want mysql", cfg.Store.Driver)
	}
	if cfg.Refresh.MaxEventPages != 50 {
		t.Errorf("Refresh.MaxEventPages = %d, want 50", cfg.Refresh.MaxEventPages)
	}
	if cfg.Refresh.EventPageSize != 25 {
		t.Errorf("Refresh.EventPageSize = %d, want 25", cfg.Refresh.EventPageSize)
	}
	if cfg.Tunables.RankPerDay != 8 {
		t.Errorf("Tunables.RankPerDay = %d, want 8", cfg.Tunables.RankPerDay)
	}
	if cfg.Notify.SlackChannel != "#rank-alerts" {
		t.Errorf("Notify.SlackChannel = %q", cfg.Notify.SlackChannel)
	}

	tun := cfg.ToTunables()
	if tun.RankInterval.Minutes() != 20 {
		t.Errorf("ToTunables().RankInterval = %v, want 20m", tun.RankInterval)
	}
}

func TestParse_MinimalConfig_AppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Store.Driver != "sqlite" {
		t.Errorf("Store.Driver = %q, want sqlite (default)", cfg.Store.Driver)
	}
	if cfg.Store.DSN != "rankdate.db" {
		t.Errorf("Store.DSN = %q, want rankdate.db (default)", cfg.Store.DSN)
	}
	if cfg.Refresh.Cron != "*/20 * * * *" {
		t.Errorf("Refresh.Cron = %q, want default", cfg.Refresh.Cron)
	}
	if cfg.Refresh.EventPageSize != 50 {
		t.Errorf("Refresh.EventPageSize = %d, want 50 (default)", cfg.Refresh.EventPageSize)
	}
	if cfg.Tunables.RankPerDay != 8 {
		t.Errorf("Tunables.RankPerDay = %d, want 8 (default)", cfg.Tunables.RankPerDay)
	}
	if cfg.Tunables.Split != 0.5 {
		t.Errorf("Tunables.Split = %v, want 0.5 (default)", cfg.Tunables.Split)
	}
}

func TestParse_ExplicitStoreDSN_NotOverridden(t *testing.T) {
	yaml := `
platform:
  base_url: https://osu.ppy.sh/api/v2
  client_id: "1"
  client_secret: s
store:
  driver: sqlite
  dsn: custom.db
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Store.DSN != "custom.db" {
		t.Errorf("Store.DSN = %q, want custom.db (should not be overridden)", cfg.Store.DSN)
	}
}

func TestParse_MissingBaseURL(t *testing.T) {
	yaml := `
platform:
  client_id: "1"
  client_secret: s
`
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("expected error for missing base_url")
	}
	if !strings.Contains(err.Error(), "platform.base_url is required") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "platform.base_url is required")
	}
}

func TestParse_MissingClientCredentials(t *testing.T) {
	yaml := `
platform:
  base_url: https://osu.ppy.sh/api/v2
`
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("expected error for missing credentials")
	}
	msg := err.Error()
	if !strings.Contains(msg, "client id is required") {
		t.Errorf("error missing client id message: %s", msg)
	}
	if !strings.Contains(msg, "client secret is required") {
		t.Errorf("error missing client secret message: %s", msg)
	}
}

func TestParse_InvalidStoreDriver(t *testing.T) {
	yaml := `
platform:
  base_url: https://osu.ppy.sh/api/v2
  client_id: "1"
  client_secret: s
store:
  driver: postgres
`
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("expected error for invalid store driver")
	}
	if !strings.Contains(err.Error(), "store.driver") {
		t.Errorf("error = %q, want to mention store.driver", err.Error())
	}
}

func TestParse_DelayMaxMustExceedDelayMin(t *testing.T) {
	yaml := `
platform:
  base_url: https://osu.ppy.sh/api/v2
  client_id: "1"
  client_secret: s
tunables:
  delay_min_seconds: 300
  delay_max_seconds: 300
`
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("expected error for delay_max_seconds <= delay_min_seconds")
	}
	if !strings.Contains(err.Error(), "delay_max_seconds must be greater") {
		t.Errorf("error = %q, want delay ordering message", err.Error())
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte(":::invalid"))
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
	if !strings.Contains(err.Error(), "config: parse:") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "config: parse:")
	}
}

func TestParse_ClientIDFromEnv(t *testing.T) {
	t.Setenv("CLIENT_ID", "env-id")
	t.Setenv("CLIENT_SECRET", "env-secret")

	yaml := `
platform:
  base_url: https://osu.ppy.sh/api/v2
  client_id: yaml-id
  client_secret: yaml-secret
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Platform.ClientID != "env-id" {
		t.Errorf("Platform.ClientID = %q, want env override", cfg.Platform.ClientID)
	}
	if cfg.Platform.ClientSecret != "env-secret" {
		t.Errorf("Platform.ClientSecret = %q, want env override", cfg.Platform.ClientSecret)
	}
}

func TestLoad_ValidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(minimalYAML), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Platform.ClientID != "1234" {
		t.Errorf("Platform.ClientID = %q, want 1234", cfg.Platform.ClientID)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "config: read") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "config: read")
	}
}
