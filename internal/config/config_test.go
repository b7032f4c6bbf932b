package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "client.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.VetoTimeout != 30*time.Second || c.SettlementTimeout != 90*time.Second || c.SendQueue != 64 {
		t.Fatalf("unexpected defaults: %+v", c)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
server_url: wss://deal.example/ws
room: lobby-7
player_id: alice
veto_timeout: 5s
veto_grace: 1s
log_format: json
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.ServerURL != "wss://deal.example/ws" || c.Room != "lobby-7" || c.PlayerID != "alice" {
		t.Fatalf("unexpected config: %+v", c)
	}
	if c.VetoTimeout != 5*time.Second || c.VetoGrace != time.Second {
		t.Fatalf("veto timeout = %v, grace = %v", c.VetoTimeout, c.VetoGrace)
	}
	if c.DialogTimeout != 60*time.Second {
		t.Fatalf("unset fields keep defaults, got %v", c.DialogTimeout)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for a missing file")
	}
	if _, err := Load(writeFile(t, "room: [unclosed")); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

func TestEnvOverrides(t *testing.T) {
	c := Default()
	env := map[string]string{
		"DEAL_SERVER_URL": "ws://other/ws",
		"DEAL_ROOM":       "r2",
		"DEAL_PLAYER":     "bob",
		"LOG_LEVEL":       "debug",
	}
	c.applyEnv(func(k string) string { return env[k] })
	if c.ServerURL != "ws://other/ws" || c.Room != "r2" || c.PlayerID != "bob" || c.LogLevel != "debug" {
		t.Fatalf("overrides not applied: %+v", c)
	}
	if c.DBPath != "dealclient.db" {
		t.Fatalf("unset variables must not clear fields, got %q", c.DBPath)
	}
}

func TestValidate(t *testing.T) {
	valid := Default()
	valid.Room, valid.PlayerID = "r", "p"

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing room", func(c *Config) { c.Room = "" }, "room is required"},
		{"missing player", func(c *Config) { c.PlayerID = "" }, "player_id is required"},
		{"http url", func(c *Config) { c.ServerURL = "http://x" }, "server_url"},
		{"zero veto timeout", func(c *Config) { c.VetoTimeout = 0 }, "veto_timeout"},
		{"zero veto grace", func(c *Config) { c.VetoGrace = 0 }, "veto_grace must be positive"},
		{"grace covers window", func(c *Config) { c.VetoGrace = c.VetoTimeout }, "shorter than veto_timeout"},
		{"empty queue", func(c *Config) { c.SendQueue = 0 }, "send_queue"},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, "log_format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}
