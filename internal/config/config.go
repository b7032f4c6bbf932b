// Package config loads client settings from an optional YAML file and
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every client setting. VetoGrace is how much sooner than
// VetoTimeout a target's prompt closes, so its answer reaches the initiator
// while the window is still open.
type Config struct {
	ServerURL string `yaml:"server_url"`
	Room      string `yaml:"room"`
	PlayerID  string `yaml:"player_id"`
	DBPath    string `yaml:"db_path"`

	VetoTimeout       time.Duration `yaml:"veto_timeout"`
	VetoGrace         time.Duration `yaml:"veto_grace"`
	SettlementTimeout time.Duration `yaml:"settlement_timeout"`
	DialogTimeout     time.Duration `yaml:"dialog_timeout"`
	SendQueue         int           `yaml:"send_queue"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		ServerURL:         "ws://localhost:8080/ws",
		DBPath:            "dealclient.db",
		VetoTimeout:       30 * time.Second,
		VetoGrace:         5 * time.Second,
		SettlementTimeout: 90 * time.Second,
		DialogTimeout:     60 * time.Second,
		SendQueue:         64,
		LogLevel:          "info",
		LogFormat:         "text",
	}
}

// Load reads path over the defaults and applies environment overrides.
// An empty path skips the file.
func Load(path string) (Config, error) {
	c := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return c, err
		}
		if err := yaml.Unmarshal(raw, &c); err != nil {
			return c, fmt.Errorf("%s: %w", path, err)
		}
	}
	c.applyEnv(os.Getenv)
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	for key, dst := range map[string]*string{
		"DEAL_SERVER_URL": &c.ServerURL,
		"DEAL_ROOM":       &c.Room,
		"DEAL_PLAYER":     &c.PlayerID,
		"DB_PATH":         &c.DBPath,
		"LOG_LEVEL":       &c.LogLevel,
	} {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
}

// Validate reports every missing or out-of-range setting.
func (c Config) Validate() error {
	var errs []error
	if !strings.HasPrefix(c.ServerURL, "ws://") && !strings.HasPrefix(c.ServerURL, "wss://") {
		errs = append(errs, fmt.Errorf("server_url %q must be a ws:// or wss:// URL", c.ServerURL))
	}
	if c.Room == "" {
		errs = append(errs, errors.New("room is required"))
	}
	if c.PlayerID == "" {
		errs = append(errs, errors.New("player_id is required"))
	}
	for name, d := range map[string]time.Duration{
		"veto_timeout":       c.VetoTimeout,
		"veto_grace":         c.VetoGrace,
		"settlement_timeout": c.SettlementTimeout,
		"dialog_timeout":     c.DialogTimeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}
	if c.VetoGrace >= c.VetoTimeout {
		errs = append(errs, fmt.Errorf("veto_grace %v must be shorter than veto_timeout %v", c.VetoGrace, c.VetoTimeout))
	}
	if c.SendQueue < 1 {
		errs = append(errs, errors.New("send_queue must be at least 1"))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format %q must be text or json", c.LogFormat))
	}
	return errors.Join(errs...)
}
