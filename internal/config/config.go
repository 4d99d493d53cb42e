// filepath: internal/config/config.go
package config

import (
	"fmt"
	"net/mail"
	"path/filepath"
	"strings"
	"time"

	"backuphub/internal/shared"

	"github.com/BurntSushi/toml"
)

// Config holds the application's configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	Logging LoggingConfig `toml:"logging"`
	Toolset ToolsetConfig `toml:"toolset"`
	Monitor MonitorConfig `toml:"monitor"`
	Mail    MailConfig    `toml:"mail"`
	Push    PushConfig    `toml:"push"`

	// Runtime computed values
	ToolsetTimeout time.Duration `toml:"-"`
	StatusInterval time.Duration `toml:"-"`
	UsageInterval  time.Duration `toml:"-"`
	PushTimeout    time.Duration `toml:"-"`
}

// ServerConfig holds the server configuration.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig controls where the repository and user collections live.
type StorageConfig struct {
	DataDir          string `toml:"data_dir"`
	HistoryEnabled   *bool  `toml:"history_enabled"`
	HistoryRetention int    `toml:"history_retention"` // number of dated history files kept
}

// LoggingConfig holds the logging configuration.
type LoggingConfig struct {
	Level        string `toml:"level"`
	File         string `toml:"file"` // empty means stdout
	AuditEnabled bool   `toml:"audit_enabled"`
}

// ToolsetConfig locates the helper scripts of the backup toolset.
type ToolsetConfig struct {
	Dir     string `toml:"dir"`
	Timeout string `toml:"timeout"` // e.g. "10m", "0" disables
}

// MonitorConfig holds the reconciliation schedule.
type MonitorConfig struct {
	Enabled        *bool  `toml:"enabled"`
	StatusInterval string `toml:"status_interval"`
	UsageInterval  string `toml:"usage_interval"`
}

// MailConfig holds the SMTP transport settings for alert e-mails.
type MailConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	From     string `toml:"from"`
	TLS      string `toml:"tls"` // mandatory, opportunistic, none
}

// PushConfig holds settings for the embedded push relay.
type PushConfig struct {
	RelayPath string `toml:"relay_path"`
	Timeout   string `toml:"timeout"`
}

// Defaults
const (
	DefaultHost             = "0.0.0.0"
	DefaultPort             = 3000
	DefaultDataDir          = "data"
	DefaultHistoryRetention = 8
	DefaultToolsetDir       = "/usr/local/lib/backuphub/helpers"
	DefaultToolsetTimeout   = "10m"
	DefaultStatusInterval   = "30m"
	DefaultUsageInterval    = "1h"
	DefaultMailPort         = 587
	DefaultPushTimeout      = "10s"
)

// LoadConfig loads the configuration from a TOML file.
func LoadConfig(path string) (*Config, error) {
	var config Config
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// ParseAndValidate processes configuration strings into runtime values.
// It sets defaults if values are missing and parses human-readable durations.
func (c *Config) ParseAndValidate() error {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	if c.Storage.DataDir == "" {
		c.Storage.DataDir = DefaultDataDir
	}
	if c.Storage.HistoryEnabled == nil {
		enabled := true
		c.Storage.HistoryEnabled = &enabled
	}
	if c.Storage.HistoryRetention == 0 {
		c.Storage.HistoryRetention = DefaultHistoryRetention
	}
	if c.Storage.HistoryRetention < 0 {
		return fmt.Errorf("invalid history_retention: %d", c.Storage.HistoryRetention)
	}

	if c.Toolset.Dir == "" {
		c.Toolset.Dir = DefaultToolsetDir
	}
	c.Toolset.Dir = filepath.Clean(c.Toolset.Dir)

	var err error
	if c.ToolsetTimeout, err = parseDurationDefault(c.Toolset.Timeout, DefaultToolsetTimeout); err != nil {
		return fmt.Errorf("invalid toolset timeout: %w", err)
	}

	if c.Monitor.Enabled == nil {
		enabled := true
		c.Monitor.Enabled = &enabled
	}
	if c.StatusInterval, err = parseDurationDefault(c.Monitor.StatusInterval, DefaultStatusInterval); err != nil {
		return fmt.Errorf("invalid status_interval: %w", err)
	}
	if c.UsageInterval, err = parseDurationDefault(c.Monitor.UsageInterval, DefaultUsageInterval); err != nil {
		return fmt.Errorf("invalid usage_interval: %w", err)
	}

	if c.Mail.Port == 0 {
		c.Mail.Port = DefaultMailPort
	}
	switch strings.ToLower(c.Mail.TLS) {
	case "":
		c.Mail.TLS = "opportunistic"
	case "mandatory", "opportunistic", "none":
		c.Mail.TLS = strings.ToLower(c.Mail.TLS)
	default:
		return fmt.Errorf("invalid mail tls policy: %s", c.Mail.TLS)
	}
	if c.Mail.Host != "" {
		if _, err := mail.ParseAddress(c.Mail.From); err != nil {
			return fmt.Errorf("invalid mail from address %q: %w", c.Mail.From, err)
		}
	}

	if c.PushTimeout, err = parseDurationDefault(c.Push.Timeout, DefaultPushTimeout); err != nil {
		return fmt.Errorf("invalid push timeout: %w", err)
	}

	return nil
}

// MailEnabled reports whether an SMTP transport is configured.
func (c *Config) MailEnabled() bool { return c.Mail.Host != "" }

// HistoryEnabled reports whether collection writes keep a history log.
func (c *Config) HistoryEnabled() bool {
	return c.Storage.HistoryEnabled == nil || *c.Storage.HistoryEnabled
}

// MonitorEnabled reports whether the background reconciliation worker runs.
func (c *Config) MonitorEnabled() bool {
	return c.Monitor.Enabled == nil || *c.Monitor.Enabled
}

func parseDurationDefault(value, fallback string) (time.Duration, error) {
	if value == "" {
		value = fallback
	}
	return shared.ParseDuration(value)
}
