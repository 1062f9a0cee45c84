// Package config provides YAML-based configuration loading for Aegis.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config is the top-level Aegis configuration, loaded from aegis.yaml.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Notify    NotifyConfig    `yaml:"notify"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port           int      `yaml:"port"`
	Mode           string   `yaml:"mode"` // debug, release, test
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DatabaseConfig selects and addresses the entity store.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // sqlite or mysql
	Path     string `yaml:"path"`   // sqlite file path
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	LogLevel string `yaml:"log_level"` // silent, error, warn, info
}

// AuthConfig holds bearer-token signing settings.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// NotifyConfig holds sprint-completion notification targets. Empty targets are disabled.
type NotifyConfig struct {
	Slack   SlackConfig   `yaml:"slack"`
	Discord DiscordConfig `yaml:"discord"`
}

// SlackConfig targets a Slack incoming webhook.
type SlackConfig struct {
	WebhookURL string `yaml:"webhook_url"`
	Channel    string `yaml:"channel"`
}

// DiscordConfig targets a Discord channel through a bot token.
type DiscordConfig struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

// ReconcileConfig schedules the link repair pass. An empty schedule disables it.
type ReconcileConfig struct {
	Schedule string `yaml:"schedule"`
}

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Load reads a YAML config file from path and returns a validated Config.
// A missing file is treated as empty so defaults and environment apply.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
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
	cfg.applyEnv(os.Getenv)
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		c.Database.Path = "aegis.db"
	}
	if c.Database.Driver == "mysql" {
		if c.Database.Port == 0 {
			c.Database.Port = 3306
		}
		if c.Database.User == "" {
			c.Database.User = "root"
		}
	}
	if c.Database.LogLevel == "" {
		c.Database.LogLevel = "silent"
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = time.Hour
	}
}

// applyEnv overrides file values with environment variables when set.
func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := getenv("ALLOWED_ORIGINS"); v != "" {
		for _, origin := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				c.Server.AllowedOrigins = append(c.Server.AllowedOrigins, trimmed)
			}
		}
	}
	if v := getenv("AEGIS_DB_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := getenv("AEGIS_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := getenv("AEGIS_DB_HOST"); v != "" {
		c.Database.Host = v
	}
	if v := getenv("AEGIS_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Database.Port = port
		}
	}
	if v := getenv("AEGIS_DB_USER"); v != "" {
		c.Database.User = v
	}
	if v := getenv("AEGIS_DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := getenv("AEGIS_DB_NAME"); v != "" {
		c.Database.Name = v
	}
	if v := getenv("SLACK_WEBHOOK_URL"); v != "" {
		c.Notify.Slack.WebhookURL = v
	}
	if v := getenv("DISCORD_BOT_TOKEN"); v != "" {
		c.Notify.Discord.BotToken = v
	}
	if v := getenv("DISCORD_CHANNEL_ID"); v != "" {
		c.Notify.Discord.ChannelID = v
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		errs = append(errs, fmt.Sprintf("server.mode %q must be debug, release or test", c.Server.Mode))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, "auth.jwt_secret is required")
	}
	if c.Auth.TokenTTL < 0 {
		errs = append(errs, "auth.token_ttl must be positive")
	}
	switch c.Database.Driver {
	case "sqlite":
	case "mysql":
		if c.Database.Host == "" {
			errs = append(errs, "database.host is required for mysql")
		}
		if c.Database.Name == "" {
			errs = append(errs, "database.name is required for mysql")
		}
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q must be sqlite or mysql", c.Database.Driver))
	}
	switch c.Database.LogLevel {
	case "silent", "error", "warn", "info":
	default:
		errs = append(errs, fmt.Sprintf("database.log_level %q must be silent, error, warn or info", c.Database.LogLevel))
	}
	if (c.Notify.Discord.BotToken == "") != (c.Notify.Discord.ChannelID == "") {
		errs = append(errs, "notify.discord needs both bot_token and channel_id")
	}
	if c.Reconcile.Schedule != "" {
		if _, err := cronParser.Parse(c.Reconcile.Schedule); err != nil {
			errs = append(errs, fmt.Sprintf("reconcile.schedule %q: %v", c.Reconcile.Schedule, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
