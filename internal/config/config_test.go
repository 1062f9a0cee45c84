package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const fullYAML = `
server:
  port: 8081
  mode: debug
  allowed_origins: ["https://aegis11.vercel.app"]

database:
  driver: mysql
  host: 10.0.0.5
  port: 3307
  user: aegis
  password: s3cret
  name: aegis_prod
  log_level: warn

auth:
  jwt_secret: topsecret
  token_ttl: 2h

notify:
  slack:
    webhook_url: https://hooks.slack.com/services/T/B/X
    channel: "#delivery"
  discord:
    bot_token: abc
    channel_id: "1234"

reconcile:
  schedule: "0 3 * * *"
`

const minimalYAML = `
auth:
  jwt_secret: minimal
`

// clearEnv blanks every variable applyEnv reads so host settings don't leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "JWT_SECRET", "ALLOWED_ORIGINS",
		"AEGIS_DB_DRIVER", "AEGIS_DB_PATH", "AEGIS_DB_HOST", "AEGIS_DB_PORT",
		"AEGIS_DB_USER", "AEGIS_DB_PASSWORD", "AEGIS_DB_NAME",
		"SLACK_WEBHOOK_URL", "DISCORD_BOT_TOKEN", "DISCORD_CHANNEL_ID",
	} {
		t.Setenv(k, "")
	}
}

func TestParse_FullConfig(t *testing.T) {
	clearEnv(t)
	cfg, err := Parse([]byte(fullYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 8081 {
		t.Errorf("Server.Port = %d, want 8081", cfg.Server.Port)
	}
	if cfg.Server.Mode != "debug" {
		t.Errorf("Server.Mode = %q, want debug", cfg.Server.Mode)
	}
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "https://aegis11.vercel.app" {
		t.Errorf("AllowedOrigins = %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Database.Driver != "mysql" || cfg.Database.Host != "10.0.0.5" || cfg.Database.Port != 3307 {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if cfg.Database.Name != "aegis_prod" || cfg.Database.User != "aegis" {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if cfg.Auth.JWTSecret != "topsecret" {
		t.Errorf("JWTSecret = %q, want topsecret", cfg.Auth.JWTSecret)
	}
	if cfg.Auth.TokenTTL != 2*time.Hour {
		t.Errorf("TokenTTL = %v, want 2h", cfg.Auth.TokenTTL)
	}
	if cfg.Notify.Slack.Channel != "#delivery" {
		t.Errorf("Slack.Channel = %q", cfg.Notify.Slack.Channel)
	}
	if cfg.Notify.Discord.ChannelID != "1234" {
		t.Errorf("Discord.ChannelID = %q", cfg.Notify.Discord.ChannelID)
	}
	if cfg.Reconcile.Schedule != "0 3 * * *" {
		t.Errorf("Reconcile.Schedule = %q", cfg.Reconcile.Schedule)
	}
}

func TestParse_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 5000 {
		t.Errorf("default port = %d, want 5000", cfg.Server.Port)
	}
	if cfg.Server.Mode != "release" {
		t.Errorf("default mode = %q, want release", cfg.Server.Mode)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("default driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Database.Path != "aegis.db" {
		t.Errorf("default path = %q, want aegis.db", cfg.Database.Path)
	}
	if cfg.Database.LogLevel != "silent" {
		t.Errorf("default log level = %q, want silent", cfg.Database.LogLevel)
	}
	if cfg.Auth.TokenTTL != time.Hour {
		t.Errorf("default token ttl = %v, want 1h", cfg.Auth.TokenTTL)
	}
	if cfg.Reconcile.Schedule != "" {
		t.Errorf("reconcile should be disabled by default, got %q", cfg.Reconcile.Schedule)
	}
}

func TestParse_MySQLDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Parse([]byte(`
auth: {jwt_secret: x}
database: {driver: mysql, host: db, name: aegis}
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.Port != 3306 {
		t.Errorf("mysql default port = %d, want 3306", cfg.Database.Port)
	}
	if cfg.Database.User != "root" {
		t.Errorf("mysql default user = %q, want root", cfg.Database.User)
	}
	if cfg.Database.Path != "" {
		t.Errorf("mysql should not get a sqlite path, got %q", cfg.Database.Path)
	}
}

func TestParse_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test ,")
	t.Setenv("AEGIS_DB_PATH", "/tmp/aegis-test.db")
	t.Setenv("SLACK_WEBHOOK_URL", "https://hooks.slack.com/x")

	cfg, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Auth.JWTSecret != "from-env" {
		t.Errorf("JWTSecret = %q, want from-env", cfg.Auth.JWTSecret)
	}
	if len(cfg.Server.AllowedOrigins) != 2 {
		t.Errorf("AllowedOrigins = %v, want 2 entries", cfg.Server.AllowedOrigins)
	}
	if cfg.Database.Path != "/tmp/aegis-test.db" {
		t.Errorf("Path = %q", cfg.Database.Path)
	}
	if cfg.Notify.Slack.WebhookURL != "https://hooks.slack.com/x" {
		t.Errorf("Slack.WebhookURL = %q", cfg.Notify.Slack.WebhookURL)
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want []string
	}{
		{
			name: "missing secret",
			yaml: `server: {port: 80}`,
			want: []string{"auth.jwt_secret is required"},
		},
		{
			name: "unknown driver",
			yaml: "auth: {jwt_secret: x}\ndatabase: {driver: postgres}",
			want: []string{`database.driver "postgres"`},
		},
		{
			name: "mysql without host or name",
			yaml: "auth: {jwt_secret: x}\ndatabase: {driver: mysql}",
			want: []string{"database.host is required", "database.name is required"},
		},
		{
			name: "bad cron",
			yaml: "auth: {jwt_secret: x}\nreconcile: {schedule: \"every day\"}",
			want: []string{"reconcile.schedule"},
		},
		{
			name: "discord half configured",
			yaml: "auth: {jwt_secret: x}\nnotify: {discord: {bot_token: t}}",
			want: []string{"notify.discord needs both"},
		},
		{
			name: "bad mode and log level",
			yaml: "auth: {jwt_secret: x}\nserver: {mode: loud}\ndatabase: {log_level: chatty}",
			want: []string{"server.mode", "database.log_level"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), "config: validation failed") {
				t.Errorf("error = %q, want validation prefix", err.Error())
			}
			for _, w := range tt.want {
				if !strings.Contains(err.Error(), w) {
					t.Errorf("error = %q, want to contain %q", err.Error(), w)
				}
			}
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	clearEnv(t)
	_, err := Parse([]byte("server: [unclosed"))
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), "config: parse") {
		t.Errorf("error = %q, want config: parse prefix", err.Error())
	}
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "aegis.yaml")
	if err := os.WriteFile(path, []byte(minimalYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Auth.JWTSecret != "minimal" {
		t.Errorf("JWTSecret = %q, want minimal", cfg.Auth.JWTSecret)
	}
}

func TestLoad_MissingFileUsesEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "env-only")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Auth.JWTSecret != "env-only" {
		t.Errorf("JWTSecret = %q, want env-only", cfg.Auth.JWTSecret)
	}
}

func TestLoad_Directory(t *testing.T) {
	clearEnv(t)
	_, err := Load(t.TempDir())
	if err == nil {
		t.Fatal("expected error reading a directory")
	}
	if !strings.Contains(err.Error(), "config: read") {
		t.Errorf("error = %q, want config: read prefix", err.Error())
	}
}
