package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zulandar/aegis/internal/config"
	"github.com/zulandar/aegis/internal/db"
	"github.com/zulandar/aegis/internal/notify"
	"github.com/zulandar/aegis/internal/notify/discord"
	"github.com/zulandar/aegis/internal/notify/slack"
	"gorm.io/gorm"
)

const defaultConfigPath = "aegis.yaml"

func addConfigFlag(cmd *cobra.Command, path *string) {
	cmd.Flags().StringVarP(path, "config", "c", defaultConfigPath, "path to Aegis config file")
}

// connectFromConfig loads the config, opens the store and migrates it.
func connectFromConfig(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to %s store: %w", cfg.Database.Driver, err)
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		db.Close(gormDB)
		return nil, nil, err
	}
	return cfg, gormDB, nil
}

// buildNotifier wires every configured chat target. It returns nil when
// none is configured.
func buildNotifier(cfg config.NotifyConfig) (notify.Notifier, error) {
	var targets notify.Multi
	if cfg.Slack.WebhookURL != "" {
		n, err := slack.New(slack.Opts{WebhookURL: cfg.Slack.WebhookURL, Channel: cfg.Slack.Channel})
		if err != nil {
			return nil, err
		}
		targets = append(targets, n)
	}
	if cfg.Discord.BotToken != "" && cfg.Discord.ChannelID != "" {
		n, err := discord.New(discord.Opts{BotToken: cfg.Discord.BotToken, ChannelID: cfg.Discord.ChannelID})
		if err != nil {
			return nil, err
		}
		targets = append(targets, n)
	}
	switch len(targets) {
	case 0:
		return nil, nil
	case 1:
		return targets[0], nil
	}
	return targets, nil
}
