package main

import (
	"fmt"

	"github.com/osuqueue/rankdate/internal/config"
	"github.com/osuqueue/rankdate/internal/notify"
	"github.com/osuqueue/rankdate/internal/osuapi"
	"github.com/osuqueue/rankdate/internal/refresh"
	"github.com/osuqueue/rankdate/internal/store"
)

// buildCycle wires a refresh.Cycle from a loaded config: DB connection,
// platform client, and whichever notification backends have credentials
// configured.
func buildCycle(cfg *config.Config) (*refresh.Cycle, error) {
	db, err := store.Connect(cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return nil, fmt.Errorf("rankdate: %w", err)
	}
	if err := store.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("rankdate: %w", err)
	}

	client := osuapi.NewClient(cfg.Platform.BaseURL, cfg.Platform.ClientID, cfg.Platform.ClientSecret,
		cfg.Refresh.EventPageSize, cfg.Refresh.MaxEventPages)

	var notifiers notify.Multi
	if cfg.Notify.SlackToken != "" && cfg.Notify.SlackChannel != "" {
		n, err := notify.NewSlack(notify.SlackOpts{BotToken: cfg.Notify.SlackToken, ChannelID: cfg.Notify.SlackChannel})
		if err != nil {
			return nil, fmt.Errorf("rankdate: %w", err)
		}
		notifiers = append(notifiers, n)
	}
	if cfg.Notify.DiscordToken != "" && cfg.Notify.DiscordChannelID != "" {
		n, err := notify.NewDiscord(notify.DiscordOpts{BotToken: cfg.Notify.DiscordToken, ChannelID: cfg.Notify.DiscordChannelID})
		if err != nil {
			return nil, fmt.Errorf("rankdate: %w", err)
		}
		notifiers = append(notifiers, n)
	}

	var notifier notify.Notifier
	if len(notifiers) > 0 {
		notifier = notifiers
	}

	return &refresh.Cycle{
		DB:       db,
		Platform: client,
		Tunables: cfg.ToTunables(),
		Notifier: notifier,
	}, nil
}
