package notify

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/bwmarrin/discordgo"
)

// discordSession abstracts the discordgo.Session methods we use, enabling
// test mocks.
type discordSession interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordNotifier posts Events to a single Discord channel as embeds.
type DiscordNotifier struct {
	session   discordSession
	channelID string
}

// DiscordOpts configures a DiscordNotifier. Session is injectable for
// tests; production callers leave it nil and supply BotToken.
type DiscordOpts struct {
	BotToken  string
	ChannelID string
	Session   discordSession
}

// NewDiscord builds a DiscordNotifier. BotToken is required unless a test
// Session is injected.
func NewDiscord(opts DiscordOpts) (*DiscordNotifier, error) {
	if opts.Session == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("notify: discord bot token is required")
	}
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("notify: discord channel id is required")
	}
	session := opts.Session
	if session == nil {
		dg, err := discordgo.New("Bot " + opts.BotToken)
		if err != nil {
			return nil, fmt.Errorf("notify: create discord session: %w", err)
		}
		session = dg
	}
	return &DiscordNotifier{session: session, channelID: opts.ChannelID}, nil
}

func (d *DiscordNotifier) Send(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}
	data := buildMessageSend(events)
	err := retryOnDiscordRateLimit(ctx, func() error {
		_, sendErr := d.session.ChannelMessageSendComplex(d.channelID, data)
		return sendErr
	})
	if err != nil {
		return fmt.Errorf("notify: discord send: %w", err)
	}
	return nil
}

func buildMessageSend(events []Event) *discordgo.MessageSend {
	data := &discordgo.MessageSend{}
	for _, evt := range events {
		data.Embeds = append(data.Embeds, eventToEmbed(evt))
	}
	return data
}

func eventToEmbed(evt Event) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       evt.Title,
		Description: evt.Body,
	}
	for _, f := range evt.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Short,
		})
	}
	return embed
}

// retryOnDiscordRateLimit calls fn and retries with exponential backoff on
// Discord rate limit responses. It respects context cancellation.
func retryOnDiscordRateLimit(ctx context.Context, fn func() error) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		restErr, ok := err.(*discordgo.RESTError)
		if !ok || restErr.Response == nil || restErr.Response.StatusCode != 429 {
			return err
		}

		if attempt == maxRetries {
			return err
		}

		wait := time.Duration(math.Pow(2, float64(attempt))) * baseBackoff
		if wait > maxBackoff {
			wait = maxBackoff
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil // unreachable
}
