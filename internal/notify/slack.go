package notify

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	slackapi "github.com/slack-go/slack"
)

const (
	maxRetries  = 3
	baseBackoff = 2 * time.Second
	maxBackoff  = 2 * time.Minute
)

// slackClient abstracts the Slack API methods we use, enabling test mocks.
type slackClient interface {
	PostMessage(channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// SlackNotifier posts Events to a single Slack channel as message
// attachments.
type SlackNotifier struct {
	client    slackClient
	channelID string
}

// SlackOpts configures a SlackNotifier. Client is injectable for tests;
// production callers leave it nil and supply BotToken.
type SlackOpts struct {
	BotToken  string
	ChannelID string
	Client    slackClient
}

// NewSlack builds a SlackNotifier. BotToken is required unless a test
// Client is injected.
func NewSlack(opts SlackOpts) (*SlackNotifier, error) {
	if opts.Client == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("notify: slack bot token is required")
	}
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("notify: slack channel id is required")
	}
	client := opts.Client
	if client == nil {
		client = slackapi.New(opts.BotToken)
	}
	return &SlackNotifier{client: client, channelID: opts.ChannelID}, nil
}

func (s *SlackNotifier) Send(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}
	opts := buildMessageOptions(events)
	err := retryOnRateLimit(ctx, func() error {
		_, _, sendErr := s.client.PostMessage(s.channelID, opts...)
		return sendErr
	})
	if err != nil {
		return fmt.Errorf("notify: slack send: %w", err)
	}
	return nil
}

func buildMessageOptions(events []Event) []slackapi.MsgOption {
	attachments := make([]slackapi.Attachment, 0, len(events))
	for _, evt := range events {
		attachments = append(attachments, eventToAttachment(evt))
	}
	return []slackapi.MsgOption{slackapi.MsgOptionAttachments(attachments...)}
}

func eventToAttachment(evt Event) slackapi.Attachment {
	a := slackapi.Attachment{
		Title: evt.Title,
		Text:  evt.Body,
	}
	for _, f := range evt.Fields {
		a.Fields = append(a.Fields, slackapi.AttachmentField{
			Title: f.Name,
			Value: f.Value,
			Short: f.Short,
		})
	}
	return a
}

// retryOnRateLimit calls fn and retries with exponential backoff on Slack
// rate limit errors. It respects context cancellation.
func retryOnRateLimit(ctx context.Context, fn func() error) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		var rle *slackapi.RateLimitedError
		if !errors.As(err, &rle) {
			return err
		}

		if attempt == maxRetries {
			return err
		}

		wait := rle.RetryAfter
		if wait <= 0 {
			wait = time.Duration(math.Pow(2, float64(attempt))) * baseBackoff
		}
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
