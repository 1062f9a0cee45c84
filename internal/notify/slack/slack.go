// Package slack posts sprint notifications to a Slack incoming webhook.
package slack

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	slackapi "github.com/slack-go/slack"
	"github.com/zulandar/aegis/internal/notify"
)

// maxRetries is the max number of retries for rate-limited posts.
const maxRetries = 3

// postFunc matches slackapi.PostWebhookContext, enabling test mocks.
type postFunc func(ctx context.Context, url string, msg *slackapi.WebhookMessage) error

// Notifier implements notify.Notifier for a Slack webhook.
type Notifier struct {
	webhookURL string
	channel    string
	post       postFunc
}

// Opts holds parameters for creating a Slack Notifier.
type Opts struct {
	WebhookURL string
	Channel    string // optional channel override
	// For testing: inject a poster instead of the real webhook call.
	Post postFunc
}

// New creates a Slack Notifier.
func New(opts Opts) (*Notifier, error) {
	if opts.WebhookURL == "" {
		return nil, fmt.Errorf("slack: webhook url is required")
	}
	post := opts.Post
	if post == nil {
		post = slackapi.PostWebhookContext
	}
	return &Notifier{webhookURL: opts.WebhookURL, channel: opts.Channel, post: post}, nil
}

// SprintCompleted implements notify.Notifier.
func (n *Notifier) SprintCompleted(ctx context.Context, evt notify.SprintEvent) error {
	msg := buildWebhookMessage(n.channel, notify.FormatSprintCompleted(evt))
	err := retryOnRateLimit(ctx, func() error {
		return n.post(ctx, n.webhookURL, msg)
	})
	if err != nil {
		return fmt.Errorf("slack: post: %w", err)
	}
	return nil
}

func buildWebhookMessage(channel string, m notify.Message) *slackapi.WebhookMessage {
	att := slackapi.Attachment{
		Title:    m.Title,
		Text:     m.Body,
		Color:    m.Color,
		Fallback: m.Title,
	}
	for _, f := range m.Fields {
		att.Fields = append(att.Fields, slackapi.AttachmentField{
			Title: f.Name,
			Value: f.Value,
			Short: f.Short,
		})
	}
	return &slackapi.WebhookMessage{
		Channel:     channel,
		Text:        m.Title,
		Attachments: []slackapi.Attachment{att},
	}
}

// retryOnRateLimit calls fn and retries with backoff on Slack rate limit errors.
// It respects context cancellation and the RetryAfter duration from Slack.
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
			wait = time.Duration(math.Pow(2, float64(attempt))) * time.Second
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil // unreachable
}
