// Package notify delivers fire-and-forget pipeline notifications. A failed
// delivery is logged and swallowed; it must never affect a pipeline result.
package notify

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"

	"github.com/secgate-io/secgate/pkg/shared/config"
	"github.com/secgate-io/secgate/pkg/shared/httpclient"
)

// Message is one notification payload.
type Message struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Notifier delivers a notification to a sink.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// WebhookNotifier posts notifications as JSON to a configured webhook URL.
type WebhookNotifier struct {
	client *resty.Client
	url    string
	logger hclog.Logger
}

// NewWebhookNotifier builds a notifier over the configured HTTP client
// settings.
func NewWebhookNotifier(cfg *config.Config, logger hclog.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		client: httpclient.NewRestyClient(logger, cfg),
		url:    cfg.Notify.WebhookURL,
		logger: logger,
	}
}

// Notify posts the message. An unconfigured URL is a silent no-op.
func (n *WebhookNotifier) Notify(ctx context.Context, msg Message) error {
	if n.url == "" {
		n.logger.Debug("no webhook configured, dropping notification", "subject", msg.Subject)
		return nil
	}

	resp, err := n.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(msg).
		Post(n.url)
	if err != nil {
		return fmt.Errorf("failed to deliver notification: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("notification sink responded with %s", resp.Status())
	}

	n.logger.Debug("notification delivered", "subject", msg.Subject)
	return nil
}

// LogNotifier writes notifications to the logger. Used when no webhook sink
// is configured and in tests.
type LogNotifier struct {
	logger hclog.Logger
}

// NewLogNotifier creates a logger-backed notifier.
func NewLogNotifier(logger hclog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, msg Message) error {
	n.logger.Info("notification", "subject", msg.Subject, "body", msg.Body)
	return nil
}
