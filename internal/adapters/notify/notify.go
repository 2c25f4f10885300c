// Package notify holds ports.Notifier implementations. The log notifier is
// the development delivery path; production deployments swap in a provider
// adapter behind the same interface.
package notify

import (
	"context"
	"log/slog"
)

// LogNotifier writes notifications to the structured log instead of
// delivering them.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) SendEmail(ctx context.Context, to, subject, body string) error {
	slog.Info("EMAIL", "to", to, "subject", subject, "body", body)
	return nil
}

func (n *LogNotifier) SendSMS(ctx context.Context, to, body string) error {
	slog.Info("SMS", "to", to, "body", body)
	return nil
}
