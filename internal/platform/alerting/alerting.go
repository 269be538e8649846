// Package alerting surfaces operator alerts. The default implementation logs
// with severity markers; deployments route these records to their pager.
package alerting

import (
	"context"
	"log/slog"
)

// Notifier emits operator alerts at two severities. It satisfies the notifier
// ports of both the orders and inventory contexts.
type Notifier struct {
	logger *slog.Logger
}

// NewNotifier builds a log-backed notifier.
func NewNotifier(logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{logger: logger}
}

// Warn emits an operator warning.
func (n *Notifier) Warn(ctx context.Context, message string) {
	n.logger.WarnContext(ctx, message, slog.String("alert", "warning"))
}

// Critical emits an alert that demands immediate operator action, such as an
// exhausted marketplace point balance.
func (n *Notifier) Critical(ctx context.Context, message string) {
	n.logger.ErrorContext(ctx, message, slog.String("alert", "critical"))
}
