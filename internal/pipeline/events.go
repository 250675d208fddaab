package pipeline

import (
	"context"
	"log/slog"

	"cutroom/internal/logging"
	"cutroom/internal/notifications"
)

func (p *Pipeline) publish(ctx context.Context, logger *slog.Logger, event notifications.Event, payload notifications.Payload) {
	if p.notifier == nil {
		return
	}
	if err := p.notifier.Publish(context.WithoutCancel(ctx), event, payload); err != nil {
		logger.Debug("notification failed",
			logging.String("event", string(event)),
			logging.Error(err),
		)
	}
}

func (p *Pipeline) flushMetrics(logger *slog.Logger) {
	if err := p.metrics.Flush(); err != nil {
		logging.WarnWithContext(logger, "metrics textfile write failed", "metrics_flush_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check metrics.textfile_path permissions"),
			logging.String(logging.FieldImpact, "exported metrics are stale"),
		)
	}
}
