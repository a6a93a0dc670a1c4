package events

import (
	"context"
	"log/slog"
)

// SubscribeAuditLog writes every access event to logger as one structured record.
func SubscribeAuditLog(bus *EventBus, logger *slog.Logger) {
	audit := logger.With("component", "audit")
	bus.SubscribeAll(AllAccessEventTypes, func(ctx context.Context, event Event) error {
		attrs := []any{
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"occurred_at", event.OccurredAt(),
		}
		if data, ok := event.Payload().(map[string]interface{}); ok {
			for k, v := range data {
				attrs = append(attrs, k, v)
			}
		}
		audit.InfoContext(ctx, "audit", attrs...)
		return nil
	})
}
