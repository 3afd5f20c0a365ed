package events

import (
	"context"
	"log/slog"
)

// RegisterAuditLog writes every domain event to logger as one audit line,
// tagged with the business it touched when there is one.
func RegisterAuditLog(bus *EventBus, logger *slog.Logger) error {
	return bus.Subscribe(func(_ context.Context, event Event) error {
		attrs := []any{
			"event_type", event.EventType(),
			"event_id", event.EventID(),
			"occurred_at", event.OccurredAt(),
		}
		data := event.Payload()
		if id, ok := data["business_id"]; ok {
			attrs = append(attrs, "business_id", id)
		}
		logger.Info("audit", append(attrs, "data", data)...)
		return nil
	}, AllTypes()...)
}
