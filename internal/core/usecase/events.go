package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/kirillkom/shop-verification/internal/core/domain"
	"github.com/kirillkom/shop-verification/internal/core/ports"
)

// EventFanout publishes every event to all configured publishers.
type EventFanout struct {
	publishers []ports.EventPublisher
}

func NewEventFanout(publishers ...ports.EventPublisher) *EventFanout {
	out := make([]ports.EventPublisher, 0, len(publishers))
	for _, p := range publishers {
		if p != nil {
			out = append(out, p)
		}
	}
	return &EventFanout{publishers: out}
}

func (f *EventFanout) Publish(ctx context.Context, event domain.Event) error {
	var errs []error
	for _, p := range f.publishers {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// announce publishes an event for a change that is already committed.
// A publish failure does not undo the change, so it is logged instead of returned.
func announce(ctx context.Context, publisher ports.EventPublisher, event domain.Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		slog.Warn("event_publish_failed",
			"event_type", string(event.Type),
			"shop_id", event.ShopID,
			"document_id", event.DocumentID,
			"error", err,
		)
	}
}
