package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/certhub/admin-gateway/internal/events"
)

// EventPublisher forwards events to an external broker.
type EventPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// NotificationService logs domain events and forwards them to the broker when one is configured.
type NotificationService struct {
	dispatcher events.Dispatcher
	publisher  EventPublisher
	logger     *zap.Logger
}

// NewNotificationService creates the service. publisher may be nil.
func NewNotificationService(dispatcher events.Dispatcher, publisher EventPublisher, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		publisher:  publisher,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for _, eventType := range []events.EventType{
		events.EventUserCreated,
		events.EventUserToggled,
		events.EventEnrollmentCreated,
		events.EventEnrollmentUpdated,
		events.EventEnrollmentDeleted,
	} {
		n.dispatcher.Subscribe(eventType, n.handle)
	}
}

func (n *NotificationService) handle(ctx context.Context, event events.Event) error {
	n.logger.Info(string(event.Type),
		zap.String("event_id", event.ID),
		zap.String("subject_id", event.SubjectID),
		zap.String("actor_uid", event.ActorUID),
		zap.Any("payload", event.Payload))

	if n.publisher == nil {
		return nil
	}
	return n.publisher.PublishJSON(ctx, string(event.Type), event)
}
