package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/certhub/admin-gateway/internal/events"
)

type recordingPublisher struct {
	keys []string
	err  error
}

func (p *recordingPublisher) PublishJSON(_ context.Context, key string, _ any) error {
	p.keys = append(p.keys, key)
	return p.err
}

func TestNotificationServiceForwardsEvents(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	publisher := &recordingPublisher{}
	NewNotificationService(dispatcher, publisher, zap.NewNop()).RegisterHandlers()

	ctx := context.Background()
	require.NoError(t, dispatcher.Publish(ctx, events.Event{Type: events.EventEnrollmentCreated, SubjectID: "ENR_1"}))
	require.NoError(t, dispatcher.Publish(ctx, events.Event{Type: events.EventUserToggled, SubjectID: "u1"}))

	assert.Equal(t, []string{"enrollment.created", "user.toggled"}, publisher.keys)
}

func TestNotificationServiceReportsBrokerFailure(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	publisher := &recordingPublisher{err: errors.New("channel closed")}
	NewNotificationService(dispatcher, publisher, zap.NewNop()).RegisterHandlers()

	err := dispatcher.Publish(context.Background(), events.Event{Type: events.EventEnrollmentDeleted})
	assert.ErrorContains(t, err, "channel closed")
}

func TestNotificationServiceWithoutBroker(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	NewNotificationService(dispatcher, nil, zap.NewNop()).RegisterHandlers()

	assert.NoError(t, dispatcher.Publish(context.Background(), events.Event{Type: events.EventUserCreated}))
}
