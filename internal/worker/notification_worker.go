package worker

import (
	"go.uber.org/zap"

	"github.com/certhub/admin-gateway/internal/config"
	"github.com/certhub/admin-gateway/internal/events"
	"github.com/certhub/admin-gateway/internal/mq"
	"github.com/certhub/admin-gateway/internal/service"
)

// StartNotificationWorker registers notification handlers on the dispatcher.
// When AMQP is configured events are also forwarded to the broker; an
// unreachable broker only disables forwarding. The returned func releases the
// broker connection.
func StartNotificationWorker(cfg config.AMQPConfig, dispatcher events.Dispatcher, logger *zap.Logger) func() {
	var publisher service.EventPublisher
	closer := func() {}

	if cfg.URL != "" {
		p, err := mq.NewPublisher(cfg.URL, cfg.Exchange)
		if err != nil {
			logger.Warn("event forwarding disabled", zap.Error(err))
		} else {
			logger.Info("forwarding events to rabbitmq", zap.String("exchange", cfg.Exchange))
			publisher = p
			closer = func() { _ = p.Close() }
		}
	}

	service.NewNotificationService(dispatcher, publisher, logger).RegisterHandlers()
	return closer
}
