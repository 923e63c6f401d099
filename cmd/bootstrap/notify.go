package bootstrap

import (
	"context"
	"log/slog"

	"petcare-booking/internal/infra/notify"
	"petcare-booking/internal/pkg/config"
	"petcare-booking/internal/usecase/shared"

	"go.uber.org/fx"
)

var NotifyModule = fx.Module("notify",
	fx.Provide(
		NewNotificationSink,
	),
)

// NewNotificationSink publishes to Kafka when KAFKA_BROKERS is set and only
// logs events otherwise.
func NewNotificationSink(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) shared.NotificationSink {
	if len(notify.SplitBrokers(cfg.Kafka.Brokers)) == 0 {
		logger.Info("kafka not configured, booking events will be logged only")
		return notify.NewLogSink(logger)
	}

	sink := notify.NewKafkaSink(notify.KafkaConfig{
		Brokers:      cfg.Kafka.Brokers,
		Topic:        cfg.Kafka.Topic,
		WriteTimeout: cfg.Kafka.WriteTimeout,
	}, logger)

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return sink.Close()
		},
	})

	return sink
}
