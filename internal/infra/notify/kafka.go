package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"petcare-booking/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes booking events keyed by booking id, so every event of
// one booking lands on the same partition in order.
type KafkaSink struct {
	writer messageWriter
	logger *slog.Logger
}

type KafkaConfig struct {
	Brokers      string
	Topic        string
	WriteTimeout time.Duration
}

func NewKafkaSink(cfg KafkaConfig, logger *slog.Logger) *KafkaSink {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(SplitBrokers(cfg.Brokers)...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		Async:                  true,
		WriteTimeout:           cfg.WriteTimeout,
		AllowAutoTopicCreation: true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("booking events not delivered", "count", len(messages), "error", err)
			}
		},
	}
	return newKafkaSink(w, logger)
}

func newKafkaSink(w messageWriter, logger *slog.Logger) *KafkaSink {
	return &KafkaSink{writer: w, logger: logger}
}

func (s *KafkaSink) Publish(ctx context.Context, event shared.BookingEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("failed to encode booking event", "type", string(event.Type), "error", err)
		return
	}
	msg := kafka.Message{
		Key:   []byte(event.BookingID.String()),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(uuid.NewString())},
			{Key: "event_type", Value: []byte(event.Type)},
		},
		Time: event.OccurredAt,
	}
	// the writer is async, so this only enqueues
	if err := s.writer.WriteMessages(context.WithoutCancel(ctx), msg); err != nil {
		s.logger.Error("failed to enqueue booking event",
			"type", string(event.Type),
			"booking_id", event.BookingID.String(),
			"error", err)
	}
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}

// LogSink records events in the application log when no broker is configured.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Publish(_ context.Context, event shared.BookingEvent) {
	s.logger.Info("booking event",
		"type", string(event.Type),
		"booking_id", event.BookingID.String(),
		"status", string(event.Status),
		"scheduled_date", event.ScheduledDate,
		"start_time", event.StartTime)
}

func SplitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

var (
	_ shared.NotificationSink = (*KafkaSink)(nil)
	_ shared.NotificationSink = (*LogSink)(nil)
)
