package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/parking-finder/internal/config"
	"github.com/couchcryptid/parking-finder/internal/domain"
	"github.com/couchcryptid/parking-finder/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces domain events to a Kafka topic.
// It implements domain.EventPublisher.
//
// Writes are asynchronous so a slow broker never delays a parking lookup;
// delivery failures are logged and counted when the batch completes.
type Writer struct {
	writer  *kafkago.Writer
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewWriter creates a Kafka producer for the configured event topic.
func NewWriter(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Writer {
	w := &Writer{logger: logger, metrics: metrics}
	w.writer = &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
		Async:        true,
		Completion:   w.completed,
	}
	return w
}

// Publish enqueues e for delivery.
func (w *Writer) Publish(ctx context.Context, e domain.Event) error {
	msg, err := serializeToMessage(e)
	if err != nil {
		w.metrics.EventPublishErrors.Inc()
		return err
	}
	return w.writer.WriteMessages(ctx, msg)
}

// Close flushes pending messages and closes the producer.
func (w *Writer) Close() error {
	return w.writer.Close()
}

func (w *Writer) completed(msgs []kafkago.Message, err error) {
	if err != nil {
		w.metrics.EventPublishErrors.Add(float64(len(msgs)))
		w.logger.Warn("kafka event delivery failed", "messages", len(msgs), "error", err)
		return
	}
	w.metrics.EventsPublished.Add(float64(len(msgs)))
}

// serializeToMessage marshals an Event into a Kafka message keyed by session
// so one session's events stay ordered on a partition.
func serializeToMessage(e domain.Event) (kafkago.Message, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize %s event: %w", e.Type, err)
	}
	key := e.SessionID
	if key == "" {
		key = e.Location.String()
	}
	return kafkago.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(e.Type)},
			{Key: "occurred_at", Value: []byte(e.OccurredAt.Format(time.RFC3339))},
		},
	}, nil
}
