package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/restaurant-weather-etl/internal/domain"
)

// batchSize bounds the number of messages per WriteMessages call.
const batchSize = 500

// Writer publishes enriched rows to a Kafka topic.
// It implements pipeline.Sink.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

func (w *Writer) Name() string { return "kafka" }

// Write serializes and publishes rows in batches. Rows with the same id land
// on the same partition.
func (w *Writer) Write(ctx context.Context, rows []domain.EnrichedRecord) error {
	if len(rows) == 0 {
		return nil
	}
	processedAt := domain.Now()

	for start := 0; start < len(rows); start += batchSize {
		end := min(start+batchSize, len(rows))
		msgs := make([]kafkago.Message, 0, end-start)
		for i := start; i < end; i++ {
			msg, err := serializeToMessage(rows[i], processedAt)
			if err != nil {
				return err
			}
			msgs = append(msgs, msg)
		}
		if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
			return fmt.Errorf("publish enriched rows: %w", err)
		}
	}

	w.logger.Info("enriched rows published", "topic", w.writer.Topic, "rows", len(rows))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an EnrichedRecord into a Kafka message keyed by
// restaurant id.
func serializeToMessage(row domain.EnrichedRecord, processedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize enriched row %s: %w", row.ID, err)
	}
	geohash := ""
	if row.Geohash != nil {
		geohash = *row.Geohash
	}
	return kafkago.Message{
		Key:   []byte(row.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "geohash", Value: []byte(geohash)},
			{Key: "processed_at", Value: []byte(processedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
