package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/fire-incident-analytics/internal/config"
	"github.com/couchcryptid/fire-incident-analytics/internal/domain"
)

// messageWriter is the subset of *kafkago.Writer used by Writer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes guidance records to a Kafka topic.
// It implements pipeline.GuidanceLoader.
type Writer struct {
	writer messageWriter
	topic  string
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured guidance topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaGuidanceTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, topic: cfg.KafkaGuidanceTopic, logger: logger}
}

// LoadGuidance serializes and publishes all incidents in a single
// WriteMessages call. Messages are keyed by incident ID so that updates for
// one incident land on one partition.
func (w *Writer) LoadGuidance(ctx context.Context, incidents []domain.IncidentRecord) error {
	if len(incidents) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(incidents))
	for i := range incidents {
		msg, err := serializeToMessage(incidents[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish guidance: %w", err)
	}
	w.logger.Info("guidance published", "topic", w.topic, "messages", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an IncidentRecord into a Kafka message.
func serializeToMessage(inc domain.IncidentRecord) (kafkago.Message, error) {
	data, err := json.Marshal(inc)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize incident %s: %w", inc.IncidentID, err)
	}
	return kafkago.Message{
		Key:   []byte(inc.IncidentID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "severity", Value: []byte(strconv.Itoa(inc.Severity))},
			{Key: "assessed_at", Value: []byte(inc.AssessedAt.Format(time.RFC3339))},
		},
	}, nil
}
