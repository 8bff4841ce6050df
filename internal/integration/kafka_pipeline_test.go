//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/fire-incident-analytics/internal/adapter/kafka"
	"github.com/couchcryptid/fire-incident-analytics/internal/config"
	"github.com/couchcryptid/fire-incident-analytics/internal/domain"
	"github.com/couchcryptid/fire-incident-analytics/internal/mockdata"
	"github.com/couchcryptid/fire-incident-analytics/internal/observability"
	"github.com/couchcryptid/fire-incident-analytics/internal/pipeline"
)

const testGuidanceTopic = "test-fire-guidance"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node KRaft broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	kc, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("fire-analytics-test"))
	testcontainers.CleanupContainer(t, kc)
	require.NoError(t, err, "start kafka container")

	brokers, err := kc.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	cc, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer cc.Close()

	require.NoError(t, cc.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

type guidanceMessage struct {
	Incident domain.IncidentRecord
	Key      string
	Headers  map[string]string
}

func readGuidance(ctx context.Context, t *testing.T, r *kafkago.Reader) guidanceMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := r.ReadMessage(readCtx)
	require.NoError(t, err, "read from guidance topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var inc domain.IncidentRecord
	require.NoError(t, json.Unmarshal(msg.Value, &inc), "unmarshal guidance message")
	return guidanceMessage{Incident: inc, Key: string(msg.Key), Headers: headers}
}

// TestGuidancePublishedToKafka runs the pipeline over generated data and
// reads the published guidance records back from the broker.
func TestGuidancePublishedToKafka(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	assessedAt := time.Date(2024, time.June, 10, 6, 0, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(assessedAt))
	t.Cleanup(func() { domain.SetClock(nil) })

	broker := startKafka(ctx, t)
	createTopic(t, broker, testGuidanceTopic)

	opts := mockdata.DefaultOptions()
	opts.Readings = 60
	ds, err := mockdata.Generate(opts)
	require.NoError(t, err)

	cfg := &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaGuidanceTopic: testGuidanceTopic,
		JoinStrategy:       config.JoinByKey,
		TestSize:           0.3,
		RandomSeed:         42,
		NumTrees:           20,
		TrainWorkers:       2,
	}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	src := &staticSource{rows: ds.Sensors, incidents: ds.Incidents}
	p := pipeline.New(src, pipeline.Sinks{Guidance: writer}, pipeline.OptionsFromConfig(cfg), discardLogger(), observability.NewMetrics())
	res, err := p.Run(ctx)
	require.NoError(t, err)
	require.Len(t, res.Incidents, len(ds.Incidents))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testGuidanceTopic,
		Partition:   0,
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	for i, want := range res.Incidents {
		got := readGuidance(ctx, t, consumer)
		assert.Equal(t, want.IncidentID, got.Key, "message %d", i)
		assert.Equal(t, want.IncidentID, got.Incident.IncidentID)
		assert.Equal(t, want.Severity, got.Incident.Severity)
		assert.Equal(t, domain.Guidance(want.Severity), got.Incident.Guidance)
		assert.True(t, assessedAt.Equal(got.Incident.AssessedAt))
		assert.Equal(t, strconv.Itoa(want.Severity), got.Headers["severity"])
		assert.Equal(t, assessedAt.Format(time.RFC3339), got.Headers["assessed_at"])
	}
}

type staticSource struct {
	rows      []domain.SensorRow
	incidents []domain.IncidentRecord
}

func (s *staticSource) LoadSensorRows(context.Context) ([]domain.SensorRow, error) {
	return s.rows, nil
}

func (s *staticSource) LoadIncidents(context.Context) ([]domain.IncidentRecord, error) {
	return s.incidents, nil
}
