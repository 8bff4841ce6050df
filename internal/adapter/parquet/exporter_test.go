package parquet

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/reader"

	"github.com/couchcryptid/fire-incident-analytics/internal/domain"
)

func sampleReadings(t *testing.T) []domain.EngineeredReading {
	t.Helper()
	out, err := domain.Engineer([]domain.SensorReading{
		{Timestamp: "2024-01-01 08:00:00", Location: "Zone A", Temperature: 25, SmokeLevel: 2, Key: "INC-1"},
		{Timestamp: "2024-01-06 17:30:00", Location: "Zone B", Temperature: 60, SmokeLevel: 7.5},
	})
	require.NoError(t, err)
	return out
}

func TestExporter_ExportFeatures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "features.parquet")
	readings := sampleReadings(t)

	require.NoError(t, NewExporter(path, slog.Default()).ExportFeatures(context.Background(), readings))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("PAR1")))
	assert.True(t, bytes.HasSuffix(data, []byte("PAR1")))

	pf, err := buffer.NewBufferFile(data)
	require.NoError(t, err)
	pr, err := reader.NewParquetReader(pf, new(featureRow), 1)
	require.NoError(t, err)
	defer pr.ReadStop()

	require.Equal(t, int64(2), pr.GetNumRows())
	rows := make([]featureRow, 2)
	require.NoError(t, pr.Read(&rows))

	assert.Equal(t, toRow(readings[0]), rows[0])
	assert.Equal(t, "Zone B", rows[1].Location)
	assert.InDelta(t, 1.35, rows[1].FireRiskScore, 1e-9)
	assert.Equal(t, int32(17), rows[1].HourOfDay)
	assert.Equal(t, int32(5), rows[1].DayOfWeek)
	assert.Equal(t, time.Date(2024, 1, 6, 17, 30, 0, 0, time.UTC).UnixMilli(), rows[1].ObservedAt)
}

func TestExporter_CancelledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "features.parquet")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewExporter(path, slog.Default()).ExportFeatures(ctx, sampleReadings(t))
	require.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, path)
}
