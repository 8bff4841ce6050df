// Package parquet exports engineered readings to a Parquet file for offline analysis.
package parquet

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	pq "github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/couchcryptid/fire-incident-analytics/internal/domain"
)

// featureRow is the on-disk schema, one row per engineered reading.
type featureRow struct {
	Timestamp     string  `parquet:"name=timestamp,type=BYTE_ARRAY,convertedtype=UTF8"`
	ObservedAt    int64   `parquet:"name=observed_at,type=INT64,convertedtype=TIMESTAMP_MILLIS"`
	Location      string  `parquet:"name=location,type=BYTE_ARRAY,convertedtype=UTF8"`
	Temperature   float64 `parquet:"name=temperature,type=DOUBLE"`
	SmokeLevel    float64 `parquet:"name=smoke_level,type=DOUBLE"`
	FireRiskScore float64 `parquet:"name=fire_risk_score,type=DOUBLE"`
	HourOfDay     int32   `parquet:"name=hour_of_day,type=INT32"`
	DayOfWeek     int32   `parquet:"name=day_of_week,type=INT32"`
	Key           string  `parquet:"name=join_key,type=BYTE_ARRAY,convertedtype=UTF8"`
}

func toRow(r domain.EngineeredReading) featureRow {
	return featureRow{
		Timestamp:     r.Timestamp,
		ObservedAt:    r.Time.UnixMilli(),
		Location:      r.Location,
		Temperature:   r.Temperature,
		SmokeLevel:    r.SmokeLevel,
		FireRiskScore: r.FireRiskScore,
		HourOfDay:     int32(r.HourOfDay),
		DayOfWeek:     int32(r.DayOfWeek),
		Key:           r.Key,
	}
}

// Exporter writes engineered readings to a single SNAPPY-compressed file.
// It implements pipeline.FeatureExporter.
type Exporter struct {
	path   string
	logger *slog.Logger
}

// NewExporter creates an Exporter that replaces path on every export.
func NewExporter(path string, logger *slog.Logger) *Exporter {
	return &Exporter{path: path, logger: logger}
}

// ExportFeatures encodes the readings in memory and writes the file in one step,
// so a failed export never leaves a truncated file behind.
func (e *Exporter) ExportFeatures(ctx context.Context, readings []domain.EngineeredReading) error {
	data, err := encode(ctx, readings)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(e.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create export dir: %w", err)
		}
	}
	if err := os.WriteFile(e.path, data, 0o644); err != nil {
		return fmt.Errorf("write parquet file: %w", err)
	}
	e.logger.Info("features exported", "path", e.path, "rows", len(readings), "bytes", len(data))
	return nil
}

func encode(ctx context.Context, readings []domain.EngineeredReading) (_ []byte, err error) {
	buf := new(bytes.Buffer)
	pw, err := writer.NewParquetWriterFromWriter(buf, new(featureRow), 1)
	if err != nil {
		return nil, fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = pq.CompressionCodec_SNAPPY

	for i, r := range readings {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := pw.Write(toRow(r)); err != nil {
			return nil, fmt.Errorf("write parquet row %d: %w", i, err)
		}
	}

	// WriteStop can panic on malformed schemas; surface that as an error.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parquet writer panicked during WriteStop: %v", r)
		}
	}()
	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("finalize parquet file: %w", err)
	}
	return buf.Bytes(), nil
}
