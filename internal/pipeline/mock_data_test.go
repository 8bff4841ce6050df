package pipeline_test

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/fire-incident-analytics/internal/adapter/chart"
	"github.com/couchcryptid/fire-incident-analytics/internal/adapter/parquet"
	"github.com/couchcryptid/fire-incident-analytics/internal/config"
	"github.com/couchcryptid/fire-incident-analytics/internal/mockdata"
	"github.com/couchcryptid/fire-incident-analytics/internal/observability"
	"github.com/couchcryptid/fire-incident-analytics/internal/pipeline"
	"github.com/couchcryptid/fire-incident-analytics/internal/report"
)

// TestPipeline_WithMockData runs every stage over the generated fixture that
// cmd/genmock writes to SQLite, using the real chart and parquet adapters.
func TestPipeline_WithMockData(t *testing.T) {
	ds, err := mockdata.Generate(mockdata.DefaultOptions())
	require.NoError(t, err)

	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	sinks := pipeline.Sinks{
		Visualizer: chart.NewRenderer(filepath.Join(dir, "plots"), logger),
		Features:   parquet.NewExporter(filepath.Join(dir, "features.parquet"), logger),
	}
	opts := testOptions(config.JoinByKey)
	opts.Forest.NumTrees = 50

	p := pipeline.New(&mockSource{rows: ds.Sensors, incidents: ds.Incidents}, sinks, opts, logger, observability.NewMetrics())
	res, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ds.Defects.Duplicates, res.Clean.Duplicates)
	assert.Equal(t, ds.Defects.OutOfBounds, res.Clean.OutOfBounds)
	assert.Zero(t, res.Clean.Unfilled)
	assert.Equal(t, len(ds.Incidents), res.Join.Joined)
	assert.Zero(t, res.Join.Unmatched)

	assert.Equal(t, 150, res.Model.TestSize)
	assert.Equal(t, 350, res.Model.TrainSize)
	assert.Greater(t, res.Model.Evaluation.Accuracy, 0.6)

	assert.FileExists(t, filepath.Join(dir, "plots", chart.HeatmapFile))
	assert.FileExists(t, filepath.Join(dir, "plots", chart.TimeSeriesFile))
	assert.FileExists(t, filepath.Join(dir, "features.parquet"))

	var out bytes.Buffer
	require.NoError(t, report.WriteAll(&out, res.Model.Evaluation, res.Incidents))
	assert.Contains(t, out.String(), "weighted avg")
	assert.Equal(t, len(ds.Incidents)+1, strings.Count(out.String()[strings.Index(out.String(), "IncidentSeverity"):], "\n"))
}
