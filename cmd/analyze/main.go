// Command analyze runs the fire-incident analysis once: it loads the sensor
// and incident tables, cleans and engineers the readings, renders charts,
// trains and evaluates the severity classifier, and prints the report with
// response guidance for every incident.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-multierror"

	"github.com/couchcryptid/fire-incident-analytics/internal/adapter/chart"
	kafkaadapter "github.com/couchcryptid/fire-incident-analytics/internal/adapter/kafka"
	"github.com/couchcryptid/fire-incident-analytics/internal/adapter/parquet"
	"github.com/couchcryptid/fire-incident-analytics/internal/adapter/sqlsource"
	"github.com/couchcryptid/fire-incident-analytics/internal/config"
	"github.com/couchcryptid/fire-incident-analytics/internal/observability"
	"github.com/couchcryptid/fire-incident-analytics/internal/pipeline"
	"github.com/couchcryptid/fire-incident-analytics/internal/report"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	if err := run(cfg, logger); err != nil {
		logger.Error("analysis failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics()

	src, err := sqlsource.Open(ctx, cfg.DBDriver, cfg.DBDSN, sqlsource.Options{
		SensorQuery:   cfg.SensorQuery,
		IncidentQuery: cfg.IncidentQuery,
		JoinColumn:    cfg.JoinColumn,
		QueryTimeout:  cfg.QueryTimeout,
	}, logger)
	if err != nil {
		return err
	}

	var closers []func() error
	closers = append(closers, src.Close)
	defer func() {
		var result *multierror.Error
		for _, c := range closers {
			if cerr := c(); cerr != nil {
				result = multierror.Append(result, cerr)
			}
		}
		if cerr := result.ErrorOrNil(); cerr != nil {
			logger.Error("close resources", "error", cerr)
			err = multierror.Append(err, cerr)
		}
	}()

	// Optional stages, enabled by configuration.
	var sinks pipeline.Sinks
	if cfg.PlotDir != "" {
		sinks.Visualizer = chart.NewRenderer(cfg.PlotDir, logger)
	} else {
		logger.Info("charts disabled")
	}
	if cfg.FeaturesParquetPath != "" {
		sinks.Features = parquet.NewExporter(cfg.FeaturesParquetPath, logger)
	}
	if cfg.KafkaGuidanceTopic != "" {
		writer := kafkaadapter.NewWriter(cfg, logger)
		closers = append(closers, writer.Close)
		sinks.Guidance = writer
		logger.Info("guidance publishing enabled", "topic", cfg.KafkaGuidanceTopic, "brokers", cfg.KafkaBrokers)
	}

	p := pipeline.New(src, sinks, pipeline.OptionsFromConfig(cfg), logger, metrics)
	res, runErr := p.Run(ctx)

	// Metrics are pushed even for failed runs so the failure is visible.
	if cfg.PushgatewayURL != "" {
		if perr := metrics.Push(context.WithoutCancel(ctx), cfg.PushgatewayURL); perr != nil {
			logger.Warn("metrics push failed", "error", perr)
		}
	}
	if runErr != nil {
		return runErr
	}

	return report.WriteAll(os.Stdout, res.Model.Evaluation, res.Incidents)
}
