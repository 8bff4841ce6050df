package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/fire-incident-analytics/internal/config"
	"github.com/couchcryptid/fire-incident-analytics/internal/domain"
	"github.com/couchcryptid/fire-incident-analytics/internal/forest"
	"github.com/couchcryptid/fire-incident-analytics/internal/observability"
)

// Source loads the two input tables.
type Source interface {
	LoadSensorRows(ctx context.Context) ([]domain.SensorRow, error)
	LoadIncidents(ctx context.Context) ([]domain.IncidentRecord, error)
}

// Visualizer renders exploratory charts of the engineered readings.
type Visualizer interface {
	Visualize(ctx context.Context, readings []domain.EngineeredReading) error
}

// FeatureExporter persists the engineered readings.
type FeatureExporter interface {
	ExportFeatures(ctx context.Context, readings []domain.EngineeredReading) error
}

// GuidanceLoader publishes incidents after guidance has been applied.
type GuidanceLoader interface {
	LoadGuidance(ctx context.Context, incidents []domain.IncidentRecord) error
}

// Sinks are the optional output stages. A nil field skips that stage.
type Sinks struct {
	Visualizer Visualizer
	Features   FeatureExporter
	Guidance   GuidanceLoader
}

// Options control joining and model training.
type Options struct {
	JoinStrategy string // config.JoinByKey or config.JoinByPosition
	TestSize     float64
	Forest       forest.Params
}

// OptionsFromConfig maps run configuration onto pipeline options.
func OptionsFromConfig(cfg *config.Config) Options {
	params := forest.DefaultParams()
	params.NumTrees = cfg.NumTrees
	params.Seed = cfg.RandomSeed
	params.Workers = cfg.TrainWorkers
	return Options{
		JoinStrategy: cfg.JoinStrategy,
		TestSize:     cfg.TestSize,
		Forest:       params,
	}
}

// Result summarizes one run.
type Result struct {
	Clean      domain.CleanStats
	Engineered []domain.EngineeredReading
	Join       domain.JoinStats
	Model      TrainResult
	Incidents  []domain.IncidentRecord
	Duration   time.Duration
}

// Pipeline runs the analysis once: load, clean, engineer, visualize, export,
// join, train and evaluate, then map incidents to guidance.
type Pipeline struct {
	source  Source
	sinks   Sinks
	opts    Options
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a Pipeline with the given stages and observability.
func New(src Source, sinks Sinks, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		source:  src,
		sinks:   sinks,
		opts:    opts,
		logger:  logger,
		metrics: metrics,
	}
}

// Run executes every stage in order. The first failure aborts the run.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{}
	p.logger.Info("pipeline started", "join_strategy", p.opts.JoinStrategy, "test_size", p.opts.TestSize, "trees", p.opts.Forest.NumTrees)

	var rows []domain.SensorRow
	var incidents []domain.IncidentRecord
	err := p.stage(ctx, "load", func() error {
		var err error
		if rows, err = p.source.LoadSensorRows(ctx); err != nil {
			return err
		}
		if incidents, err = p.source.LoadIncidents(ctx); err != nil {
			return err
		}
		p.metrics.SensorRowsLoaded.Add(float64(len(rows)))
		p.metrics.IncidentsLoaded.Add(float64(len(incidents)))
		p.logger.Info("data loaded", "sensor_rows", len(rows), "incidents", len(incidents))
		return nil
	})
	if err != nil {
		return nil, err
	}
	var readings []domain.SensorReading
	err = p.stage(ctx, "clean", func() error {
		readings, res.Clean = domain.Clean(rows)
		p.metrics.RowsDropped.WithLabelValues("duplicate").Add(float64(res.Clean.Duplicates))
		p.metrics.RowsDropped.WithLabelValues("unfilled").Add(float64(res.Clean.Unfilled))
		p.metrics.RowsDropped.WithLabelValues("out_of_bounds").Add(float64(res.Clean.OutOfBounds))
		p.logger.Info("sensor rows cleaned",
			"input", res.Clean.Input,
			"duplicates", res.Clean.Duplicates,
			"unfilled", res.Clean.Unfilled,
			"out_of_bounds", res.Clean.OutOfBounds,
			"kept", res.Clean.Kept,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = p.stage(ctx, "engineer", func() error {
		var err error
		res.Engineered, err = domain.Engineer(readings)
		return err
	})
	if err != nil {
		return nil, err
	}

	if p.sinks.Visualizer != nil {
		err := p.stage(ctx, "visualize", func() error {
			return p.sinks.Visualizer.Visualize(ctx, res.Engineered)
		})
		if err != nil {
			return nil, err
		}
	}

	if p.sinks.Features != nil {
		err := p.stage(ctx, "export", func() error {
			return p.sinks.Features.ExportFeatures(ctx, res.Engineered)
		})
		if err != nil {
			return nil, err
		}
	}

	var examples []domain.LabeledExample
	err = p.stage(ctx, "join", func() error {
		var err error
		examples, res.Join, err = p.join(res.Engineered, incidents)
		if err != nil {
			return err
		}
		p.metrics.ExamplesJoined.Add(float64(res.Join.Joined))
		p.metrics.ExamplesUnmatched.Add(float64(res.Join.Unmatched))
		p.logger.Info("examples labeled", "joined", res.Join.Joined, "unmatched", res.Join.Unmatched)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = p.stage(ctx, "train", func() error {
		var err error
		res.Model, err = TrainAndEvaluate(ctx, examples, p.opts.TestSize, p.opts.Forest)
		if err != nil {
			return err
		}
		p.recordModel(res.Model)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = p.stage(ctx, "guidance", func() error {
		res.Incidents = domain.ApplyGuidance(incidents)
		for _, inc := range res.Incidents {
			p.metrics.GuidanceIssued.WithLabelValues(inc.Guidance).Inc()
		}
		if p.sinks.Guidance != nil {
			return p.sinks.Guidance.LoadGuidance(ctx, res.Incidents)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res.Duration = time.Since(start)
	p.logger.Info("pipeline finished", "duration", res.Duration, "accuracy", res.Model.Evaluation.Accuracy)
	return res, nil
}

func (p *Pipeline) join(readings []domain.EngineeredReading, incidents []domain.IncidentRecord) ([]domain.LabeledExample, domain.JoinStats, error) {
	switch p.opts.JoinStrategy {
	case config.JoinByKey:
		return domain.JoinByKey(readings, incidents)
	case config.JoinByPosition:
		return domain.JoinByPosition(readings, incidents)
	default:
		return nil, domain.JoinStats{}, fmt.Errorf("unknown join strategy %q", p.opts.JoinStrategy)
	}
}

func (p *Pipeline) recordModel(m TrainResult) {
	p.metrics.TrainSize.Set(float64(m.TrainSize))
	p.metrics.TestSize.Set(float64(m.TestSize))
	p.metrics.ModelAccuracy.Set(m.Evaluation.Accuracy)
	for _, c := range m.Evaluation.Classes {
		p.metrics.ClassF1.WithLabelValues(fmt.Sprint(c.Label)).Set(c.F1)
	}
	p.logger.Info("model evaluated",
		"train_size", m.TrainSize,
		"test_size", m.TestSize,
		"classes", m.Classes,
		"accuracy", m.Evaluation.Accuracy,
		"macro_f1", m.Evaluation.MacroAvg.F1,
	)
}

// stage times fn under the given name and prefixes its error. A cancelled
// context stops the run before the stage starts.
func (p *Pipeline) stage(ctx context.Context, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	start := time.Now()
	err := fn()
	p.metrics.StageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		p.logger.Error("stage failed", "stage", name, "error", err)
		return fmt.Errorf("%s: %w", name, err)
	}
	p.logger.Debug("stage complete", "stage", name, "duration", time.Since(start))
	return nil
}
