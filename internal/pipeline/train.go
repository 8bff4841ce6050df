package pipeline

import (
	"context"
	"fmt"

	"github.com/couchcryptid/fire-incident-analytics/internal/domain"
	"github.com/couchcryptid/fire-incident-analytics/internal/forest"
)

// TrainResult is the outcome of fitting and scoring the severity classifier.
type TrainResult struct {
	TrainSize  int
	TestSize   int
	Classes    []int // severities seen in training
	Evaluation forest.Evaluation
	Forest     *forest.Forest
}

// TrainAndEvaluate splits the labeled examples with a seeded shuffle, fits a
// forest on the training part, and scores its predictions on the held-out part.
func TrainAndEvaluate(ctx context.Context, examples []domain.LabeledExample, testSize float64, params forest.Params) (TrainResult, error) {
	X := make([][]float64, len(examples))
	y := make([]int, len(examples))
	for i, ex := range examples {
		X[i] = ex.Reading.Features()
		y[i] = ex.Severity
	}

	split, err := forest.TrainTestSplit(len(examples), testSize, params.Seed)
	if err != nil {
		return TrainResult{}, fmt.Errorf("split examples: %w", err)
	}
	xTrain, yTrain := forest.Take(X, y, split.Train)
	xTest, yTest := forest.Take(X, y, split.Test)

	model, err := forest.Fit(ctx, xTrain, yTrain, params)
	if err != nil {
		return TrainResult{}, err
	}
	pred, err := model.Predict(xTest)
	if err != nil {
		return TrainResult{}, fmt.Errorf("predict: %w", err)
	}
	ev, err := forest.Evaluate(yTest, pred)
	if err != nil {
		return TrainResult{}, fmt.Errorf("evaluate: %w", err)
	}

	return TrainResult{
		TrainSize:  len(split.Train),
		TestSize:   len(split.Test),
		Classes:    model.Classes(),
		Evaluation: ev,
		Forest:     model,
	}, nil
}
