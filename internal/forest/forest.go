// Package forest implements a bagged ensemble of CART decision trees for
// classifying incident severity from engineered sensor features, together
// with the seeded train/test split and the evaluation metrics used to report on it.
package forest

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"golang.org/x/sync/errgroup"
)

// Params controls how the forest is grown.
type Params struct {
	NumTrees int
	// MaxFeatures is the number of features considered per split; 0 means
	// floor(sqrt(features)), at least 1.
	MaxFeatures     int
	MinSamplesSplit int
	// MaxDepth limits tree depth; 0 grows trees until leaves are pure.
	MaxDepth int
	Seed     uint64
	// Workers bounds concurrent tree fits. The fitted forest does not depend on it.
	Workers int
}

// DefaultParams mirrors a stock random forest: 100 fully grown trees, sqrt
// feature sampling, seed 42.
func DefaultParams() Params {
	return Params{
		NumTrees:        100,
		MinSamplesSplit: 2,
		Seed:            42,
		Workers:         1,
	}
}

// Forest is a fitted ensemble. It is safe for concurrent prediction.
type Forest struct {
	classes   []int
	nFeatures int
	trees     []*node
}

// Fit grows p.NumTrees trees, each on a bootstrap sample of (X, y) drawn
// from a generator seeded by p.Seed and the tree's index.
func Fit(ctx context.Context, X [][]float64, y []int, p Params) (*Forest, error) {
	if len(X) == 0 {
		return nil, ErrEmptyDataset
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("%w: %d feature rows, %d labels", ErrShapeMismatch, len(X), len(y))
	}
	nFeatures := len(X[0])
	for i, row := range X {
		if len(row) != nFeatures {
			return nil, fmt.Errorf("%w: row %d has %d features, want %d", ErrShapeMismatch, i, len(row), nFeatures)
		}
	}
	if nFeatures == 0 {
		return nil, fmt.Errorf("%w: no features", ErrShapeMismatch)
	}
	if p.NumTrees < 1 {
		return nil, fmt.Errorf("num trees must be positive, got %d", p.NumTrees)
	}

	classes := slices.Sorted(slices.Values(y))
	classes = slices.Compact(classes)
	index := make(map[int]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	encoded := make([]int, len(y))
	for i, c := range y {
		encoded[i] = index[c]
	}

	maxFeatures := p.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = max(1, int(math.Sqrt(float64(nFeatures))))
	}
	maxFeatures = min(maxFeatures, nFeatures)
	minSplit := max(2, p.MinSamplesSplit)

	trees := make([]*node, p.NumTrees)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, p.Workers))
	for t := range trees {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(p.Seed, uint64(t)))
			b := &treeBuilder{
				X:               X,
				y:               encoded,
				nClasses:        len(classes),
				maxFeatures:     maxFeatures,
				minSamplesSplit: minSplit,
				maxDepth:        p.MaxDepth,
				rng:             rng,
			}
			trees[t] = b.build(bootstrap(rng, len(X)), 0)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fit forest: %w", err)
	}

	return &Forest{classes: classes, nFeatures: nFeatures, trees: trees}, nil
}

func bootstrap(rng *rand.Rand, n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = rng.IntN(n)
	}
	return idx
}

// Classes returns the sorted class labels seen during fitting.
func (f *Forest) Classes() []int {
	return slices.Clone(f.classes)
}

// NumTrees returns the ensemble size.
func (f *Forest) NumTrees() int {
	return len(f.trees)
}

// PredictProba averages the leaf class distributions of all trees. The result
// is indexed like Classes.
func (f *Forest) PredictProba(x []float64) []float64 {
	proba := make([]float64, len(f.classes))
	for _, t := range f.trees {
		for k, p := range t.predict(x) {
			proba[k] += p
		}
	}
	for k := range proba {
		proba[k] /= float64(len(f.trees))
	}
	return proba
}

// Predict returns the most probable class for each row. Ties go to the
// smaller class label.
func (f *Forest) Predict(X [][]float64) ([]int, error) {
	out := make([]int, len(X))
	for i, x := range X {
		if len(x) != f.nFeatures {
			return nil, fmt.Errorf("%w: row %d has %d features, want %d", ErrShapeMismatch, i, len(x), f.nFeatures)
		}
		proba := f.PredictProba(x)
		best := 0
		for k := 1; k < len(proba); k++ {
			if proba[k] > proba[best] {
				best = k
			}
		}
		out[i] = f.classes[best]
	}
	return out, nil
}
