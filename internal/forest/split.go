package forest

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

var (
	// ErrEmptyDataset is returned when there is nothing to split or fit.
	ErrEmptyDataset = errors.New("empty dataset")
	// ErrShapeMismatch is returned when features and labels differ in length.
	ErrShapeMismatch = errors.New("feature and label row counts differ")
	// ErrSplitTooSmall is returned when a partition would be empty.
	ErrSplitTooSmall = errors.New("dataset too small to split")
)

// Split holds row indices of the train and test partitions.
type Split struct {
	Train []int
	Test  []int
}

// TrainTestSplit shuffles row indices 0..n-1 with a seeded generator and holds
// out ceil(testSize*n) of them. The same n, testSize, and seed always produce
// the same partition.
func TrainTestSplit(n int, testSize float64, seed uint64) (Split, error) {
	if n == 0 {
		return Split{}, ErrEmptyDataset
	}
	if testSize <= 0 || testSize >= 1 {
		return Split{}, fmt.Errorf("test size %v outside (0,1)", testSize)
	}
	// Products such as 0.07*100 land a few ulps above the integer; the
	// epsilon keeps them from rounding up to the next row.
	nTest := int(math.Ceil(testSize*float64(n) - 1e-9))
	nTrain := n - nTest
	if nTest == 0 || nTrain == 0 {
		return Split{}, fmt.Errorf("%w: %d rows, test size %v", ErrSplitTooSmall, n, testSize)
	}

	rng := rand.New(rand.NewPCG(seed, splitStream))
	perm := rng.Perm(n)
	return Split{Test: perm[:nTest], Train: perm[nTest:]}, nil
}

// splitStream separates the split generator from the per-tree generators
// derived from the same seed.
const splitStream = 0x5e1ec7

// Take gathers the rows of X and y at the given indices.
func Take(X [][]float64, y []int, idx []int) ([][]float64, []int) {
	xs := make([][]float64, len(idx))
	ys := make([]int, len(idx))
	for i, j := range idx {
		xs[i] = X[j]
		ys[i] = y[j]
	}
	return xs, ys
}
