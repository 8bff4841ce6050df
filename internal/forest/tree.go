package forest

import (
	"math/rand/v2"
	"slices"
)

// node is either a split (left != nil) or a leaf carrying the class
// distribution of the training rows that reached it.
type node struct {
	feature     int
	threshold   float64
	left, right *node
	dist        []float64
}

func (n *node) leaf() bool { return n.left == nil }

// predict walks the tree; rows with x[feature] <= threshold go left.
func (n *node) predict(x []float64) []float64 {
	for !n.leaf() {
		if x[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.dist
}

// treeBuilder grows one CART classification tree with Gini impurity.
// y holds class indices in [0, nClasses).
type treeBuilder struct {
	X               [][]float64
	y               []int
	nClasses        int
	maxFeatures     int
	minSamplesSplit int
	maxDepth        int
	rng             *rand.Rand
}

func (b *treeBuilder) build(idx []int, depth int) *node {
	counts := b.counts(idx)
	if len(idx) < b.minSamplesSplit || isPure(counts) || (b.maxDepth > 0 && depth >= b.maxDepth) {
		return b.newLeaf(counts, len(idx))
	}

	feature, threshold, ok := b.bestSplit(idx)
	if !ok {
		return b.newLeaf(counts, len(idx))
	}

	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if b.X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &node{
		feature:   feature,
		threshold: threshold,
		left:      b.build(left, depth+1),
		right:     b.build(right, depth+1),
	}
}

// bestSplit draws features in random order and evaluates the first
// maxFeatures of them that are not constant over idx. It returns the split
// with the lowest weighted child impurity.
func (b *treeBuilder) bestSplit(idx []int) (feature int, threshold float64, ok bool) {
	nFeatures := len(b.X[idx[0]])
	order := b.rng.Perm(nFeatures)

	sorted := make([]int, len(idx))
	left := make([]int, b.nClasses)
	right := make([]int, b.nClasses)
	best := 2.0
	visited := 0

	for _, f := range order {
		if visited >= b.maxFeatures {
			break
		}
		copy(sorted, idx)
		slices.SortFunc(sorted, func(i, j int) int {
			switch {
			case b.X[i][f] < b.X[j][f]:
				return -1
			case b.X[i][f] > b.X[j][f]:
				return 1
			default:
				return 0
			}
		})
		if b.X[sorted[0]][f] == b.X[sorted[len(sorted)-1]][f] {
			continue
		}
		visited++

		clear(left)
		clear(right)
		for _, i := range sorted {
			right[b.y[i]]++
		}

		n := len(sorted)
		for pos := 0; pos < n-1; pos++ {
			c := b.y[sorted[pos]]
			left[c]++
			right[c]--

			lo, hi := b.X[sorted[pos]][f], b.X[sorted[pos+1]][f]
			if lo == hi {
				continue
			}
			nl, nr := pos+1, n-pos-1
			impurity := (float64(nl)*gini(left, nl) + float64(nr)*gini(right, nr)) / float64(n)
			if impurity < best {
				best = impurity
				feature = f
				threshold = lo + (hi-lo)/2
				if threshold >= hi {
					threshold = lo
				}
				ok = true
			}
		}
	}
	return feature, threshold, ok
}

func (b *treeBuilder) counts(idx []int) []int {
	c := make([]int, b.nClasses)
	for _, i := range idx {
		c[b.y[i]]++
	}
	return c
}

func (b *treeBuilder) newLeaf(counts []int, n int) *node {
	dist := make([]float64, len(counts))
	if n > 0 {
		for k, c := range counts {
			dist[k] = float64(c) / float64(n)
		}
	}
	return &node{dist: dist}
}

func gini(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		sum += p * p
	}
	return 1 - sum
}

func isPure(counts []int) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}
