package forest

import (
	"fmt"
	"slices"
)

// ClassMetrics are the per-class scores on a test partition.
type ClassMetrics struct {
	Label     int     `json:"label"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// AverageMetrics summarize the per-class scores.
type AverageMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Evaluation is the outcome of comparing predictions with true labels.
type Evaluation struct {
	// Labels is the sorted union of true and predicted classes. It indexes
	// Classes and both axes of Confusion.
	Labels  []int          `json:"labels"`
	Classes []ClassMetrics `json:"classes"`
	// Confusion[i][j] counts rows whose true label is Labels[i] and whose
	// predicted label is Labels[j].
	Confusion   [][]int        `json:"confusion"`
	Accuracy    float64        `json:"accuracy"`
	MacroAvg    AverageMetrics `json:"macro_avg"`
	WeightedAvg AverageMetrics `json:"weighted_avg"`
}

// Evaluate scores predictions against true labels. Undefined ratios (no
// predictions or no support for a class) are reported as 0.
func Evaluate(yTrue, yPred []int) (Evaluation, error) {
	if len(yTrue) != len(yPred) {
		return Evaluation{}, fmt.Errorf("%w: %d true labels, %d predictions", ErrShapeMismatch, len(yTrue), len(yPred))
	}
	if len(yTrue) == 0 {
		return Evaluation{}, ErrEmptyDataset
	}

	labels := slices.Concat(yTrue, yPred)
	slices.Sort(labels)
	labels = slices.Compact(labels)
	pos := make(map[int]int, len(labels))
	for i, l := range labels {
		pos[l] = i
	}

	confusion := make([][]int, len(labels))
	for i := range confusion {
		confusion[i] = make([]int, len(labels))
	}
	correct := 0
	for i := range yTrue {
		confusion[pos[yTrue[i]]][pos[yPred[i]]]++
		if yTrue[i] == yPred[i] {
			correct++
		}
	}

	ev := Evaluation{
		Labels:    labels,
		Classes:   make([]ClassMetrics, len(labels)),
		Confusion: confusion,
		Accuracy:  float64(correct) / float64(len(yTrue)),
	}

	total := len(yTrue)
	for k, label := range labels {
		tp := confusion[k][k]
		predicted, support := 0, 0
		for j := range labels {
			predicted += confusion[j][k]
			support += confusion[k][j]
		}
		precision := ratio(tp, predicted)
		recall := ratio(tp, support)
		f1 := 0.0
		if precision+recall > 0 {
			f1 = 2 * precision * recall / (precision + recall)
		}
		ev.Classes[k] = ClassMetrics{Label: label, Precision: precision, Recall: recall, F1: f1, Support: support}

		n := float64(len(labels))
		ev.MacroAvg.Precision += precision / n
		ev.MacroAvg.Recall += recall / n
		ev.MacroAvg.F1 += f1 / n

		w := float64(support) / float64(total)
		ev.WeightedAvg.Precision += precision * w
		ev.WeightedAvg.Recall += recall * w
		ev.WeightedAvg.F1 += f1 * w
	}
	ev.MacroAvg.Support = total
	ev.WeightedAvg.Support = total

	return ev, nil
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
