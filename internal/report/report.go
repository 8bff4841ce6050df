// Package report renders run results as plain text for standard output.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/couchcryptid/fire-incident-analytics/internal/domain"
	"github.com/couchcryptid/fire-incident-analytics/internal/forest"
)

const digits = 2

// WriteClassificationReport prints per-class precision, recall, F1, and
// support followed by accuracy and the macro and weighted averages.
func WriteClassificationReport(w io.Writer, ev forest.Evaluation) error {
	names := make([]string, len(ev.Classes))
	width := len("weighted avg")
	for i, c := range ev.Classes {
		names[i] = strconv.Itoa(c.Label)
		width = max(width, len(names[i]))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%*s %9s %9s %9s %9s\n\n", width, "", "precision", "recall", "f1-score", "support")
	for i, c := range ev.Classes {
		fmt.Fprintf(&b, "%*s %9.*f %9.*f %9.*f %9d\n", width, names[i], digits, c.Precision, digits, c.Recall, digits, c.F1, c.Support)
	}
	b.WriteString("\n")

	support := ev.MacroAvg.Support
	fmt.Fprintf(&b, "%*s %9s %9s %9.*f %9d\n", width, "accuracy", "", "", digits, ev.Accuracy, support)
	writeAvg(&b, width, "macro avg", ev.MacroAvg)
	writeAvg(&b, width, "weighted avg", ev.WeightedAvg)

	_, err := io.WriteString(w, b.String())
	return err
}

func writeAvg(b *strings.Builder, width int, name string, a forest.AverageMetrics) {
	fmt.Fprintf(b, "%*s %9.*f %9.*f %9.*f %9d\n", width, name, digits, a.Precision, digits, a.Recall, digits, a.F1, a.Support)
}

// WriteConfusionMatrix prints the matrix as a bracketed grid, rows are true
// labels and columns predicted labels, both in Evaluation.Labels order.
func WriteConfusionMatrix(w io.Writer, ev forest.Evaluation) error {
	cell := 1
	for _, row := range ev.Confusion {
		for _, v := range row {
			cell = max(cell, len(strconv.Itoa(v)))
		}
	}

	var b strings.Builder
	b.WriteString("[")
	for i, row := range ev.Confusion {
		if i > 0 {
			b.WriteString("\n ")
		}
		b.WriteString("[")
		for j, v := range row {
			if j > 0 {
				b.WriteString(" ")
			}
			fmt.Fprintf(&b, "%*d", cell, v)
		}
		b.WriteString("]")
	}
	b.WriteString("]\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteGuidanceTable prints one row per incident: index, IncidentID,
// IncidentSeverity, and Guidance.
func WriteGuidanceTable(w io.Writer, incidents []domain.IncidentRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "\tIncidentID\tIncidentSeverity\tGuidance\t")
	for i, inc := range incidents {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t\n", i, inc.IncidentID, inc.Severity, inc.Guidance)
	}
	return tw.Flush()
}

// WriteAll prints the three result sections with their headings, in the
// order analysts expect them.
func WriteAll(w io.Writer, ev forest.Evaluation, incidents []domain.IncidentRecord) error {
	if _, err := fmt.Fprintln(w, "Classification Report:"); err != nil {
		return err
	}
	if err := WriteClassificationReport(w, ev); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "\nConfusion Matrix:"); err != nil {
		return err
	}
	if err := WriteConfusionMatrix(w, ev); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	return WriteGuidanceTable(w, incidents)
}
