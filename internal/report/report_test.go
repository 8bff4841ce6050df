package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/fire-incident-analytics/internal/domain"
	"github.com/couchcryptid/fire-incident-analytics/internal/forest"
)

func sampleEvaluation(t *testing.T) forest.Evaluation {
	t.Helper()
	ev, err := forest.Evaluate([]int{1, 1, 2, 2, 3}, []int{1, 2, 2, 2, 1})
	require.NoError(t, err)
	return ev
}

func TestWriteClassificationReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteClassificationReport(&buf, sampleEvaluation(t)))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 9)

	assert.Equal(t, []string{"precision", "recall", "f1-score", "support"}, strings.Fields(lines[0]))
	assert.Empty(t, lines[1])
	assert.Equal(t, []string{"1", "0.50", "0.50", "0.50", "2"}, strings.Fields(lines[2]))
	assert.Equal(t, []string{"2", "0.67", "1.00", "0.80", "2"}, strings.Fields(lines[3]))
	assert.Equal(t, []string{"3", "0.00", "0.00", "0.00", "1"}, strings.Fields(lines[4]))
	assert.Empty(t, lines[5])
	assert.Equal(t, []string{"accuracy", "0.60", "5"}, strings.Fields(lines[6]))
	assert.Equal(t, []string{"macro", "avg", "0.39", "0.50", "0.43", "5"}, strings.Fields(lines[7]))
	assert.Equal(t, []string{"weighted", "avg", "0.47", "0.60", "0.52", "5"}, strings.Fields(lines[8]))

	// Every non-blank row is right-aligned to the same width.
	for _, i := range []int{0, 2, 3, 4, 6, 7, 8} {
		assert.Len(t, lines[i], len(lines[2]), "line %d", i)
	}
	assert.True(t, strings.HasSuffix(lines[6], "0.60         5"))
}

func TestWriteConfusionMatrix(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteConfusionMatrix(&buf, sampleEvaluation(t)))
	assert.Equal(t, "[[1 1 0]\n [0 2 0]\n [1 0 0]]\n", buf.String())
}

func TestWriteConfusionMatrix_PadsWideCounts(t *testing.T) {
	ev := forest.Evaluation{Confusion: [][]int{{12, 0}, {3, 140}}}

	var buf bytes.Buffer
	require.NoError(t, WriteConfusionMatrix(&buf, ev))
	assert.Equal(t, "[[ 12   0]\n [  3 140]]\n", buf.String())
}

func TestWriteGuidanceTable(t *testing.T) {
	incidents := domain.ApplyGuidance([]domain.IncidentRecord{
		{IncidentID: "INC-1", Severity: 3},
		{IncidentID: "INC-22", Severity: 2},
		{IncidentID: "INC-3", Severity: 0},
	})

	var buf bytes.Buffer
	require.NoError(t, WriteGuidanceTable(&buf, incidents))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "IncidentID")
	assert.Contains(t, lines[0], "IncidentSeverity")
	assert.Contains(t, lines[1], "INC-1")
	assert.Contains(t, lines[1], domain.ActionDeploy)
	assert.Contains(t, lines[2], domain.ActionEvacuate)
	assert.Contains(t, lines[3], domain.ActionMonitor)
	for _, l := range lines {
		assert.Len(t, l, len(lines[0]))
	}
	assert.True(t, strings.HasPrefix(strings.TrimSpace(lines[2]), "1"))
}

func TestWriteAll_SectionOrder(t *testing.T) {
	var buf bytes.Buffer
	incidents := domain.ApplyGuidance([]domain.IncidentRecord{{IncidentID: "INC-1", Severity: 1}})
	require.NoError(t, WriteAll(&buf, sampleEvaluation(t), incidents))

	out := buf.String()
	report := strings.Index(out, "Classification Report:")
	matrix := strings.Index(out, "Confusion Matrix:")
	table := strings.Index(out, "IncidentSeverity")
	assert.GreaterOrEqual(t, report, 0)
	assert.Greater(t, matrix, report)
	assert.Greater(t, table, matrix)
}
