package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }
func floatPtr(f float64) *float64 { return &f }

func row(ts, loc string, temp, smoke float64) SensorRow {
	return SensorRow{Timestamp: strPtr(ts), Location: strPtr(loc), Temperature: floatPtr(temp), SmokeLevel: floatPtr(smoke)}
}

func TestClean_DropsOutOfBounds(t *testing.T) {
	rows := []SensorRow{
		row("2024-01-01T08:00", "Warehouse A", 25, 2),
		row("2024-01-01T09:00", "Warehouse A", 150, 1),
	}

	readings, stats := Clean(rows)

	assert.Equal(t, []SensorReading{{Timestamp: "2024-01-01T08:00", Location: "Warehouse A", Temperature: 25, SmokeLevel: 2}}, readings)
	assert.Equal(t, CleanStats{Input: 2, OutOfBounds: 1, Kept: 1}, stats)
}

func TestClean_BoundsAreInclusive(t *testing.T) {
	tests := []struct {
		name  string
		temp  float64
		smoke float64
		kept  bool
	}{
		{"lower corner", -20, 0, true},
		{"upper corner", 100, 10, true},
		{"too cold", -20.01, 5, false},
		{"too hot", 100.01, 5, false},
		{"negative smoke", 25, -0.1, false},
		{"too much smoke", 25, 10.1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			readings, _ := Clean([]SensorRow{row("2024-01-01T08:00", "Lab", tt.temp, tt.smoke)})
			assert.Equal(t, tt.kept, len(readings) == 1)
		})
	}
}

func TestClean_RemovesExactDuplicates(t *testing.T) {
	rows := []SensorRow{
		row("2024-01-01T08:00", "Lab", 25, 2),
		row("2024-01-01T08:00", "Lab", 25, 2),
		row("2024-01-01T08:00", "Lab", 25, 3),
		{Timestamp: strPtr("2024-01-01T09:00"), Location: strPtr("Lab")},
		{Timestamp: strPtr("2024-01-01T09:00"), Location: strPtr("Lab")},
	}

	readings, stats := Clean(rows)

	assert.Equal(t, 2, stats.Duplicates)
	assert.Len(t, readings, 3)
	// The NULL row is filled from the row before it after deduplication.
	assert.Equal(t, SensorReading{Timestamp: "2024-01-01T09:00", Location: "Lab", Temperature: 25, SmokeLevel: 3}, readings[2])
}

func TestClean_ForwardFill(t *testing.T) {
	rows := []SensorRow{
		row("2024-01-01T08:00", "Lab", 25, 2),
		{Timestamp: strPtr("2024-01-01T09:00"), Location: nil, Temperature: floatPtr(30), SmokeLevel: nil},
		{Timestamp: nil, Location: strPtr("Depot"), Temperature: nil, SmokeLevel: floatPtr(4)},
	}

	readings, stats := Clean(rows)

	want := []SensorReading{
		{Timestamp: "2024-01-01T08:00", Location: "Lab", Temperature: 25, SmokeLevel: 2},
		{Timestamp: "2024-01-01T09:00", Location: "Lab", Temperature: 30, SmokeLevel: 2},
		{Timestamp: "2024-01-01T09:00", Location: "Depot", Temperature: 30, SmokeLevel: 4},
	}
	if diff := cmp.Diff(want, readings); diff != "" {
		t.Errorf("Clean() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, stats.Kept)
}

func TestClean_FillsFromOutOfBoundsRow(t *testing.T) {
	// Filling happens before bounds filtering, so a dropped row can still
	// supply values to the row after it.
	rows := []SensorRow{
		row("2024-01-01T08:00", "Lab", 150, 2),
		{Timestamp: strPtr("2024-01-01T09:00"), Location: strPtr("Lab"), SmokeLevel: floatPtr(1)},
	}

	readings, stats := Clean(rows)

	assert.Empty(t, readings)
	assert.Equal(t, 2, stats.OutOfBounds)
}

func TestClean_LeadingGapsAreDropped(t *testing.T) {
	rows := []SensorRow{
		{Timestamp: strPtr("2024-01-01T07:00"), Location: strPtr("Lab"), SmokeLevel: floatPtr(1)},
		{Timestamp: strPtr("2024-01-01T07:30"), Location: strPtr("Lab"), SmokeLevel: floatPtr(1.5)},
		row("2024-01-01T08:00", "Lab", 25, 2),
		{Timestamp: strPtr("2024-01-01T09:00"), Location: strPtr("Lab"), SmokeLevel: floatPtr(3)},
	}

	readings, stats := Clean(rows)

	assert.Equal(t, 2, stats.Unfilled)
	assert.Len(t, readings, 2)
	assert.InDelta(t, 25.0, readings[1].Temperature, 0)
}

func TestClean_JoinKeyIsNotFilled(t *testing.T) {
	first := row("2024-01-01T08:00", "Lab", 25, 2)
	first.Key = "INC-1"
	second := row("2024-01-01T09:00", "Lab", 26, 2)

	readings, _ := Clean([]SensorRow{first, second})

	assert.Equal(t, "INC-1", readings[0].Key)
	assert.Empty(t, readings[1].Key)
}

func TestClean_Idempotent(t *testing.T) {
	rows := []SensorRow{
		row("2024-01-01T08:00", "Lab", 25, 2),
		row("2024-01-01T08:00", "Lab", 25, 2),
		{Timestamp: strPtr("2024-01-01T09:00"), Location: strPtr("Depot"), Temperature: floatPtr(40)},
		row("2024-01-01T10:00", "Depot", 120, 2),
		row("2024-01-01T11:00", "Depot", 35, 9),
	}

	once, _ := Clean(rows)

	again := make([]SensorRow, len(once))
	for i, r := range once {
		again[i] = r.Row()
	}
	twice, stats := Clean(again)

	assert.Equal(t, once, twice)
	assert.Zero(t, stats.Duplicates)
	assert.Zero(t, stats.OutOfBounds)
}

func TestClean_Empty(t *testing.T) {
	readings, stats := Clean(nil)
	assert.Empty(t, readings)
	assert.Equal(t, CleanStats{}, stats)
}
