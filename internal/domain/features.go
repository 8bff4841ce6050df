package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnparseableTimestamp is returned when a reading's timestamp matches none
// of the accepted layouts.
var ErrUnparseableTimestamp = errors.New("unparseable timestamp")

// timestampLayouts are tried in order. Layouts without a zone are read as
// UTC. Fractional seconds are accepted after any seconds field. Slash dates
// with the year last are month first.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z07",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05Z07",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/01/02",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006",
	"Jan _2 2006 3:04PM",
}

// ParseTimestamp parses a sensor timestamp in any accepted layout.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableTimestamp, s)
}

// FireRiskScore combines normalized temperature and smoke level.
func FireRiskScore(temperature, smoke float64) float64 {
	return temperature/100 + smoke/10
}

// DayOfWeek maps a time to Monday=0 .. Sunday=6.
func DayOfWeek(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// Engineer derives FireRiskScore, HourOfDay, and DayOfWeek for each reading.
// The hour is the wall-clock hour in the timestamp's own offset. One bad
// timestamp fails the whole batch.
func Engineer(readings []SensorReading) ([]EngineeredReading, error) {
	out := make([]EngineeredReading, 0, len(readings))
	for i, r := range readings {
		t, err := ParseTimestamp(r.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("engineer reading %d: %w", i, err)
		}
		out = append(out, EngineeredReading{
			SensorReading: r,
			Time:          t,
			FireRiskScore: FireRiskScore(r.Temperature, r.SmokeLevel),
			HourOfDay:     t.Hour(),
			DayOfWeek:     DayOfWeek(t),
		})
	}
	return out, nil
}
