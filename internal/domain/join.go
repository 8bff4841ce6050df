package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrRowCountMismatch is returned by JoinByPosition when the two tables differ in length.
	ErrRowCountMismatch = errors.New("sensor and incident row counts differ")
	// ErrDuplicateIncident is returned by JoinByKey when an incident ID appears twice.
	ErrDuplicateIncident = errors.New("duplicate incident id")
)

// JoinStats reports how many readings found a label.
type JoinStats struct {
	Joined    int `json:"joined"`
	Unmatched int `json:"unmatched"`
}

// JoinByKey labels each reading with the severity of the incident whose ID
// equals the reading's key. Several readings may share one incident. Readings
// without a match are skipped and counted.
func JoinByKey(readings []EngineeredReading, incidents []IncidentRecord) ([]LabeledExample, JoinStats, error) {
	severity := make(map[string]int, len(incidents))
	for _, inc := range incidents {
		if _, dup := severity[inc.IncidentID]; dup {
			return nil, JoinStats{}, fmt.Errorf("%w: %q", ErrDuplicateIncident, inc.IncidentID)
		}
		severity[inc.IncidentID] = inc.Severity
	}

	var stats JoinStats
	out := make([]LabeledExample, 0, len(readings))
	for _, r := range readings {
		s, ok := severity[r.Key]
		if !ok || r.Key == "" {
			stats.Unmatched++
			continue
		}
		out = append(out, LabeledExample{Reading: r, Severity: s})
	}
	stats.Joined = len(out)
	return out, stats, nil
}

// JoinByPosition pairs reading i with incident i. Both tables must have the
// same number of rows.
func JoinByPosition(readings []EngineeredReading, incidents []IncidentRecord) ([]LabeledExample, JoinStats, error) {
	if len(readings) != len(incidents) {
		return nil, JoinStats{}, fmt.Errorf("%w: %d readings, %d incidents", ErrRowCountMismatch, len(readings), len(incidents))
	}
	out := make([]LabeledExample, len(readings))
	for i := range readings {
		out[i] = LabeledExample{Reading: readings[i], Severity: incidents[i].Severity}
	}
	return out, JoinStats{Joined: len(out)}, nil
}
