package domain

// Physically plausible bounds for sensor readings, inclusive.
const (
	MinTemperature = -20.0
	MaxTemperature = 100.0
	MinSmokeLevel  = 0.0
	MaxSmokeLevel  = 10.0
)

// CleanStats counts what the cleaner did to a sensor table.
type CleanStats struct {
	Input       int `json:"input"`
	Duplicates  int `json:"duplicates"`
	Unfilled    int `json:"unfilled"`
	OutOfBounds int `json:"out_of_bounds"`
	Kept        int `json:"kept"`
}

// rowKey is the comparable identity of a SensorRow; missing cells compare
// equal to each other and unequal to any value.
type rowKey struct {
	ts, loc         string
	temp, smoke     float64
	hasTS, hasLoc   bool
	hasTemp, hasSmk bool
	key             string
}

func keyOf(r SensorRow) rowKey {
	k := rowKey{key: r.Key}
	if r.Timestamp != nil {
		k.ts, k.hasTS = *r.Timestamp, true
	}
	if r.Location != nil {
		k.loc, k.hasLoc = *r.Location, true
	}
	if r.Temperature != nil {
		k.temp, k.hasTemp = *r.Temperature, true
	}
	if r.SmokeLevel != nil {
		k.smoke, k.hasSmk = *r.SmokeLevel, true
	}
	return k
}

// Clean turns raw sensor rows into complete, in-bounds readings:
//  1. exact duplicates are dropped, keeping the first occurrence;
//  2. missing cells are forward-filled from the nearest earlier row, in input order;
//  3. rows left with a missing cell (a leading gap with nothing to fill from) are dropped;
//  4. rows with Temperature outside [-20,100] or SmokeLevel outside [0,10] are dropped.
//
// The join key is never filled. An empty result is not an error.
func Clean(rows []SensorRow) ([]SensorReading, CleanStats) {
	stats := CleanStats{Input: len(rows)}

	seen := make(map[rowKey]struct{}, len(rows))
	unique := make([]SensorRow, 0, len(rows))
	for _, r := range rows {
		k := keyOf(r)
		if _, dup := seen[k]; dup {
			stats.Duplicates++
			continue
		}
		seen[k] = struct{}{}
		unique = append(unique, r)
	}

	var (
		lastTS, lastLoc     *string
		lastTemp, lastSmoke *float64
	)
	out := make([]SensorReading, 0, len(unique))
	for _, r := range unique {
		lastTS = fill(r.Timestamp, lastTS)
		lastLoc = fill(r.Location, lastLoc)
		lastTemp = fill(r.Temperature, lastTemp)
		lastSmoke = fill(r.SmokeLevel, lastSmoke)

		if lastTS == nil || lastLoc == nil || lastTemp == nil || lastSmoke == nil {
			stats.Unfilled++
			continue
		}

		reading := SensorReading{
			Timestamp:   *lastTS,
			Location:    *lastLoc,
			Temperature: *lastTemp,
			SmokeLevel:  *lastSmoke,
			Key:         r.Key,
		}
		if !InBounds(reading.Temperature, reading.SmokeLevel) {
			stats.OutOfBounds++
			continue
		}
		out = append(out, reading)
	}

	stats.Kept = len(out)
	return out, stats
}

// InBounds reports whether a temperature and smoke level pair is physically plausible.
func InBounds(temperature, smoke float64) bool {
	return temperature >= MinTemperature && temperature <= MaxTemperature &&
		smoke >= MinSmokeLevel && smoke <= MaxSmokeLevel
}

// Row converts a cleaned reading back to its raw form.
func (r SensorReading) Row() SensorRow {
	ts, loc, temp, smoke := r.Timestamp, r.Location, r.Temperature, r.SmokeLevel
	return SensorRow{Timestamp: &ts, Location: &loc, Temperature: &temp, SmokeLevel: &smoke, Key: r.Key}
}

func fill[T any](current, last *T) *T {
	if current != nil {
		return current
	}
	return last
}
