// Package mockdata generates reproducible sensor and incident tables for local
// runs and tests, optionally sprinkled with the defects the cleaner removes.
package mockdata

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/couchcryptid/fire-incident-analytics/internal/domain"
)

// TimestampLayout is how generated timestamps are rendered.
const TimestampLayout = "2006-01-02 15:04:05"

// Options control the generated dataset.
type Options struct {
	Readings  int
	Locations []string
	Start     time.Time
	Interval  time.Duration
	Seed      uint64
	// Dirty injects duplicates, NULL gaps, and out-of-bounds rows into the
	// sensor table. Incidents are never made dirty.
	Dirty bool
}

// DefaultOptions returns the settings used by cmd/genmock.
func DefaultOptions() Options {
	return Options{
		Readings:  500,
		Locations: []string{"Warehouse A", "Warehouse B", "Office Tower", "Data Center"},
		Start:     time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC),
		Interval:  15 * time.Minute,
		Seed:      42,
		Dirty:     true,
	}
}

// Defects counts the injected sensor-table defects.
type Defects struct {
	Duplicates  int
	Gaps        int
	OutOfBounds int
}

// Dataset is one generated pair of tables. Sensor rows carry the incident ID
// as their join key.
type Dataset struct {
	Sensors   []domain.SensorRow
	Incidents []domain.IncidentRecord
	Defects   Defects
}

// Defect cadence, in clean-reading positions.
const (
	duplicateEvery = 50
	gapEvery       = 37
	outlierEvery   = 41
	fireChance     = 0.2
	labelNoise     = 0.05
)

// Generate builds a dataset. The same options always yield the same dataset.
func Generate(opts Options) (Dataset, error) {
	if opts.Readings < 1 {
		return Dataset{}, fmt.Errorf("readings must be positive, got %d", opts.Readings)
	}
	if len(opts.Locations) == 0 {
		return Dataset{}, fmt.Errorf("at least one location is required")
	}

	rng := rand.New(rand.NewPCG(opts.Seed, 0xf12e))
	ds := Dataset{
		Sensors:   make([]domain.SensorRow, 0, opts.Readings+opts.Readings/10),
		Incidents: make([]domain.IncidentRecord, 0, opts.Readings),
	}

	for i := range opts.Readings {
		ts := opts.Start.Add(time.Duration(i) * opts.Interval).Format(TimestampLayout)
		loc := opts.Locations[i%len(opts.Locations)]
		temp, smoke := reading(rng)
		id := fmt.Sprintf("INC-%05d", i+1)

		ds.Incidents = append(ds.Incidents, domain.IncidentRecord{
			IncidentID: id,
			Severity:   severity(rng, temp, smoke),
		})

		row := domain.SensorRow{
			Timestamp:   &ts,
			Location:    &loc,
			Temperature: &temp,
			SmokeLevel:  &smoke,
			Key:         id,
		}
		if !opts.Dirty {
			ds.Sensors = append(ds.Sensors, row)
			continue
		}

		// A gap right after an outlier would be filled with out-of-bounds values.
		if i > 0 && i%gapEvery == 0 && (i-1)%outlierEvery != outlierEvery-1 {
			switch (i / gapEvery) % 3 {
			case 0:
				row.Location = nil
			case 1:
				row.Temperature = nil
			default:
				row.SmokeLevel = nil
			}
			ds.Defects.Gaps++
		}
		ds.Sensors = append(ds.Sensors, row)

		if i%duplicateEvery == duplicateEvery-1 {
			ds.Sensors = append(ds.Sensors, row)
			ds.Defects.Duplicates++
		}
		if i%outlierEvery == outlierEvery-1 {
			ds.Sensors = append(ds.Sensors, outlier(rng, ts, loc, i))
			ds.Defects.OutOfBounds++
		}
	}
	return ds, nil
}

// reading draws a temperature and smoke level. About one reading in five is
// taken near an active fire.
func reading(rng *rand.Rand) (temp, smoke float64) {
	temp = 22 + rng.NormFloat64()*6
	smoke = rng.Float64() * 1.5
	if rng.Float64() < fireChance {
		temp += 20 + rng.Float64()*45
		smoke += 2 + rng.Float64()*6
	}
	temp = round1(min(max(temp, domain.MinTemperature), domain.MaxTemperature))
	smoke = round1(min(max(smoke, domain.MinSmokeLevel), domain.MaxSmokeLevel))
	return temp, smoke
}

// severity grades an incident 1-4 from the fire risk score, with a little
// label noise so the classifier has something to get wrong.
func severity(rng *rand.Rand, temp, smoke float64) int {
	risk := domain.FireRiskScore(temp, smoke)
	var s int
	switch {
	case risk < 0.5:
		s = 1
	case risk < 0.9:
		s = 2
	case risk < 1.3:
		s = 3
	default:
		s = 4
	}
	if rng.Float64() < labelNoise {
		if rng.IntN(2) == 0 {
			s--
		} else {
			s++
		}
	}
	return min(max(s, 1), 4)
}

func outlier(rng *rand.Rand, ts, loc string, i int) domain.SensorRow {
	temp := round1(22 + rng.Float64()*5)
	smoke := round1(rng.Float64())
	if rng.IntN(2) == 0 {
		temp = round1(domain.MaxTemperature + 20 + rng.Float64()*100)
	} else {
		smoke = -1 - round1(rng.Float64()*5)
	}
	return domain.SensorRow{
		Timestamp:   &ts,
		Location:    &loc,
		Temperature: &temp,
		SmokeLevel:  &smoke,
		Key:         fmt.Sprintf("OUT-%05d", i+1),
	}
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
