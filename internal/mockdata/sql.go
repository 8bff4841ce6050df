package mockdata

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Table names used by the default source queries.
const (
	SensorTable   = "IoT_Sensor_Data"
	IncidentTable = "Fire_Incident_Data"
)

var schema = []string{
	"DROP TABLE IF EXISTS " + SensorTable,
	"DROP TABLE IF EXISTS " + IncidentTable,
	"CREATE TABLE " + SensorTable + " (Timestamp TEXT, Location TEXT, Temperature REAL, SmokeLevel REAL, IncidentID TEXT)",
	"CREATE TABLE " + IncidentTable + " (IncidentID TEXT PRIMARY KEY, IncidentSeverity INTEGER NOT NULL)",
}

// WriteSQL replaces both tables with the dataset inside one transaction.
// Nil sensor fields are stored as NULL.
func WriteSQL(ctx context.Context, db *sql.DB, ds Dataset) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = multierror.Append(err, fmt.Errorf("rollback: %w", rbErr))
			}
		}
	}()

	for _, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}

	sensors, err := tx.PrepareContext(ctx, "INSERT INTO "+SensorTable+" (Timestamp, Location, Temperature, SmokeLevel, IncidentID) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare sensor insert: %w", err)
	}
	defer sensors.Close()
	for i, r := range ds.Sensors {
		if _, err := sensors.ExecContext(ctx, r.Timestamp, r.Location, r.Temperature, r.SmokeLevel, r.Key); err != nil {
			return fmt.Errorf("insert sensor row %d: %w", i, err)
		}
	}

	incidents, err := tx.PrepareContext(ctx, "INSERT INTO "+IncidentTable+" (IncidentID, IncidentSeverity) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("prepare incident insert: %w", err)
	}
	defer incidents.Close()
	for _, inc := range ds.Incidents {
		if _, err := incidents.ExecContext(ctx, inc.IncidentID, inc.Severity); err != nil {
			return fmt.Errorf("insert incident %s: %w", inc.IncidentID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
