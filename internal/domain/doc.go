// Package domain models IoT fire-sensor readings and historical fire incidents.
//
// # Data Source
//
// Two tables are read once per run: IoT_Sensor_Data (Timestamp, Location,
// Temperature, SmokeLevel, and optionally a join column) and
// Fire_Incident_Data (IncidentID, IncidentSeverity). Column lookup is by name,
// so extra columns are ignored.
//
// # Cleaning
//
// Sensor rows pass through [Clean] in a fixed order: exact duplicates are
// dropped, missing cells are forward-filled from the nearest earlier row,
// rows with a leading gap that cannot be filled are dropped, and rows outside
// the physical bounds are dropped:
//
//	Temperature: -20 .. 100 (inclusive)
//	SmokeLevel:    0 .. 10  (inclusive)
//
// # Features
//
// [Engineer] derives three features per reading:
//
//	FireRiskScore = Temperature/100 + SmokeLevel/10
//	HourOfDay     = wall-clock hour of Timestamp, 0-23
//	DayOfWeek     = Monday=0 .. Sunday=6
//
// The classifier consumes Temperature, SmokeLevel, HourOfDay, and DayOfWeek.
//
// # Labels
//
// Readings are paired with incident severities by [JoinByKey] (the reading's
// join column equals an IncidentID) or, for tables known to be aligned row for
// row, by [JoinByPosition], which refuses tables of different length.
//
// # Guidance
//
// Severity maps to a response through an ordered threshold ladder:
//
//	severity >= 3  Deploy Fire Brigade and Emergency Medical Services
//	severity == 2  Alert Local Fire Wardens and Begin Evacuation
//	otherwise      Monitor Situation and Standby for Further Instructions
package domain
