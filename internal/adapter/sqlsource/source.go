// Package sqlsource loads the sensor and incident tables through database/sql.
package sqlsource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/couchcryptid/fire-incident-analytics/internal/domain"

	// Registered drivers, selected by DB_DRIVER.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "github.com/microsoft/go-mssqldb"
)

// ErrMissingColumn is returned when a query result lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// Column names looked up in query results, case-insensitively.
const (
	ColTimestamp   = "Timestamp"
	ColLocation    = "Location"
	ColTemperature = "Temperature"
	ColSmokeLevel  = "SmokeLevel"
	ColIncidentID  = "IncidentID"
	ColSeverity    = "IncidentSeverity"
)

// Options configures the two queries.
type Options struct {
	SensorQuery   string
	IncidentQuery string
	// JoinColumn is read from the sensor table into SensorRow.Key when present.
	JoinColumn   string
	QueryTimeout time.Duration
}

// Source reads both tables from one database handle.
// It implements pipeline.Source.
type Source struct {
	db     *sql.DB
	opts   Options
	logger *slog.Logger
}

// Open connects with the named driver and verifies the connection. The pool
// holds a single connection; the two queries run one after the other.
func Open(ctx context.Context, driver, dsn string, opts Options, logger *slog.Logger) (*Source, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	db.SetMaxOpenConns(1)

	pingCtx, cancel := withTimeout(ctx, opts.QueryTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect %s database: %w", driver, err)
	}
	logger.Info("database connected", "driver", driver)
	return New(db, opts, logger), nil
}

// New wraps an existing handle.
func New(db *sql.DB, opts Options, logger *slog.Logger) *Source {
	return &Source{db: db, opts: opts, logger: logger}
}

// Close releases the database handle.
func (s *Source) Close() error {
	return s.db.Close()
}

// LoadSensorRows runs the sensor query. Missing cells come back as nil fields.
func (s *Source) LoadSensorRows(ctx context.Context) ([]domain.SensorRow, error) {
	t, err := s.query(ctx, s.opts.SensorQuery)
	if err != nil {
		return nil, fmt.Errorf("load sensor rows: %w", err)
	}
	cols, err := t.require(ColTimestamp, ColLocation, ColTemperature, ColSmokeLevel)
	if err != nil {
		return nil, fmt.Errorf("load sensor rows: %w", err)
	}
	keyCol, hasKey := -1, false
	if s.opts.JoinColumn != "" {
		keyCol, hasKey = t.index(s.opts.JoinColumn)
	}

	out := make([]domain.SensorRow, len(t.rows))
	for i, rec := range t.rows {
		var r domain.SensorRow
		if r.Timestamp, err = text(rec[cols[0]]); err != nil {
			return nil, cellError(i, ColTimestamp, err)
		}
		if r.Location, err = text(rec[cols[1]]); err != nil {
			return nil, cellError(i, ColLocation, err)
		}
		if r.Temperature, err = number(rec[cols[2]]); err != nil {
			return nil, cellError(i, ColTemperature, err)
		}
		if r.SmokeLevel, err = number(rec[cols[3]]); err != nil {
			return nil, cellError(i, ColSmokeLevel, err)
		}
		if hasKey {
			key, err := text(rec[keyCol])
			if err != nil {
				return nil, cellError(i, s.opts.JoinColumn, err)
			}
			if key != nil {
				r.Key = *key
			}
		}
		out[i] = r
	}

	s.logger.Debug("sensor rows loaded", "rows", len(out), "join_column", hasKey)
	return out, nil
}

// LoadIncidents runs the incident query. Every row must carry an ID and an
// integral severity.
func (s *Source) LoadIncidents(ctx context.Context) ([]domain.IncidentRecord, error) {
	t, err := s.query(ctx, s.opts.IncidentQuery)
	if err != nil {
		return nil, fmt.Errorf("load incidents: %w", err)
	}
	cols, err := t.require(ColIncidentID, ColSeverity)
	if err != nil {
		return nil, fmt.Errorf("load incidents: %w", err)
	}

	out := make([]domain.IncidentRecord, len(t.rows))
	for i, rec := range t.rows {
		id, err := text(rec[cols[0]])
		if err != nil {
			return nil, cellError(i, ColIncidentID, err)
		}
		if id == nil {
			return nil, cellError(i, ColIncidentID, errors.New("null value"))
		}
		sev, err := number(rec[cols[1]])
		if err != nil {
			return nil, cellError(i, ColSeverity, err)
		}
		if sev == nil {
			return nil, cellError(i, ColSeverity, errors.New("null value"))
		}
		if *sev != math.Trunc(*sev) {
			return nil, cellError(i, ColSeverity, fmt.Errorf("non-integral value %v", *sev))
		}
		out[i] = domain.IncidentRecord{IncidentID: *id, Severity: int(*sev)}
	}

	s.logger.Debug("incidents loaded", "rows", len(out))
	return out, nil
}

// table is a fully materialized query result.
type table struct {
	columns []string
	rows    [][]any
}

func (s *Source) query(ctx context.Context, q string) (*table, error) {
	ctx, cancel := withTimeout(ctx, s.opts.QueryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	t := &table{columns: columns}
	for rows.Next() {
		rec := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range rec {
			dest[i] = &rec[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan row %d: %w", len(t.rows), err)
		}
		t.rows = append(t.rows, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return t, nil
}

func (t *table) index(name string) (int, bool) {
	for i, c := range t.columns {
		if strings.EqualFold(c, name) {
			return i, true
		}
	}
	return -1, false
}

func (t *table) require(names ...string) ([]int, error) {
	idx := make([]int, len(names))
	for i, name := range names {
		j, ok := t.index(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s (have %s)", ErrMissingColumn, name, strings.Join(t.columns, ", "))
		}
		idx[i] = j
	}
	return idx, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func cellError(row int, column string, err error) error {
	return fmt.Errorf("row %d column %s: %w", row, column, err)
}

// text converts a driver value to a string. SQL NULL yields nil.
func text(v any) (*string, error) {
	var s string
	switch x := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		s = x.Format(time.RFC3339Nano)
	case []byte:
		s = string(x)
	default:
		var err error
		if s, err = cast.ToStringE(x); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

// number converts a driver value to a float64. Decimal columns arrive as
// []byte from several drivers. SQL NULL and blank text yield nil.
func number(v any) (*float64, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		v = string(x)
	}
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, nil
		}
		v = s
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
