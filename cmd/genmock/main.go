// Command genmock writes a reproducible SQLite database holding the sensor
// and incident tables, so the analysis can run locally without a server.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock/fire.db -readings 500 -seed 42
//	DB_DRIVER=sqlite3 DB_DSN=file:data/mock/fire.db go run ./cmd/analyze
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"slices"

	_ "github.com/mattn/go-sqlite3"

	"github.com/couchcryptid/fire-incident-analytics/internal/mockdata"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	defaults := mockdata.DefaultOptions()
	out := flag.String("out", "data/mock/fire.db", "output path for the SQLite database (replaced if present)")
	jsonOut := flag.String("json-out", "", "optional output path for a JSON copy of the dataset")
	readings := flag.Int("readings", defaults.Readings, "number of sensor readings and incidents")
	seed := flag.Uint64("seed", defaults.Seed, "random seed")
	clean := flag.Bool("clean", false, "omit duplicates, NULL gaps, and out-of-bounds rows (needed for JOIN_STRATEGY=position)")
	flag.Parse()

	opts := defaults
	opts.Readings = *readings
	opts.Seed = *seed
	opts.Dirty = !*clean

	ds, err := mockdata.Generate(opts)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.Remove(*out); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove old database: %w", err)
	}

	db, err := sql.Open("sqlite3", *out)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := mockdata.WriteSQL(context.Background(), db, ds); err != nil {
		return fmt.Errorf("write tables: %w", err)
	}
	log.Printf("wrote %s: %d sensor rows, %d incidents", *out, len(ds.Sensors), len(ds.Incidents))
	log.Printf("defects: %d duplicates, %d gaps, %d out of bounds",
		ds.Defects.Duplicates, ds.Defects.Gaps, ds.Defects.OutOfBounds)

	if *jsonOut != "" {
		if err := writeJSON(*jsonOut, ds); err != nil {
			return fmt.Errorf("writing JSON fixture: %w", err)
		}
		log.Printf("wrote JSON fixture: %s", *jsonOut)
	}

	printStats(ds)
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func printStats(ds mockdata.Dataset) {
	counts := map[int]int{}
	for _, inc := range ds.Incidents {
		counts[inc.Severity]++
	}
	severities := make([]int, 0, len(counts))
	for s := range counts {
		severities = append(severities, s)
	}
	slices.Sort(severities)

	fmt.Println("\nSeverity distribution:")
	for _, s := range severities {
		fmt.Printf("  %d: %d\n", s, counts[s])
	}
}
