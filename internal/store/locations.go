package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"jobmatch-engine/internal/domain"
)

// ListLocations returns the gazetteer in insertion order; that order breaks
// ties when two entries share a name.
func ListLocations(ctx context.Context, db *sql.DB) ([]domain.MalaysiaLocation, error) {
	rows, err := db.QueryContext(ctx, `
SELECT name, state, latitude, longitude, aliases
FROM malaysia_locations
ORDER BY id ASC;`)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	out := []domain.MalaysiaLocation{}
	for rows.Next() {
		var l domain.MalaysiaLocation
		var aliases string
		if err := rows.Scan(&l.Name, &l.State, &l.Latitude, &l.Longitude, &aliases); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(aliases), &l.Aliases)
		out = append(out, l)
	}
	return out, rows.Err()
}

func CountLocations(ctx context.Context, db *sql.DB) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM malaysia_locations;`).Scan(&n)
	return n, err
}

func InsertLocations(ctx context.Context, db *sql.DB, locs []domain.MalaysiaLocation) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO malaysia_locations (name, state, latitude, longitude, aliases)
VALUES (?, ?, ?, ?, ?);`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, l := range locs {
		aliases := l.Aliases
		if aliases == nil {
			aliases = []string{}
		}
		b, _ := json.Marshal(aliases)
		if _, err := stmt.ExecContext(ctx, l.Name, l.State, l.Latitude, l.Longitude, string(b)); err != nil {
			return fmt.Errorf("insert location %q: %w", l.Name, err)
		}
	}
	return tx.Commit()
}

type locationsFile struct {
	Locations []domain.MalaysiaLocation `yaml:"locations"`
}

func LoadLocationsFile(path string) ([]domain.MalaysiaLocation, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f locationsFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return f.Locations, nil
}

// SeedLocations fills an empty gazetteer from the YAML seed file.
// It returns how many entries were written (0 when already seeded).
func SeedLocations(ctx context.Context, db *sql.DB, path string) (int, error) {
	n, err := CountLocations(ctx, db)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	locs, err := LoadLocationsFile(path)
	if err != nil {
		return 0, err
	}
	if err := InsertLocations(ctx, db, locs); err != nil {
		return 0, err
	}
	return len(locs), nil
}
