package store

import (
	"database/sql"
	"fmt"
)

const schemaVersion = 1

func Migrate(db *sql.DB) error {

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}

	if v >= schemaVersion {
		return tx.Commit()
	}

	// ---- Schema v1: tables ----

	stmts := []string{`
CREATE TABLE IF NOT EXISTS jobs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  external_job_id TEXT,
  title TEXT NOT NULL,
  company TEXT,
  industry TEXT,
  location_city TEXT,
  location_state TEXT,
  salary_range TEXT,
  gender_requirement TEXT NOT NULL DEFAULT 'any',
  min_age INTEGER NOT NULL DEFAULT 18,
  max_age INTEGER NOT NULL DEFAULT 60,
  min_experience_years REAL NOT NULL DEFAULT 0,
  expire_by TEXT NOT NULL,
  url TEXT,
  latitude REAL,
  longitude REAL,
  created_at TEXT NOT NULL,
  last_edited_at TEXT NOT NULL,
  last_edited_by TEXT NOT NULL DEFAULT ''
);`, `
CREATE TABLE IF NOT EXISTS malaysia_locations (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  state TEXT NOT NULL,
  latitude REAL NOT NULL,
  longitude REAL NOT NULL,
  aliases TEXT NOT NULL DEFAULT '[]'
);`, `
CREATE TABLE IF NOT EXISTS bans (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  applicant_id TEXT NOT NULL,
  reason TEXT NOT NULL DEFAULT '',
  banned_at TEXT NOT NULL,
  banned_until TEXT,
  banned_by TEXT NOT NULL DEFAULT '',
  lifted_at TEXT,
  lifted_by TEXT NOT NULL DEFAULT ''
);`, `
CREATE TABLE IF NOT EXISTS moderation_audit (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  applicant_id TEXT NOT NULL,
  action TEXT NOT NULL,
  actor TEXT NOT NULL DEFAULT '',
  detail TEXT NOT NULL DEFAULT '',
  at TEXT NOT NULL
);`,

		// ---- Schema v1: indexes ----
		`CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_expire_by ON jobs(expire_by);`,
		// Not unique: rows from the same file may share an id the store has never seen.
		`CREATE INDEX IF NOT EXISTS idx_jobs_external_job_id ON jobs(external_job_id) WHERE external_job_id IS NOT NULL;`,
		`CREATE INDEX IF NOT EXISTS idx_locations_name ON malaysia_locations(name COLLATE NOCASE);`,
		`CREATE INDEX IF NOT EXISTS idx_bans_applicant ON bans(applicant_id, lifted_at);`,
		`CREATE INDEX IF NOT EXISTS idx_audit_applicant ON moderation_audit(applicant_id, at);`,
	}
	for _, s := range stmts {
		if _, err := tx.Exec(s); err != nil {
			return err
		}
	}

	// Dev databases created before coordinates were tracked.
	for _, col := range []string{"latitude", "longitude"} {
		if !columnExists(tx, "jobs", col) {
			if _, err := tx.Exec(fmt.Sprintf(`ALTER TABLE jobs ADD COLUMN %s REAL;`, col)); err != nil {
				return err
			}
		}
	}

	if _, err := tx.Exec(fmt.Sprintf(`PRAGMA user_version = %d;`, schemaVersion)); err != nil {
		return err
	}

	return tx.Commit()
}

func columnExists(q interface {
	QueryRow(query string, args ...any) *sql.Row
}, table, col string) bool {
	query := fmt.Sprintf(`
SELECT 1
FROM pragma_table_info('%s')
WHERE name = ?
LIMIT 1;
`, table)

	var one int
	err := q.QueryRow(query, col).Scan(&one)
	return err == nil
}
