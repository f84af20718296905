package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"jobmatch-engine/internal/domain"
)

const insertJobColumns = `external_job_id, title, company, industry, location_city, location_state,
salary_range, gender_requirement, min_age, max_age, min_experience_years, expire_by, url,
latitude, longitude, created_at, last_edited_at, last_edited_by`

const insertJobArity = 18

// sqliteMaxVars is SQLITE_MAX_VARIABLE_NUMBER for the bundled driver.
const sqliteMaxVars = 32766

// MaxRowsPerInsert is how many jobs fit in one INSERT statement.
const MaxRowsPerInsert = sqliteMaxVars / insertJobArity

// InsertJobs writes jobs as multi-row INSERTs of at most MaxRowsPerInsert
// rows, all inside one transaction: either every row lands or none does.
func InsertJobs(ctx context.Context, db *sql.DB, jobs []domain.JobInsert) error {
	if len(jobs) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?,", insertJobArity), ",") + ")"
	now := formatTime(time.Now())

	for off := 0; off < len(jobs); off += MaxRowsPerInsert {
		batch := jobs[off:min(off+MaxRowsPerInsert, len(jobs))]
		values := make([]string, 0, len(batch))
		args := make([]any, 0, len(batch)*insertJobArity)
		for _, j := range batch {
			values = append(values, placeholder)
			edited := now
			if !j.LastEditedAt.IsZero() {
				edited = formatTime(j.LastEditedAt)
			}
			args = append(args,
				nullString(j.ExternalJobID), j.Title, nullString(j.Company), nullString(j.Industry),
				nullString(j.LocationCity), nullString(j.LocationState), nullString(j.SalaryRange),
				j.GenderRequirement, j.MinAge, j.MaxAge, j.MinExperienceYears, j.ExpireBy, nullString(j.URL),
				nullFloat(j.Latitude), nullFloat(j.Longitude), now, edited, j.LastEditedBy,
			)
		}

		query := fmt.Sprintf("INSERT INTO jobs (%s) VALUES %s;", insertJobColumns, strings.Join(values, ","))
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert jobs: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// CreateJob inserts a single job and returns its id.
func CreateJob(ctx context.Context, db *sql.DB, j domain.JobInsert) (int64, error) {
	now := formatTime(time.Now())
	edited := now
	if !j.LastEditedAt.IsZero() {
		edited = formatTime(j.LastEditedAt)
	}
	res, err := db.ExecContext(ctx, fmt.Sprintf(`INSERT INTO jobs (%s)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?);`, insertJobColumns),
		nullString(j.ExternalJobID), j.Title, nullString(j.Company), nullString(j.Industry),
		nullString(j.LocationCity), nullString(j.LocationState), nullString(j.SalaryRange),
		j.GenderRequirement, j.MinAge, j.MaxAge, j.MinExperienceYears, j.ExpireBy, nullString(j.URL),
		nullFloat(j.Latitude), nullFloat(j.Longitude), now, edited, j.LastEditedBy,
	)
	if err != nil {
		return 0, fmt.Errorf("create job: %w", err)
	}
	return res.LastInsertId()
}

// Jobs adapts the package functions to the importer's collaborator interfaces.
type Jobs struct {
	DB *sql.DB
}

func (s Jobs) InsertJobs(ctx context.Context, jobs []domain.JobInsert) error {
	return InsertJobs(ctx, s.DB, jobs)
}

func (s Jobs) ExistingExternalIDs(ctx context.Context) ([]string, error) {
	return ExistingExternalIDs(ctx, s.DB)
}

func (s Jobs) ListLocations(ctx context.Context) ([]domain.MalaysiaLocation, error) {
	return ListLocations(ctx, s.DB)
}
