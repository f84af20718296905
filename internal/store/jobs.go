package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"jobmatch-engine/internal/domain"
)

type ListJobsOpts struct {
	Sort   string // created | expire | title | company
	Window string // 24h | 7d | all
	Limit  int
}

const jobColumns = `id, external_job_id, title, company, industry, location_city, location_state,
salary_range, gender_requirement, min_age, max_age, min_experience_years, expire_by, url,
latitude, longitude, created_at, last_edited_at, last_edited_by`

func ListJobs(ctx context.Context, db *sql.DB, opts ListJobsOpts) ([]domain.Job, error) {
	if opts.Limit <= 0 || opts.Limit > 50000 {
		opts.Limit = 50000
	}

	// whitelist sort columns (prevents SQL injection)
	order := map[string]string{
		"created": "created_at DESC",
		"expire":  "expire_by ASC",
		"title":   "title COLLATE NOCASE ASC",
		"company": "company COLLATE NOCASE ASC",
	}[opts.Sort]
	if order == "" {
		order = "created_at DESC"
	}

	where := ""
	switch opts.Window {
	case "24h":
		where = "WHERE created_at >= datetime('now','-24 hours')"
	case "7d":
		where = "WHERE created_at >= datetime('now','-7 days')"
	}

	query := fmt.Sprintf(`
SELECT %s
FROM jobs
%s
ORDER BY %s, id DESC
LIMIT ?;
`, jobColumns, where, order)

	rows, err := db.QueryContext(ctx, query, opts.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanJob(rows *sql.Rows) (domain.Job, error) {
	var j domain.Job
	var extID, company, industry, city, state, salary, url sql.NullString
	var lat, lng sql.NullFloat64
	if err := rows.Scan(
		&j.ID, &extID, &j.Title, &company, &industry, &city, &state,
		&salary, &j.GenderRequirement, &j.MinAge, &j.MaxAge, &j.MinExperienceYears, &j.ExpireBy, &url,
		&lat, &lng, &j.CreatedAt, &j.LastEditedAt, &j.LastEditedBy,
	); err != nil {
		return j, err
	}
	j.ExternalJobID = strPtr(extID)
	j.Company = strPtr(company)
	j.Industry = strPtr(industry)
	j.LocationCity = strPtr(city)
	j.LocationState = strPtr(state)
	j.SalaryRange = strPtr(salary)
	j.URL = strPtr(url)
	j.Latitude = floatPtr(lat)
	j.Longitude = floatPtr(lng)
	return j, nil
}

func CountJobs(ctx context.Context, db *sql.DB) (int64, error) {
	var n int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs;`).Scan(&n)
	return n, err
}

// DeleteJob reports sql.ErrNoRows when id does not exist.
func DeleteJob(ctx context.Context, db *sql.DB, id int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?;`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CleanupExpiredJobs drops jobs whose expire_by is older than the retention window.
func CleanupExpiredJobs(ctx context.Context, db *sql.DB, now time.Time, retentionDays int) (deleted int64, err error) {
	cutoff := now.UTC().AddDate(0, 0, -retentionDays).Format("2006-01-02")
	res, err := db.ExecContext(ctx, `DELETE FROM jobs WHERE expire_by < ?;`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup expired jobs: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// ExistingExternalIDs returns every non-empty external_job_id in the store.
func ExistingExternalIDs(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
SELECT DISTINCT external_job_id
FROM jobs
WHERE external_job_id IS NOT NULL AND external_job_id != '';`)
	if err != nil {
		return nil, fmt.Errorf("existing external ids: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
