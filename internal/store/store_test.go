package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmatch-engine/internal/domain"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	require.NoError(t, Migrate(d.Pool))
	return d.Pool
}

func ptr[T any](v T) *T { return &v }

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db))

	var v int
	require.NoError(t, db.QueryRow(`PRAGMA user_version;`).Scan(&v))
	assert.Equal(t, schemaVersion, v)
}

func TestInsertJobsAndList(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	jobs := []domain.JobInsert{
		{ExternalJobID: ptr("EXT-1"), Title: "Cashier", Company: ptr("Mydin"), GenderRequirement: "any",
			MinAge: 18, MaxAge: 60, ExpireBy: "2030-01-31", Latitude: ptr(3.139), Longitude: ptr(101.6869),
			LastEditedBy: "admin-1"},
		{Title: "Packer", GenderRequirement: "male", MinAge: 20, MaxAge: 45, MinExperienceYears: 1.5, ExpireBy: "2030-02-01"},
	}
	require.NoError(t, InsertJobs(ctx, db, jobs))

	got, err := ListJobs(ctx, db, ListJobsOpts{Sort: "title", Window: "all"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Cashier", got[0].Title)
	assert.Equal(t, "Mydin", *got[0].Company)
	assert.Equal(t, "admin-1", got[0].LastEditedBy)
	require.NotNil(t, got[0].Latitude)
	assert.InDelta(t, 3.139, *got[0].Latitude, 1e-9)

	assert.Equal(t, "Packer", got[1].Title)
	assert.Nil(t, got[1].Company)
	assert.Nil(t, got[1].Latitude)
	assert.Equal(t, 1.5, got[1].MinExperienceYears)

	n, err := CountJobs(ctx, db)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	ids, err := ExistingExternalIDs(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, []string{"EXT-1"}, ids)
}

func TestDeleteJobMissing(t *testing.T) {
	db := openTestDB(t)
	err := DeleteJob(context.Background(), db, 42)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCleanupExpiredJobs(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	require.NoError(t, InsertJobs(ctx, db, []domain.JobInsert{
		{Title: "old", GenderRequirement: "any", ExpireBy: "2020-01-01"},
		{Title: "fresh", GenderRequirement: "any", ExpireBy: "2030-01-01"},
	}))

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	n, err := CleanupExpiredJobs(ctx, db, now, 90)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestInsertJobsRollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO jobs").WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	err = InsertJobs(context.Background(), db, []domain.JobInsert{{Title: "x", GenderRequirement: "any", ExpireBy: "2030-01-01"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertJobsSplitsAboveVariableLimit(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	jobs := make([]domain.JobInsert, 2000)
	for i := range jobs {
		jobs[i] = domain.JobInsert{Title: "Packer", GenderRequirement: "any", ExpireBy: "2030-01-01"}
	}
	require.Greater(t, len(jobs), MaxRowsPerInsert)
	require.NoError(t, InsertJobs(ctx, db, jobs))

	n, err := CountJobs(ctx, db)
	require.NoError(t, err)
	assert.EqualValues(t, 2000, n)
}

func TestInsertJobsSplitStatementsShareTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO jobs").WillReturnResult(sqlmock.NewResult(0, int64(MaxRowsPerInsert)))
	mock.ExpectExec("INSERT INTO jobs").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	jobs := make([]domain.JobInsert, MaxRowsPerInsert+1)
	for i := range jobs {
		jobs[i] = domain.JobInsert{Title: "x", GenderRequirement: "any", ExpireBy: "2030-01-01"}
	}
	err = InsertJobs(context.Background(), db, jobs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertJobsEmptyTouchesNothing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, InsertJobs(context.Background(), db, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedLocationsOnlyOnce(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	seed := filepath.Join("..", "..", "config", "malaysia_locations.yml")

	n, err := SeedLocations(ctx, db, seed)
	require.NoError(t, err)
	assert.Greater(t, n, 0)

	again, err := SeedLocations(ctx, db, seed)
	require.NoError(t, err)
	assert.Zero(t, again)

	locs, err := ListLocations(ctx, db)
	require.NoError(t, err)
	require.Len(t, locs, n)
	assert.Equal(t, "Kuala Lumpur", locs[0].Name)
	assert.Equal(t, []string{"KL"}, locs[0].Aliases)
}

func TestBanLifecycle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	until := now.Add(24 * time.Hour)

	_, err := ReplaceBan(ctx, db, domain.Ban{
		ApplicantID: "60123456789", Reason: "spam", BannedAt: now, BannedUntil: &until, BannedBy: "admin",
	}, "24h: spam")
	require.NoError(t, err)

	b, err := LatestBan(ctx, db, "60123456789")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, "spam", b.Reason)
	require.NotNil(t, b.BannedUntil)
	assert.True(t, b.BannedUntil.Equal(until))

	require.NoError(t, LiftBans(ctx, db, "60123456789", "admin", "appeal", now.Add(time.Hour)))
	b, err = LatestBan(ctx, db, "60123456789")
	require.NoError(t, err)
	assert.Nil(t, b)

	err = LiftBans(ctx, db, "60123456789", "admin", "again", now.Add(2*time.Hour))
	assert.ErrorIs(t, err, sql.ErrNoRows)

	hist, err := ModerationHistory(ctx, db, "60123456789")
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, "unban", hist[0].Action)
	assert.Equal(t, "ban", hist[1].Action)
}

func TestImportLockExcludes(t *testing.T) {
	dir := t.TempDir()
	release, err := NewImportLock(dir).TryAcquire()
	require.NoError(t, err)

	_, err = NewImportLock(dir).TryAcquire()
	assert.ErrorIs(t, err, ErrImportInProgress)

	release()
	release2, err := NewImportLock(dir).TryAcquire()
	require.NoError(t, err)
	release2()
}

func TestImportLockExcludesWithinProcess(t *testing.T) {
	l := NewImportLock(t.TempDir())
	release, err := l.TryAcquire()
	require.NoError(t, err)

	_, err = l.TryAcquire()
	assert.ErrorIs(t, err, ErrImportInProgress)

	release()
	release() // second call is a no-op
	release2, err := l.TryAcquire()
	require.NoError(t, err)
	release2()
}
