package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"jobmatch-engine/internal/domain"
)

// ReplaceBan lifts any active ban for the applicant, records the new one and
// appends an audit event, all in one transaction.
func ReplaceBan(ctx context.Context, db *sql.DB, b domain.Ban, detail string) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	at := formatTime(b.BannedAt)
	if _, err := tx.ExecContext(ctx, `
UPDATE bans SET lifted_at = ?, lifted_by = ?
WHERE applicant_id = ? AND lifted_at IS NULL;`, at, b.BannedBy, b.ApplicantID); err != nil {
		return 0, fmt.Errorf("supersede bans: %w", err)
	}

	var until sql.NullString
	if b.BannedUntil != nil {
		until = sql.NullString{String: formatTime(*b.BannedUntil), Valid: true}
	}
	res, err := tx.ExecContext(ctx, `
INSERT INTO bans (applicant_id, reason, banned_at, banned_until, banned_by)
VALUES (?, ?, ?, ?, ?);`, b.ApplicantID, b.Reason, at, until, b.BannedBy)
	if err != nil {
		return 0, fmt.Errorf("insert ban: %w", err)
	}
	id, _ := res.LastInsertId()

	if err := insertAudit(ctx, tx, b.ApplicantID, "ban", b.BannedBy, detail, b.BannedAt); err != nil {
		return 0, err
	}
	return id, tx.Commit()
}

// LiftBans marks every unlifted ban for the applicant as lifted.
// It returns sql.ErrNoRows when nothing was lifted.
func LiftBans(ctx context.Context, db *sql.DB, applicantID, actor, detail string, at time.Time) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := formatTime(at)
	res, err := tx.ExecContext(ctx, `
UPDATE bans SET lifted_at = ?, lifted_by = ?
WHERE applicant_id = ? AND lifted_at IS NULL
  AND (banned_until IS NULL OR banned_until > ?);`, now, actor, applicantID, now)
	if err != nil {
		return fmt.Errorf("lift bans: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	if err := insertAudit(ctx, tx, applicantID, "unban", actor, detail, at); err != nil {
		return err
	}
	return tx.Commit()
}

// LatestBan returns the most recent unlifted ban, expired or not.
func LatestBan(ctx context.Context, db *sql.DB, applicantID string) (*domain.Ban, error) {
	var b domain.Ban
	var bannedAt string
	var until sql.NullString
	err := db.QueryRowContext(ctx, `
SELECT id, applicant_id, reason, banned_at, banned_until, banned_by
FROM bans
WHERE applicant_id = ? AND lifted_at IS NULL
ORDER BY banned_at DESC, id DESC
LIMIT 1;`, applicantID).Scan(&b.ID, &b.ApplicantID, &b.Reason, &bannedAt, &until, &b.BannedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	b.BannedAt = parseTime(bannedAt)
	if until.Valid {
		t := parseTime(until.String)
		b.BannedUntil = &t
	}
	return &b, nil
}

func insertAudit(ctx context.Context, tx *sql.Tx, applicantID, action, actor, detail string, at time.Time) error {
	_, err := tx.ExecContext(ctx, `
INSERT INTO moderation_audit (applicant_id, action, actor, detail, at)
VALUES (?, ?, ?, ?, ?);`, applicantID, action, actor, detail, formatTime(at))
	if err != nil {
		return fmt.Errorf("insert audit: %w", err)
	}
	return nil
}

// ModerationHistory lists audit events, newest first. Empty applicantID lists all.
func ModerationHistory(ctx context.Context, db *sql.DB, applicantID string) ([]domain.ModerationEvent, error) {
	q := `SELECT id, applicant_id, action, actor, detail, at FROM moderation_audit`
	var args []any
	if applicantID != "" {
		q += ` WHERE applicant_id = ?`
		args = append(args, applicantID)
	}
	q += ` ORDER BY at DESC, id DESC;`

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.ModerationEvent{}
	for rows.Next() {
		var e domain.ModerationEvent
		var at string
		if err := rows.Scan(&e.ID, &e.ApplicantID, &e.Action, &e.Actor, &e.Detail, &at); err != nil {
			return nil, err
		}
		e.At = parseTime(at)
		out = append(out, e)
	}
	return out, rows.Err()
}
