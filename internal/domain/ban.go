package domain

import "time"

type Ban struct {
	ID          int64      `json:"id"`
	ApplicantID string     `json:"applicantId"`
	Reason      string     `json:"reason"`
	BannedAt    time.Time  `json:"bannedAt"`
	BannedUntil *time.Time `json:"bannedUntil"` // nil = permanent
	BannedBy    string     `json:"bannedBy"`
	LiftedAt    *time.Time `json:"liftedAt,omitempty"`
	LiftedBy    string     `json:"liftedBy,omitempty"`
}

func (b Ban) Permanent() bool { return b.BannedUntil == nil }

// ActiveAt reports whether the ban gates the applicant at t.
func (b Ban) ActiveAt(t time.Time) bool {
	if b.LiftedAt != nil {
		return false
	}
	return b.BannedUntil == nil || b.BannedUntil.After(t)
}

// Remaining is zero for expired or lifted bans and for permanent ones.
func (b Ban) Remaining(t time.Time) time.Duration {
	if !b.ActiveAt(t) || b.BannedUntil == nil {
		return 0
	}
	return b.BannedUntil.Sub(t)
}

type ModerationEvent struct {
	ID          int64     `json:"id"`
	ApplicantID string    `json:"applicantId"`
	Action      string    `json:"action"` // ban | unban
	Actor       string    `json:"actor"`
	Detail      string    `json:"detail"`
	At          time.Time `json:"at"`
}
