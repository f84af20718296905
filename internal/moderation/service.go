package moderation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"jobmatch-engine/internal/domain"
	"jobmatch-engine/internal/metrics"
	"jobmatch-engine/internal/store"
)

var ErrNotBanned = errors.New("applicant has no active ban")

type BanRequest struct {
	ApplicantID string
	Duration    string
	Reason      string
	Actor       string
}

type Service struct {
	DB  *sql.DB
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Ban records a new ban, replacing any ban the applicant already has.
func (s *Service) Ban(ctx context.Context, req BanRequest) (domain.Ban, error) {
	d, err := ParseDuration(req.Duration)
	if err != nil {
		return domain.Ban{}, err
	}
	at := s.now()
	b := domain.Ban{
		ApplicantID: strings.TrimSpace(req.ApplicantID),
		Reason:      strings.TrimSpace(req.Reason),
		BannedAt:    at,
		BannedUntil: Window(at, d),
		BannedBy:    req.Actor,
	}

	detail := strings.ToLower(strings.TrimSpace(req.Duration))
	if b.Reason != "" {
		detail += ": " + b.Reason
	}
	id, err := store.ReplaceBan(ctx, s.DB, b, detail)
	if err != nil {
		return domain.Ban{}, fmt.Errorf("ban %s: %w", b.ApplicantID, err)
	}
	b.ID = id
	metrics.BansIssued.Inc()
	zap.L().Info("applicant banned",
		zap.String("applicant_id", b.ApplicantID), zap.String("duration", detail), zap.String("actor", req.Actor))
	return b, nil
}

// Lift ends the applicant's active ban early.
func (s *Service) Lift(ctx context.Context, applicantID, actor, reason string) error {
	err := store.LiftBans(ctx, s.DB, applicantID, actor, strings.TrimSpace(reason), s.now())
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotBanned
	}
	if err != nil {
		return fmt.Errorf("lift ban %s: %w", applicantID, err)
	}
	zap.L().Info("applicant ban lifted", zap.String("applicant_id", applicantID), zap.String("actor", actor))
	return nil
}

// Status returns the ban gating the applicant right now, or nil.
func (s *Service) Status(ctx context.Context, applicantID string) (*domain.Ban, error) {
	b, err := store.LatestBan(ctx, s.DB, applicantID)
	if err != nil || b == nil {
		return nil, err
	}
	if !b.ActiveAt(s.now()) {
		return nil, nil
	}
	return b, nil
}

func (s *Service) IsBanned(ctx context.Context, applicantID string) (bool, error) {
	b, err := s.Status(ctx, applicantID)
	return b != nil, err
}

func (s *Service) History(ctx context.Context, applicantID string) ([]domain.ModerationEvent, error) {
	return store.ModerationHistory(ctx, s.DB, applicantID)
}
