package jobimport

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"jobmatch-engine/internal/domain"
	"jobmatch-engine/internal/metrics"
)

var ErrNoValidRows = errors.New("No valid rows to import")

// JobWriter persists one chunk atomically.
type JobWriter interface {
	InsertJobs(ctx context.Context, jobs []domain.JobInsert) error
}

// Invalidator drops cached job views once any rows were written.
type Invalidator interface {
	InvalidateJobs(ctx context.Context) error
}

type Defaults struct {
	MinAge          int
	MaxAge          int
	ExperienceYears float64
}

type Importer struct {
	Store       JobWriter
	Cache       Invalidator // optional
	ChunkSize   int
	Defaults    Defaults
	Now         func() time.Time
	DefaultUser string
}

type ImportResult struct {
	Total            int `json:"total"`
	Inserted         int `json:"inserted"`
	LocationWarnings int `json:"locationWarnings"`
	Chunks           int `json:"chunks"`
	FailedChunk      int `json:"failedChunk,omitempty"` // 1-based; 0 when none failed
}

// Import writes every importable row in fixed-size chunks, one after the
// other. On a chunk failure it stops and returns the counts committed so
// far together with the error; earlier chunks stay committed.
func (im *Importer) Import(ctx context.Context, rows []ParsedRow, actor string, onProgress func(Progress)) (ImportResult, error) {
	var eligible []ParsedRow
	for _, r := range rows {
		if r.Importable() {
			eligible = append(eligible, r)
		}
	}
	res := ImportResult{Total: len(eligible)}
	if len(eligible) == 0 {
		return res, ErrNoValidRows
	}

	size := im.ChunkSize
	if size <= 0 {
		size = 50
	}
	now := time.Now
	if im.Now != nil {
		now = im.Now
	}
	if actor == "" {
		actor = im.DefaultUser
	}

	for start := 0; start < len(eligible); start += size {
		end := min(start+size, len(eligible))
		editedAt := now()

		chunk := make([]domain.JobInsert, 0, end-start)
		warnings := 0
		for _, r := range eligible[start:end] {
			j := im.toInsert(r, actor, editedAt)
			if !j.HasCoordinates() {
				warnings++
			}
			chunk = append(chunk, j)
		}

		res.Chunks++
		if err := im.Store.InsertJobs(ctx, chunk); err != nil {
			res.FailedChunk = res.Chunks
			metrics.ImportChunksFailed.Inc()
			zap.L().Error("import chunk failed",
				zap.Int("chunk", res.Chunks), zap.Int("inserted", res.Inserted), zap.Int("total", res.Total), zap.Error(err))
			if res.Inserted > 0 {
				im.invalidate(ctx)
			}
			return res, fmt.Errorf("insert chunk %d: %w", res.Chunks, err)
		}
		res.Inserted += len(chunk)
		res.LocationWarnings += warnings
		metrics.ImportRowsInserted.Add(float64(len(chunk)))

		if onProgress != nil {
			onProgress(Progress{Stage: "import", Current: res.Inserted, Total: res.Total, Percent: percent(res.Inserted, res.Total)})
		}
	}

	im.invalidate(ctx)
	return res, nil
}

func (im *Importer) invalidate(ctx context.Context) {
	if im.Cache == nil {
		return
	}
	if err := im.Cache.InvalidateJobs(ctx); err != nil {
		zap.L().Warn("job cache invalidation failed", zap.Error(err))
	}
}

func (im *Importer) toInsert(r ParsedRow, actor string, at time.Time) domain.JobInsert {
	raw := r.Raw
	gender, _ := normalizeGender(raw.Value(ColGenderRequirement))

	j := domain.JobInsert{
		ExternalJobID:      optional(raw.Value(ColExternalJobID)),
		Title:              raw.Value(ColTitle),
		Company:            optional(raw.Value(ColCompany)),
		Industry:           optional(raw.Value(ColIndustry)),
		LocationCity:       optional(raw.Value(ColLocationCity)),
		LocationState:      optional(raw.Value(ColLocationState)),
		SalaryRange:        optional(raw.Value(ColSalaryRange)),
		GenderRequirement:  gender,
		MinAge:             intOr(raw.Value(ColMinAge), im.Defaults.MinAge),
		MaxAge:             intOr(raw.Value(ColMaxAge), im.Defaults.MaxAge),
		MinExperienceYears: floatOr(raw.Value(ColMinExperienceYears), im.Defaults.ExperienceYears),
		ExpireBy:           raw.Value(ColExpireBy),
		URL:                optional(raw.Value(ColURL)),
		LastEditedAt:       at,
		LastEditedBy:       actor,
	}
	if r.LocationResolved && r.Latitude != nil && r.Longitude != nil {
		lat, lng := *r.Latitude, *r.Longitude
		j.Latitude, j.Longitude = &lat, &lng
	}
	return j
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func intOr(s string, def int) int {
	f, ok := parseNumber(s)
	if !ok {
		return def
	}
	return int(math.Trunc(f))
}

func floatOr(s string, def float64) float64 {
	f, ok := parseNumber(s)
	if !ok {
		return def
	}
	return f
}
