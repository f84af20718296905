package export

import (
	"strconv"
	"time"

	"jobmatch-engine/internal/domain"
)

var JobHeader = []string{
	"id", "external_job_id", "title", "company", "industry", "location_city", "location_state",
	"salary_range", "gender_requirement", "min_age", "max_age", "min_experience_years", "expire_by",
	"url", "latitude", "longitude", "created_at", "last_edited_at", "last_edited_by",
}

func JobRows(jobs []domain.Job) [][]string {
	out := make([][]string, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, []string{
			strconv.FormatInt(j.ID, 10), deref(j.ExternalJobID), j.Title, deref(j.Company), deref(j.Industry),
			deref(j.LocationCity), deref(j.LocationState), deref(j.SalaryRange), j.GenderRequirement,
			strconv.Itoa(j.MinAge), strconv.Itoa(j.MaxAge), strconv.FormatFloat(j.MinExperienceYears, 'f', -1, 64),
			j.ExpireBy, deref(j.URL), coord(j.Latitude), coord(j.Longitude), j.CreatedAt, j.LastEditedAt, j.LastEditedBy,
		})
	}
	return out
}

var ModerationHeader = []string{"id", "applicant_id", "action", "actor", "detail", "at"}

func ModerationRows(events []domain.ModerationEvent) [][]string {
	out := make([][]string, 0, len(events))
	for _, e := range events {
		out = append(out, []string{
			strconv.FormatInt(e.ID, 10), e.ApplicantID, e.Action, e.Actor, e.Detail, e.At.UTC().Format(time.RFC3339),
		})
	}
	return out
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func coord(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}
