package httpapi

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"jobmatch-engine/internal/cache"
	"jobmatch-engine/internal/config"
	"jobmatch-engine/internal/domain"
	"jobmatch-engine/internal/events"
	"jobmatch-engine/internal/jobimport"
	"jobmatch-engine/internal/store"
)

type JobsHandler struct {
	DB     *sql.DB
	Hub    *events.Hub
	Views  *cache.JobViews
	CfgVal *atomic.Value
	Now    func() time.Time
}

func (h JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := store.ListJobsOpts{Sort: q.Get("sort"), Window: q.Get("window"), Limit: 50000}
	view := "list:" + opts.Sort + ":" + opts.Window

	var jobs []domain.Job
	if h.Views != nil && h.Views.Get(r.Context(), view, &jobs) {
		writeJSON(w, jobs)
		return
	}
	jobs, err := store.ListJobs(r.Context(), h.DB, opts)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if jobs == nil {
		jobs = []domain.Job{}
	}
	if h.Views != nil {
		h.Views.Set(r.Context(), view, jobs)
	}
	writeJSON(w, jobs)
}

func (h JobsHandler) Count(w http.ResponseWriter, r *http.Request) {
	var n int64
	if h.Views != nil && h.Views.Get(r.Context(), "count", &n) {
		writeJSON(w, map[string]any{"count": n})
		return
	}
	n, err := store.CountJobs(r.Context(), h.DB)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if h.Views != nil {
		h.Views.Set(r.Context(), "count", n)
	}
	writeJSON(w, map[string]any{"count": n})
}

type createJobReq struct {
	ExternalJobID      string   `json:"externalJobId" validate:"omitempty,max=128"`
	Title              string   `json:"title" validate:"required,max=200"`
	Company            string   `json:"company" validate:"omitempty,max=200"`
	Industry           string   `json:"industry" validate:"omitempty,max=100"`
	LocationCity       string   `json:"locationCity" validate:"omitempty,max=100"`
	LocationState      string   `json:"locationState" validate:"omitempty,max=100"`
	SalaryRange        string   `json:"salaryRange" validate:"omitempty,max=100"`
	GenderRequirement  string   `json:"genderRequirement" validate:"omitempty,oneof=any male female"`
	MinAge             *int     `json:"minAge" validate:"omitempty,gte=0,lte=100"`
	MaxAge             *int     `json:"maxAge" validate:"omitempty,gte=0,lte=100"`
	MinExperienceYears *float64 `json:"minExperienceYears" validate:"omitempty,gte=0"`
	ExpireBy           string   `json:"expireBy" validate:"required,datetime=2006-01-02"`
	URL                string   `json:"url" validate:"omitempty,url"`
	Latitude           *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude          *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
}

// Create adds a single job typed in by staff. Missing coordinates are
// looked up in the gazetteer; there is no AI fallback here.
func (h JobsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createJobReq
	if !decodeValid(w, r, &req) {
		return
	}
	cfg := h.CfgVal.Load().(config.Config)

	actor := ActorFrom(r.Context())
	if actor == "" {
		actor = cfg.App.DefaultActor
	}
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}

	j := domain.JobInsert{
		ExternalJobID:      optional(req.ExternalJobID),
		Title:              strings.TrimSpace(req.Title),
		Company:            optional(req.Company),
		Industry:           optional(req.Industry),
		LocationCity:       optional(req.LocationCity),
		LocationState:      optional(req.LocationState),
		SalaryRange:        optional(req.SalaryRange),
		GenderRequirement:  req.GenderRequirement,
		MinAge:             cfg.Import.DefaultMinAge,
		MaxAge:             cfg.Import.DefaultMaxAge,
		MinExperienceYears: cfg.Import.DefaultExperienceYears,
		ExpireBy:           req.ExpireBy,
		URL:                optional(req.URL),
		Latitude:           req.Latitude,
		Longitude:          req.Longitude,
		LastEditedAt:       now(),
		LastEditedBy:       actor,
	}
	if j.GenderRequirement == "" {
		j.GenderRequirement = "any"
	}
	if req.MinAge != nil {
		j.MinAge = *req.MinAge
	}
	if req.MaxAge != nil {
		j.MaxAge = *req.MaxAge
	}
	if req.MinExperienceYears != nil {
		j.MinExperienceYears = *req.MinExperienceYears
	}

	if !j.HasCoordinates() && j.LocationCity != nil {
		locs, err := store.ListLocations(r.Context(), h.DB)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		state := ""
		if j.LocationState != nil {
			state = *j.LocationState
		}
		if loc, ok := jobimport.NewGazetteer(locs).Lookup(*j.LocationCity, state); ok {
			j.Latitude, j.Longitude = &loc.Latitude, &loc.Longitude
		}
	}

	id, err := store.CreateJob(r.Context(), h.DB, j)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.invalidate(r)

	reqID := RequestIDFrom(r.Context())
	h.Hub.Emit(reqID, events.TypeJobCreated, map[string]any{"id": id})
	WriteJSON(w, http.StatusCreated, map[string]any{
		"id":               id,
		"locationResolved": j.HasCoordinates(),
	})
}

func (h JobsHandler) DeleteByPath(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/jobs/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		WriteError(w, r, http.StatusBadRequest, "invalid_id", "invalid id")
		return
	}

	if err := store.DeleteJob(r.Context(), h.DB, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.invalidate(r)

	reqID := RequestIDFrom(r.Context())
	h.Hub.Emit(reqID, events.TypeJobDeleted, map[string]any{"id": id})
	writeJSON(w, map[string]any{"ok": true, "id": id})
}

func (h JobsHandler) invalidate(r *http.Request) {
	if h.Views == nil {
		return
	}
	if err := h.Views.InvalidateJobs(r.Context()); err != nil {
		zap.L().Warn("job cache invalidation failed", zap.String("request_id", RequestIDFrom(r.Context())), zap.Error(err))
	}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
