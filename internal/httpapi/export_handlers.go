package httpapi

import (
	"bytes"
	"database/sql"
	"net/http"
	"time"

	"jobmatch-engine/internal/export"
	"jobmatch-engine/internal/store"
)

type ExportHandler struct {
	DB  *sql.DB
	Now func() time.Time
}

func (h ExportHandler) Jobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	jobs, err := store.ListJobs(r.Context(), h.DB, store.ListJobsOpts{
		Sort: q.Get("sort"), Window: q.Get("window"), Limit: 50000,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.write(w, r, "jobs", export.JobHeader, export.JobRows(jobs))
}

// Moderation exports the audit trail, optionally for one applicant.
func (h ExportHandler) Moderation(w http.ResponseWriter, r *http.Request) {
	evs, err := store.ModerationHistory(r.Context(), h.DB, r.URL.Query().Get("applicant"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.write(w, r, "moderation", export.ModerationHeader, export.ModerationRows(evs))
}

func (h ExportHandler) write(w http.ResponseWriter, r *http.Request, prefix string, header []string, rows [][]string) {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}

	format := r.URL.Query().Get("format")
	var (
		buf         bytes.Buffer
		err         error
		contentType string
		ext         string
	)
	switch format {
	case "", "csv":
		contentType, ext = "text/csv; charset=utf-8", "csv"
		err = export.WriteCSV(&buf, header, rows)
	case "xlsx":
		contentType, ext = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx"
		err = export.WriteXLSX(&buf, prefix, header, rows)
	default:
		WriteError(w, r, http.StatusBadRequest, "invalid_format", "format must be csv or xlsx")
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(prefix, ext, now())+`"`)
	_, _ = w.Write(buf.Bytes())
}
