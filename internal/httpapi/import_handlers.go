package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"go.uber.org/zap"

	"jobmatch-engine/internal/cache"
	"jobmatch-engine/internal/config"
	"jobmatch-engine/internal/events"
	"jobmatch-engine/internal/jobimport"
	"jobmatch-engine/internal/store"
)

// ImportHandler drives the bulk-import dialog. Each dialog is one session;
// the AI and commit stages run in the background and report over /events.
type ImportHandler struct {
	Store         store.Jobs
	Hub           *events.Hub
	CfgVal        *atomic.Value
	Sessions      *jobimport.Sessions
	Views         *cache.JobViews
	Lock          *store.ImportLock
	NewAIResolver func(cfg config.Config) (*jobimport.AIResolver, error)
	Background    func() context.Context
}

func (h ImportHandler) cfg() config.Config {
	return h.CfgVal.Load().(config.Config)
}

func (h ImportHandler) Template(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+jobimport.TemplateFilename+`"`)
	_, _ = io.WriteString(w, jobimport.TemplateCSV())
}

func (h ImportHandler) Open(w http.ResponseWriter, r *http.Request) {
	s, err := h.Sessions.Open(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, s.Snapshot())
}

// Route dispatches /imports/{id}[/action].
func (h ImportHandler) Route(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r.URL.Path, "/imports/")
	if len(parts) == 0 || len(parts) > 2 {
		WriteError(w, r, http.StatusNotFound, "not_found", "not found")
		return
	}
	s, err := h.Sessions.Get(parts[0])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	action := ""
	if len(parts) == 2 {
		action = parts[1]
	}
	routes := map[string]map[string]func(http.ResponseWriter, *http.Request, *jobimport.Session){
		"":        {http.MethodGet: h.get, http.MethodDelete: h.close},
		"file":    {http.MethodPost: h.upload, http.MethodPut: h.upload},
		"resolve": {http.MethodPost: h.resolve},
		"commit":  {http.MethodPost: h.commit},
	}
	byMethod, ok := routes[action]
	if !ok {
		WriteError(w, r, http.StatusNotFound, "not_found", "not found")
		return
	}
	fn, ok := byMethod[r.Method]
	if !ok {
		WriteError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	fn(w, r, s)
}

func (h ImportHandler) get(w http.ResponseWriter, r *http.Request, s *jobimport.Session) {
	writeJSON(w, s.Snapshot())
}

func (h ImportHandler) close(w http.ResponseWriter, r *http.Request, s *jobimport.Session) {
	if err := h.Sessions.Close(s.ID()); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// upload accepts either a multipart form with a "file" part or the raw CSV
// as the request body (name in X-File-Name or ?filename=).
func (h ImportHandler) upload(w http.ResponseWriter, r *http.Request, s *jobimport.Session) {
	limit := h.cfg().Import.MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	var (
		name string
		body io.Reader
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		f, fh, err := r.FormFile("file")
		if err != nil {
			WriteError(w, r, http.StatusBadRequest, "invalid_upload", "expected a multipart field named file: "+err.Error())
			return
		}
		defer f.Close()
		name, body = fh.Filename, f
	} else {
		name = r.Header.Get("X-File-Name")
		if name == "" {
			name = r.URL.Query().Get("filename")
		}
		body = r.Body
	}

	b, err := io.ReadAll(body)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			WriteError(w, r, http.StatusRequestEntityTooLarge, "file_too_large", "file exceeds the upload limit")
			return
		}
		WriteError(w, r, http.StatusBadRequest, "invalid_upload", err.Error())
		return
	}
	if !utf8.Valid(b) {
		WriteError(w, r, http.StatusUnprocessableEntity, "invalid_encoding", "file must be UTF-8 encoded")
		return
	}
	if name == "" {
		name = "upload.csv"
	}

	summary, err := s.SelectFile(name, string(b))
	if err != nil {
		zap.L().Info("import file rejected",
			zap.String("request_id", RequestIDFrom(r.Context())), zap.String("session", s.ID()),
			zap.String("file", name), zap.Error(err))
		writeServiceError(w, r, err)
		return
	}
	zap.L().Info("import file parsed",
		zap.String("request_id", RequestIDFrom(r.Context())), zap.String("session", s.ID()),
		zap.String("file", name), zap.Int("rows", summary.Total), zap.Int("ready", summary.ReadyCount),
		zap.Int("existing", summary.ExistingCount), zap.Int("errors", summary.ErrorCount))
	writeJSON(w, s.Snapshot())
}

func (h ImportHandler) resolve(w http.ResponseWriter, r *http.Request, s *jobimport.Session) {
	cfg := h.cfg()
	resolver, err := h.NewAIResolver(cfg)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	run, err := s.StartAI(resolver)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	reqID := RequestIDFrom(r.Context())
	id := s.ID()
	go func() {
		ctx, cancel := context.WithTimeout(h.Background(), cfg.RunTimeout())
		defer cancel()

		res := run(ctx, func(p jobimport.Progress) {
			h.Hub.Emit(reqID, events.TypeAIProgress, map[string]any{"sessionId": id, "progress": p})
		})
		zap.L().Info("ai resolution finished",
			zap.String("request_id", reqID), zap.String("session", id),
			zap.Int("total", res.Total), zap.Int("resolved", res.Resolved), zap.Int("failed", res.Failed),
			zap.Bool("aborted", res.Aborted), zap.String("reason", res.AbortReason))
		h.Hub.Emit(reqID, events.TypeAIDone, map[string]any{"sessionId": id, "result": res})
	}()

	WriteJSON(w, http.StatusAccepted, s.Snapshot())
}

func (h ImportHandler) commit(w http.ResponseWriter, r *http.Request, s *jobimport.Session) {
	cfg := h.cfg()
	if snap := s.Snapshot(); !snap.State.Busy() && snap.Summary.ReadyCount == 0 {
		writeServiceError(w, r, jobimport.ErrNoValidRows)
		return
	}

	release := func() {}
	if h.Lock != nil {
		rel, err := h.Lock.TryAcquire()
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		release = rel
	}

	actor := ActorFrom(r.Context())
	im := &jobimport.Importer{
		Store:     h.Store,
		ChunkSize: cfg.Import.ChunkSize,
		Defaults: jobimport.Defaults{
			MinAge:          cfg.Import.DefaultMinAge,
			MaxAge:          cfg.Import.DefaultMaxAge,
			ExperienceYears: cfg.Import.DefaultExperienceYears,
		},
		DefaultUser: cfg.App.DefaultActor,
	}
	if h.Views != nil {
		im.Cache = h.Views
	}

	run, err := s.StartCommit(im, actor)
	if err != nil {
		release()
		writeServiceError(w, r, err)
		return
	}

	reqID := RequestIDFrom(r.Context())
	id := s.ID()
	go func() {
		defer release()
		ctx, cancel := context.WithTimeout(h.Background(), cfg.RunTimeout())
		defer cancel()

		res, err := run(ctx, func(p jobimport.Progress) {
			h.Hub.Emit(reqID, events.TypeImportProgress, map[string]any{"sessionId": id, "progress": p})
		})
		if res.Inserted > 0 {
			h.Hub.Emit(reqID, events.TypeJobsImported, map[string]any{"count": res.Inserted})
		}
		if err != nil {
			zap.L().Error("import failed",
				zap.String("request_id", reqID), zap.String("session", id),
				zap.Int("inserted", res.Inserted), zap.Int("total", res.Total), zap.Error(err))
			h.Hub.Emit(reqID, events.TypeImportFailed, map[string]any{"sessionId": id, "result": res, "error": err.Error()})
			return
		}
		zap.L().Info("import finished",
			zap.String("request_id", reqID), zap.String("session", id), zap.String("actor", actor),
			zap.Int("inserted", res.Inserted), zap.Int("chunks", res.Chunks), zap.Int("location_warnings", res.LocationWarnings))
		h.Hub.Emit(reqID, events.TypeImportDone, map[string]any{"sessionId": id, "result": res})
	}()

	WriteJSON(w, http.StatusAccepted, s.Snapshot())
}
