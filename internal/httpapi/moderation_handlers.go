package httpapi

import (
	"net/http"

	"jobmatch-engine/internal/events"
	"jobmatch-engine/internal/moderation"
)

type ModerationHandler struct {
	Svc          *moderation.Service
	Hub          *events.Hub
	DefaultActor string
}

type banReq struct {
	Duration string `json:"duration" validate:"required"`
	Reason   string `json:"reason" validate:"required,max=500"`
}

type liftReq struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

// Route dispatches /applicants/{id}/ban and /applicants/{id}/ban/history.
func (h ModerationHandler) Route(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r.URL.Path, "/applicants/")
	switch {
	case len(parts) == 2 && parts[1] == "ban":
		methodMux(map[string]http.HandlerFunc{
			http.MethodGet:    func(w http.ResponseWriter, r *http.Request) { h.status(w, r, parts[0]) },
			http.MethodPost:   func(w http.ResponseWriter, r *http.Request) { h.ban(w, r, parts[0]) },
			http.MethodDelete: func(w http.ResponseWriter, r *http.Request) { h.lift(w, r, parts[0]) },
		})(w, r)
	case len(parts) == 3 && parts[1] == "ban" && parts[2] == "history":
		methodMux(map[string]http.HandlerFunc{
			http.MethodGet: func(w http.ResponseWriter, r *http.Request) { h.history(w, r, parts[0]) },
		})(w, r)
	default:
		WriteError(w, r, http.StatusNotFound, "not_found", "not found")
	}
}

func (h ModerationHandler) actor(r *http.Request) string {
	if a := ActorFrom(r.Context()); a != "" {
		return a
	}
	return h.DefaultActor
}

func (h ModerationHandler) ban(w http.ResponseWriter, r *http.Request, applicant string) {
	var req banReq
	if !decodeValid(w, r, &req) {
		return
	}
	b, err := h.Svc.Ban(r.Context(), moderation.BanRequest{
		ApplicantID: applicant,
		Duration:    req.Duration,
		Reason:      req.Reason,
		Actor:       h.actor(r),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.Hub.Emit(RequestIDFrom(r.Context()), events.TypeBanChanged, map[string]any{"applicantId": applicant, "banned": true})
	WriteJSON(w, http.StatusCreated, b)
}

func (h ModerationHandler) lift(w http.ResponseWriter, r *http.Request, applicant string) {
	var req liftReq
	if r.ContentLength != 0 && !decodeValid(w, r, &req) {
		return
	}
	if err := h.Svc.Lift(r.Context(), applicant, h.actor(r), req.Reason); err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.Hub.Emit(RequestIDFrom(r.Context()), events.TypeBanChanged, map[string]any{"applicantId": applicant, "banned": false})
	w.WriteHeader(http.StatusNoContent)
}

func (h ModerationHandler) status(w http.ResponseWriter, r *http.Request, applicant string) {
	b, err := h.Svc.Status(r.Context(), applicant)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"applicantId": applicant, "banned": b != nil, "ban": b})
}

func (h ModerationHandler) history(w http.ResponseWriter, r *http.Request, applicant string) {
	evs, err := h.Svc.History(r.Context(), applicant)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, evs)
}
