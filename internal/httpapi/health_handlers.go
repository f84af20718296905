package httpapi

import (
	"database/sql"
	"net/http"

	"jobmatch-engine/internal/events"
	"jobmatch-engine/internal/jobimport"
)

type HealthHandler struct {
	DB       *sql.DB
	Hub      *events.Hub
	Sessions *jobimport.Sessions
}

func (h HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := map[string]any{"ok": true}
	if h.DB != nil {
		if err := h.DB.PingContext(r.Context()); err != nil {
			status = http.StatusServiceUnavailable
			body["ok"] = false
			body["db"] = err.Error()
		}
	}
	if h.Sessions != nil {
		body["importSessions"] = h.Sessions.Len()
	}
	if h.Hub != nil {
		body["subscribers"] = h.Hub.Subscribers()
	}
	WriteJSON(w, status, body)
}
