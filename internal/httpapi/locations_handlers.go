package httpapi

import (
	"database/sql"
	"net/http"
	"strings"

	"jobmatch-engine/internal/domain"
	"jobmatch-engine/internal/store"
)

type LocationsHandler struct {
	DB *sql.DB
}

// List returns the gazetteer, optionally filtered by ?state= (case-insensitive).
func (h LocationsHandler) List(w http.ResponseWriter, r *http.Request) {
	locs, err := store.ListLocations(r.Context(), h.DB)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if state := strings.TrimSpace(r.URL.Query().Get("state")); state != "" {
		filtered := make([]domain.MalaysiaLocation, 0, len(locs))
		for _, l := range locs {
			if strings.EqualFold(l.State, state) {
				filtered = append(filtered, l)
			}
		}
		locs = filtered
	}
	writeJSON(w, locs)
}
