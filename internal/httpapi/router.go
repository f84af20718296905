package httpapi

import (
	"net/http"

	"jobmatch-engine/internal/metrics"
	"jobmatch-engine/internal/store"
)

// NewMux returns the raw mux so main() can still attach /shutdown (needs srv+token).
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	hh := HealthHandler{DB: d.DB, Hub: d.Hub, Sessions: d.Sessions}
	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hh.Health,
	}))
	mux.Handle("/metrics", metrics.Handler())

	// Jobs
	jh := JobsHandler{DB: d.DB, Hub: d.Hub, Views: d.Views, CfgVal: d.CfgVal, Now: d.Now}
	mux.HandleFunc("/jobs", methodMux(map[string]http.HandlerFunc{
		http.MethodGet:  jh.List,
		http.MethodPost: jh.Create,
	}))
	mux.HandleFunc("/jobs/count", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: jh.Count,
	}))
	mux.HandleFunc("/jobs/", methodMux(map[string]http.HandlerFunc{
		http.MethodDelete: jh.DeleteByPath, // expects /jobs/{id}
	}))

	// Bulk import
	ih := ImportHandler{
		Store:         store.Jobs{DB: d.DB},
		Hub:           d.Hub,
		CfgVal:        d.CfgVal,
		Sessions:      d.Sessions,
		Views:         d.Views,
		Lock:          d.ImportLock,
		NewAIResolver: d.NewAIResolver,
		Background:    d.background,
	}
	mux.HandleFunc("/imports", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ih.Open,
	}))
	mux.HandleFunc("/imports/template", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ih.Template,
	}))
	mux.HandleFunc("/imports/", ih.Route)

	lh := LocationsHandler{DB: d.DB}
	mux.HandleFunc("/locations", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: lh.List,
	}))

	// Exports
	xh := ExportHandler{DB: d.DB, Now: d.Now}
	mux.HandleFunc("/export/jobs", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: xh.Jobs,
	}))
	mux.HandleFunc("/export/moderation", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: xh.Moderation,
	}))

	// Moderation
	mh := ModerationHandler{Svc: d.Moderation, Hub: d.Hub, DefaultActor: d.cfg().App.DefaultActor}
	mux.HandleFunc("/applicants/", mh.Route)

	// Config
	ch := ConfigHandler{
		CfgVal:      d.CfgVal,
		UserCfgPath: d.UserCfgPath,
		LoadCfg:     d.LoadCfg,
	}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Get,
		http.MethodPut: ch.Put,
	}))
	mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Path,
	}))
	mux.HandleFunc("/config/validate", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Validate,
	}))

	// Secrets (use cfgVal, NOT a snapshot cfg)
	sh := SecretsHandler{CfgVal: d.CfgVal}
	mux.HandleFunc("/api/secrets/geocode", methodMux(map[string]http.HandlerFunc{
		http.MethodPost:   sh.SetGeocodeKey,
		http.MethodDelete: sh.DeleteGeocodeKey,
	}))

	dh := DBHandler{DB: d.DB}
	mux.HandleFunc("/db/checkpoint", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: dh.Checkpoint,
	}))

	// SSE events
	eh := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	return mux
}
