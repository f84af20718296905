package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ImportRowsParsed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jobmatch_import_rows_parsed_total",
		Help: "Data rows read from uploaded job files.",
	})
	ImportRowsInserted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jobmatch_import_rows_inserted_total",
		Help: "Job rows written by the batch importer.",
	})
	ImportChunksFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jobmatch_import_chunks_failed_total",
		Help: "Import chunks rolled back by the store.",
	})
	GeocodeCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobmatch_geocode_calls_total",
		Help: "AI geocoder calls by outcome.",
	}, []string{"outcome"})
	BansIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jobmatch_bans_issued_total",
		Help: "Applicant bans recorded.",
	})
)

func Handler() http.Handler { return promhttp.Handler() }
