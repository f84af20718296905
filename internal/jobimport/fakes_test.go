package jobimport

import (
	"context"
	"errors"
	"sync"

	"jobmatch-engine/internal/domain"
	"jobmatch-engine/internal/geocode"
)

var testGazetteer = []domain.MalaysiaLocation{
	{Name: "Kuala Lumpur", State: "Kuala Lumpur", Latitude: 3.139, Longitude: 101.6869, Aliases: []string{"KL"}},
	{Name: "Ipoh", State: "Perak", Latitude: 4.5975, Longitude: 101.0901},
	{Name: "Bandar Baru", State: "Selangor", Latitude: 3.0, Longitude: 101.5},
	{Name: "Bandar Baru", State: "Kedah", Latitude: 6.0, Longitude: 100.5},
}

type recordingWriter struct {
	mu     sync.Mutex
	calls  [][]domain.JobInsert
	failOn int // 1-based call number that fails; 0 never
}

func (w *recordingWriter) InsertJobs(_ context.Context, jobs []domain.JobInsert) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failOn > 0 && len(w.calls)+1 == w.failOn {
		w.failOn = 0
		return errors.New("database is locked")
	}
	w.calls = append(w.calls, jobs)
	return nil
}

func (w *recordingWriter) inserted() int {
	n := 0
	for _, c := range w.calls {
		n += len(c)
	}
	return n
}

type countingInvalidator struct{ n int }

func (c *countingInvalidator) InvalidateJobs(context.Context) error {
	c.n++
	return nil
}

type scriptedGeocoder struct {
	answers map[string]func() (geocode.Result, error)
	seen    []geocode.Request
}

func (g *scriptedGeocoder) Geocode(_ context.Context, req geocode.Request) (geocode.Result, error) {
	g.seen = append(g.seen, req)
	if fn, ok := g.answers[req.City]; ok {
		return fn()
	}
	return geocode.Result{}, nil
}

func coords(lat, lng float64) func() (geocode.Result, error) {
	return func() (geocode.Result, error) { return geocode.Result{Latitude: &lat, Longitude: &lng}, nil }
}

func fails(err error) func() (geocode.Result, error) {
	return func() (geocode.Result, error) { return geocode.Result{}, err }
}

type staticSource struct {
	locs []domain.MalaysiaLocation
	ids  []string
	err  error
}

func (s staticSource) ListLocations(context.Context) ([]domain.MalaysiaLocation, error) {
	return s.locs, s.err
}

func (s staticSource) ExistingExternalIDs(context.Context) ([]string, error) {
	return s.ids, nil
}

func rowWithCity(n int, city, state string) ParsedRow {
	raw := validRow()
	raw[ColLocationCity] = city
	raw[ColLocationState] = state
	return NewParsedRow(n, raw)
}
