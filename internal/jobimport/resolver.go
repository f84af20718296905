package jobimport

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"jobmatch-engine/internal/domain"
	"jobmatch-engine/internal/geocode"
	"jobmatch-engine/internal/metrics"
)

// Gazetteer is a read-only, case-insensitive index over the location table.
type Gazetteer struct {
	byName map[string][]domain.MalaysiaLocation
	size   int
}

func NewGazetteer(locs []domain.MalaysiaLocation) *Gazetteer {
	g := &Gazetteer{byName: make(map[string][]domain.MalaysiaLocation, len(locs)), size: len(locs)}
	for _, l := range locs {
		key := strings.ToLower(strings.TrimSpace(l.Name))
		g.byName[key] = append(g.byName[key], l)
	}
	return g
}

func (g *Gazetteer) Len() int {
	if g == nil {
		return 0
	}
	return g.size
}

// Lookup matches city exactly (ignoring case). When state is non-blank it
// must match too. Aliases are not consulted.
func (g *Gazetteer) Lookup(city, state string) (domain.MalaysiaLocation, bool) {
	if g == nil {
		return domain.MalaysiaLocation{}, false
	}
	city = strings.ToLower(strings.TrimSpace(city))
	state = strings.TrimSpace(state)
	if city == "" {
		return domain.MalaysiaLocation{}, false
	}
	for _, l := range g.byName[city] {
		if state == "" || strings.EqualFold(strings.TrimSpace(l.State), state) {
			return l, true
		}
	}
	return domain.MalaysiaLocation{}, false
}

// ResolveLocal tags every row whose city is in the gazetteer. Running it
// twice yields the same rows. It returns how many rows it resolved.
func ResolveLocal(rows []ParsedRow, g *Gazetteer) int {
	n := 0
	for i := range rows {
		r := &rows[i]
		loc, ok := g.Lookup(r.Raw.Value(ColLocationCity), r.Raw.Value(ColLocationState))
		if !ok {
			continue
		}
		if r.applyResolution(ResolutionLocal, loc.Latitude, loc.Longitude) {
			n++
		}
	}
	return n
}

// Throttle spaces out calls to the geocoder. *rate.Limiter satisfies it.
type Throttle interface {
	Wait(ctx context.Context) error
}

type Progress struct {
	Stage   string `json:"stage"` // ai | import
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Percent int    `json:"percent"`
}

type AIResult struct {
	Total       int    `json:"total"`
	Resolved    int    `json:"resolved"`
	Failed      int    `json:"failed"`
	Aborted     bool   `json:"aborted"`
	AbortReason string `json:"abortReason,omitempty"`
}

type AIResolver struct {
	Geocoder geocode.Geocoder
	Throttle Throttle
	Country  string
}

func aiEligible(r ParsedRow) bool {
	return !r.LocationResolved && r.Importable() && r.Raw.Value(ColLocationCity) != ""
}

// Resolve asks the geocoder about each eligible row, one at a time and in
// row order. Quota errors stop the loop; any other per-row failure is
// counted and skipped. onProgress runs after every attempted row.
func (a *AIResolver) Resolve(ctx context.Context, rows []ParsedRow, onProgress func(Progress)) AIResult {
	var idx []int
	for i := range rows {
		if aiEligible(rows[i]) {
			idx = append(idx, i)
		}
	}
	res := AIResult{Total: len(idx)}

	country := a.Country
	if country == "" {
		country = "Malaysia"
	}

	for n, i := range idx {
		if a.Throttle != nil {
			if err := a.Throttle.Wait(ctx); err != nil {
				res.Aborted = true
				res.AbortReason = err.Error()
				return res
			}
		}

		r := &rows[i]
		out, err := a.Geocoder.Geocode(ctx, geocode.Request{
			City:     r.Raw.Value(ColLocationCity),
			State:    r.Raw.Value(ColLocationState),
			Address:  r.Raw.Value(ColLocationAddress),
			Postcode: r.Raw.Value(ColLocationPostcode),
			Country:  country,
		})
		switch {
		case geocode.IsQuotaError(err):
			metrics.GeocodeCalls.WithLabelValues("quota").Inc()
			res.Aborted = true
			res.AbortReason = err.Error()
			zap.L().Warn("ai location resolution aborted",
				zap.Int("row", r.RowNumber), zap.Int("done", n), zap.Int("total", res.Total), zap.Error(err))
			return res
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			res.Aborted = true
			res.AbortReason = err.Error()
			return res
		case err != nil:
			metrics.GeocodeCalls.WithLabelValues("error").Inc()
			res.Failed++
			zap.L().Debug("geocode failed", zap.Int("row", r.RowNumber), zap.Error(err))
		case !out.Valid():
			metrics.GeocodeCalls.WithLabelValues("unresolved").Inc()
			res.Failed++
		default:
			metrics.GeocodeCalls.WithLabelValues("resolved").Inc()
			if r.applyResolution(ResolutionAI, *out.Latitude, *out.Longitude) {
				res.Resolved++
			}
		}

		if onProgress != nil {
			onProgress(Progress{Stage: "ai", Current: n + 1, Total: res.Total, Percent: percent(n+1, res.Total)})
		}
	}
	return res
}

func percent(done, total int) int {
	if total <= 0 {
		return 100
	}
	return int(float64(done)/float64(total)*100 + 0.5)
}
