package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"jobmatch-engine/internal/config"
)

func f(v float64) *float64 { return &v }

func TestResultValid(t *testing.T) {
	cases := []struct {
		name string
		r    Result
		want bool
	}{
		{"ok", Result{f(3.1), f(101.7)}, true},
		{"missing", Result{nil, f(101.7)}, false},
		{"origin", Result{f(0), f(0)}, false},
		{"zero lat", Result{f(0), f(101.7)}, false},
		{"nan", Result{f(math.NaN()), f(101.7)}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.r.Valid())
		})
	}
}

func TestHTTPGeocoderSuccess(t *testing.T) {
	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"latitude":4.5975,"longitude":101.0901}`))
	}))
	defer srv.Close()

	g := NewHTTPGeocoder(srv.URL, "k", time.Second)
	res, err := g.Geocode(context.Background(), Request{City: "Ipoh", State: "Perak", Country: "Malaysia"})
	require.NoError(t, err)
	require.True(t, res.Valid())
	assert.InDelta(t, 4.5975, *res.Latitude, 1e-9)
	assert.Equal(t, "Ipoh", got.City)
	assert.Equal(t, "Malaysia", got.Country)
}

func TestHTTPGeocoderStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		quota  bool
		target error
	}{
		{http.StatusTooManyRequests, true, ErrRateLimited},
		{http.StatusPaymentRequired, true, ErrPaymentRequired},
		{http.StatusInternalServerError, false, nil},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", tc.status)
		}))
		_, err := NewHTTPGeocoder(srv.URL, "", time.Second).Geocode(context.Background(), Request{City: "x"})
		srv.Close()

		require.Error(t, err)
		assert.Equal(t, tc.quota, IsQuotaError(err), "status %d", tc.status)
		if tc.target != nil {
			assert.ErrorIs(t, err, tc.target)
		}
		var se *StatusError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, tc.status, se.StatusCode)
	}
}

func TestHTTPGeocoderNullCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"latitude":null,"longitude":null}`))
	}))
	defer srv.Close()

	res, err := NewHTTPGeocoder(srv.URL, "", time.Second).Geocode(context.Background(), Request{City: "Nowhere"})
	require.NoError(t, err)
	assert.False(t, res.Valid())
}

func TestParseModelReply(t *testing.T) {
	res, err := parseModelReply("```json\n{\"latitude\": 5.98, \"longitude\": 116.07}\n```")
	require.NoError(t, err)
	assert.True(t, res.Valid())

	res, err = parseModelReply(`{"latitude": null, "longitude": null}`)
	require.NoError(t, err)
	assert.False(t, res.Valid())

	_, err = parseModelReply("I am not sure")
	assert.Error(t, err)
}

func TestHostLimiterSharesPerHost(t *testing.T) {
	hl := NewHostLimiter(time.Hour)
	a := hl.For("https://geo.example.com/functions/v1/geocode")
	b := hl.For("https://geo.example.com/other")
	c := hl.For("https://api.openai.com/v1")
	assert.Same(t, a, b)
	assert.NotSame(t, a, c)

	// burst of one: first call is free, the second would wait an hour
	assert.True(t, a.Allow())
	assert.False(t, a.Allow())
}

func TestHostLimiterUnlimited(t *testing.T) {
	lim := NewHostLimiter(0).For("x")
	for i := 0; i < 100; i++ {
		require.NoError(t, lim.Wait(context.Background()))
	}
}

func TestHostLimiterSetIntervalRetunesExisting(t *testing.T) {
	hl := NewHostLimiter(time.Hour)
	lim := hl.For("https://geo.example.com/geocode")
	assert.Equal(t, rate.Every(time.Hour), lim.Limit())

	hl.SetInterval(100 * time.Millisecond)
	assert.Equal(t, rate.Every(100*time.Millisecond), lim.Limit())
	assert.Same(t, lim, hl.For("https://geo.example.com/other"))
	assert.Equal(t, rate.Every(100*time.Millisecond), hl.For("https://api.openai.com/v1").Limit())

	hl.SetInterval(0)
	assert.Equal(t, rate.Inf, lim.Limit())
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	_, _, err := FromConfig(cfg)
	assert.ErrorIs(t, err, ErrNotConfigured)

	cfg.Geocode.Provider = "http"
	cfg.Geocode.Endpoint = "https://geo.example.com/geocode"
	g, key, err := FromConfig(cfg)
	require.NoError(t, err)
	assert.IsType(t, &HTTPGeocoder{}, g)
	assert.Equal(t, cfg.Geocode.Endpoint, key)

	cfg.Geocode.Provider = "openai"
	_, _, err = FromConfig(cfg)
	assert.ErrorIs(t, err, ErrNotConfigured)

	cfg.Geocode.APIKey = "sk-test"
	g, key, err = FromConfig(cfg)
	require.NoError(t, err)
	assert.IsType(t, &OpenAIGeocoder{}, g)
	assert.Equal(t, openAIDefaultEndpoint, key)
}
