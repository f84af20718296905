package geocode

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
)

// Quota errors end an AI resolution pass; every other error is per-row.
var (
	ErrRateLimited     = errors.New("geocoder rate limit exceeded")
	ErrPaymentRequired = errors.New("geocoder credits exhausted")
	ErrNotConfigured   = errors.New("no geocoder configured")
)

type Request struct {
	City     string `json:"city"`
	State    string `json:"state,omitempty"`
	Address  string `json:"address,omitempty"`
	Postcode string `json:"postcode,omitempty"`
	Country  string `json:"country"`
}

type Result struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Valid is false for a missing pair, for non-finite values and for any zero
// coordinate; (0,0) is how providers say "no idea".
func (r Result) Valid() bool {
	if r.Latitude == nil || r.Longitude == nil {
		return false
	}
	lat, lng := *r.Latitude, *r.Longitude
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	return lat != 0 && lng != 0
}

type Geocoder interface {
	Geocode(ctx context.Context, req Request) (Result, error)
}

// StatusError is a non-2xx provider response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("geocoder status %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	case ErrPaymentRequired:
		return e.StatusCode == http.StatusPaymentRequired
	}
	return false
}

func IsQuotaError(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrPaymentRequired)
}

// Unconfigured always fails with ErrNotConfigured.
type Unconfigured struct{}

func (Unconfigured) Geocode(context.Context, Request) (Result, error) {
	return Result{}, ErrNotConfigured
}
