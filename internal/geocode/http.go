package geocode

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPGeocoder calls a serverless geocoding function that answers
// {"latitude": n|null, "longitude": n|null}.
type HTTPGeocoder struct {
	Endpoint string
	APIKey   string
	Client   *http.Client
}

func NewHTTPGeocoder(endpoint, apiKey string, timeout time.Duration) *HTTPGeocoder {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &HTTPGeocoder{
		Endpoint: endpoint,
		APIKey:   apiKey,
		Client:   &http.Client{Timeout: timeout},
	}
}

type httpResponse struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Error     string   `json:"error"`
}

func (g *HTTPGeocoder) Geocode(ctx context.Context, req Request) (Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Result{}, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.Endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if g.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.APIKey)
	}

	resp, err := g.Client.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Result{}, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	var out httpResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&out); err != nil {
		return Result{}, fmt.Errorf("decode geocode response: %w", err)
	}
	if out.Error != "" {
		return Result{}, fmt.Errorf("geocoder: %s", out.Error)
	}
	return Result{Latitude: out.Latitude, Longitude: out.Longitude}, nil
}
