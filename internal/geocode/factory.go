package geocode

import (
	"fmt"

	"jobmatch-engine/internal/config"
)

const openAIDefaultEndpoint = "https://api.openai.com/v1"

// FromConfig builds the configured provider and the host key its calls
// should be throttled under.
func FromConfig(cfg config.Config) (Geocoder, string, error) {
	switch cfg.Geocode.Provider {
	case "http":
		return NewHTTPGeocoder(cfg.Geocode.Endpoint, cfg.Geocode.APIKey, cfg.GeocodeTimeout()), cfg.Geocode.Endpoint, nil
	case "openai":
		if cfg.Geocode.APIKey == "" {
			return Unconfigured{}, "", fmt.Errorf("geocode.provider=openai needs an API key: %w", ErrNotConfigured)
		}
		endpoint := cfg.Geocode.OpenAIBaseURL
		if endpoint == "" {
			endpoint = openAIDefaultEndpoint
		}
		return NewOpenAIGeocoder(cfg.Geocode.APIKey, cfg.Geocode.OpenAIBaseURL, cfg.Geocode.OpenAIModel, cfg.GeocodeTimeout()), endpoint, nil
	case "", "none":
		return Unconfigured{}, "", ErrNotConfigured
	default:
		return Unconfigured{}, "", fmt.Errorf("unknown geocode provider %q", cfg.Geocode.Provider)
	}
}
