package secrets

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/zalando/go-keyring"

	"jobmatch-engine/internal/config"
)

const (
	// "Service" groups the engine's secrets in the OS keychain.
	KeyringService = "jobmatch"
)

var ErrNoKey = errors.New("geocoder API key not found (set it in keychain or via JOBMATCH_GEOCODE_API_KEY)")

func GetGeocodeKey(keyringAccount string) (string, error) {
	if strings.TrimSpace(keyringAccount) != "" {
		key, err := keyring.Get(KeyringService, keyringAccount)
		if err == nil && strings.TrimSpace(key) != "" {
			return key, nil
		}
	}
	return "", ErrNoKey
}

func SetGeocodeKey(keyringAccount string, key string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(key) == "" {
		return errors.New("api key is empty")
	}
	return keyring.Set(KeyringService, keyringAccount, key)
}

func DeleteGeocodeKey(keyringAccount string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, keyringAccount)
}

// GeocodeKeyringAccount names the key by provider and host, so switching
// endpoints does not reuse a key meant for another service.
func GeocodeKeyringAccount(cfg config.Config) string {
	host := "default"
	raw := cfg.Geocode.Endpoint
	if cfg.Geocode.Provider == "openai" {
		raw = cfg.Geocode.OpenAIBaseURL
	}
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		host = u.Host
	}
	return fmt.Sprintf("jobmatch:geocode:%s@%s", cfg.Geocode.Provider, host)
}

// ResolveGeocodeKey prefers a key already on cfg (from env) over the keyring.
func ResolveGeocodeKey(cfg *config.Config) {
	if cfg.Geocode.APIKey != "" || cfg.Geocode.Provider == "none" {
		return
	}
	if key, err := GetGeocodeKey(GeocodeKeyringAccount(*cfg)); err == nil {
		cfg.Geocode.APIKey = key
	}
}
