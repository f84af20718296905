package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"jobmatch-engine/internal/config"
)

func TestGeocodeKeyringAccount(t *testing.T) {
	cfg := config.Default()
	cfg.Geocode.Provider = "http"
	cfg.Geocode.Endpoint = "https://abc.supabase.co/functions/v1/geocode-location"
	assert.Equal(t, "jobmatch:geocode:http@abc.supabase.co", GeocodeKeyringAccount(cfg))

	cfg.Geocode.Provider = "openai"
	assert.Equal(t, "jobmatch:geocode:openai@default", GeocodeKeyringAccount(cfg))
}

func TestGeocodeKeyRoundTrip(t *testing.T) {
	keyring.MockInit()

	_, err := GetGeocodeKey("acct")
	assert.ErrorIs(t, err, ErrNoKey)

	require.NoError(t, SetGeocodeKey("acct", "sk-123"))
	key, err := GetGeocodeKey("acct")
	require.NoError(t, err)
	assert.Equal(t, "sk-123", key)

	require.NoError(t, DeleteGeocodeKey("acct"))
	_, err = GetGeocodeKey("acct")
	assert.ErrorIs(t, err, ErrNoKey)

	assert.Error(t, SetGeocodeKey("", "x"))
	assert.Error(t, SetGeocodeKey("acct", " "))
}

func TestResolveGeocodeKeyPrefersEnv(t *testing.T) {
	keyring.MockInit()
	cfg := config.Default()
	cfg.Geocode.Provider = "http"
	cfg.Geocode.Endpoint = "https://geo.example.com/x"
	require.NoError(t, SetGeocodeKey(GeocodeKeyringAccount(cfg), "from-keyring"))

	c1 := cfg
	ResolveGeocodeKey(&c1)
	assert.Equal(t, "from-keyring", c1.Geocode.APIKey)

	c2 := cfg
	c2.Geocode.APIKey = "from-env"
	ResolveGeocodeKey(&c2)
	assert.Equal(t, "from-env", c2.Geocode.APIKey)
}
