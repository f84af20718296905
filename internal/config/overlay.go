package config

import (
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvOverrides are the settings an operator may set without editing config.yml.
type EnvOverrides struct {
	Port          int    `env:"JOBMATCH_PORT"`
	DataDir       string `env:"JOBMATCH_DATA_DIR"`
	Env           string `env:"JOBMATCH_ENV"`
	LogLevel      string `env:"JOBMATCH_LOG_LEVEL"`
	GeocodeAPIKey string `env:"JOBMATCH_GEOCODE_API_KEY"`
	GeocodeURL    string `env:"JOBMATCH_GEOCODE_ENDPOINT"`
	RedisAddr     string `env:"JOBMATCH_REDIS_ADDR"`
}

// LoadEnvFiles loads whichever of files exist. Missing files are not an error.
func LoadEnvFiles(files ...string) (int, error) {
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

func ReadEnvOverrides() (EnvOverrides, error) {
	var o EnvOverrides
	err := env.Parse(&o)
	return o, err
}

// OverlayEnv applies the non-empty overrides onto cfg.
func OverlayEnv(cfg *Config, o EnvOverrides) {
	if o.Port > 0 {
		cfg.App.Port = o.Port
	}
	if s := strings.TrimSpace(o.DataDir); s != "" {
		cfg.App.DataDir = s
	}
	if s := strings.TrimSpace(o.Env); s != "" {
		cfg.App.Env = s
	}
	if s := strings.TrimSpace(o.LogLevel); s != "" {
		cfg.App.LogLevel = s
	}
	if s := strings.TrimSpace(o.GeocodeAPIKey); s != "" {
		cfg.Geocode.APIKey = s
	}
	if s := strings.TrimSpace(o.GeocodeURL); s != "" {
		cfg.Geocode.Endpoint = s
	}
	if s := strings.TrimSpace(o.RedisAddr); s != "" {
		cfg.Cache.RedisAddr = s
	}
}
