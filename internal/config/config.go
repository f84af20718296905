package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Port         int    `yaml:"port" json:"port"`
		DataDir      string `yaml:"data_dir" json:"data_dir"`
		Env          string `yaml:"env" json:"env"`
		LogLevel     string `yaml:"log_level" json:"log_level"`
		DefaultActor string `yaml:"default_actor" json:"default_actor"`
	} `yaml:"app" json:"app"`

	Import struct {
		ChunkSize              int     `yaml:"chunk_size" json:"chunk_size"`
		DefaultMinAge          int     `yaml:"default_min_age" json:"default_min_age"`
		DefaultMaxAge          int     `yaml:"default_max_age" json:"default_max_age"`
		DefaultExperienceYears float64 `yaml:"default_experience_years" json:"default_experience_years"`
		MaxUploadBytes         int64   `yaml:"max_upload_bytes" json:"max_upload_bytes"`
		SessionTTLMinutes      int     `yaml:"session_ttl_minutes" json:"session_ttl_minutes"`
		RunTimeoutMinutes      int     `yaml:"run_timeout_minutes" json:"run_timeout_minutes"`
	} `yaml:"import" json:"import"`

	Geocode struct {
		Provider       string `yaml:"provider" json:"provider"` // http | openai | none
		Endpoint       string `yaml:"endpoint" json:"endpoint"`
		DefaultCountry string `yaml:"default_country" json:"default_country"`
		IntervalMS     int    `yaml:"interval_ms" json:"interval_ms"`
		TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds"`
		OpenAIModel    string `yaml:"openai_model" json:"openai_model"`
		OpenAIBaseURL  string `yaml:"openai_base_url" json:"openai_base_url"`

		// APIKey never touches disk; it comes from env or the OS keyring.
		APIKey string `yaml:"-" json:"-"`
	} `yaml:"geocode" json:"geocode"`

	Gazetteer struct {
		SeedPath string `yaml:"seed_path" json:"seed_path"`
	} `yaml:"gazetteer" json:"gazetteer"`

	Cache struct {
		Backend    string `yaml:"backend" json:"backend"` // memory | redis
		RedisAddr  string `yaml:"redis_addr" json:"redis_addr"`
		RedisDB    int    `yaml:"redis_db" json:"redis_db"`
		TTLSeconds int    `yaml:"ttl_seconds" json:"ttl_seconds"`
	} `yaml:"cache" json:"cache"`

	Maintenance struct {
		ExpiredRetentionDays int `yaml:"expired_retention_days" json:"expired_retention_days"`
		CleanupIntervalHours int `yaml:"cleanup_interval_hours" json:"cleanup_interval_hours"`
	} `yaml:"maintenance" json:"maintenance"`
}

// Default mirrors config/config.yml.
func Default() Config {
	var c Config
	c.App.Port = 38471
	c.App.DataDir = "."
	c.App.Env = "development"
	c.App.LogLevel = "info"
	c.App.DefaultActor = "system"

	c.Import.ChunkSize = 50
	c.Import.DefaultMinAge = 18
	c.Import.DefaultMaxAge = 60
	c.Import.DefaultExperienceYears = 0
	c.Import.MaxUploadBytes = 5 << 20
	c.Import.SessionTTLMinutes = 60
	c.Import.RunTimeoutMinutes = 30

	c.Geocode.Provider = "none"
	c.Geocode.DefaultCountry = "Malaysia"
	c.Geocode.IntervalMS = 200
	c.Geocode.TimeoutSeconds = 20
	c.Geocode.OpenAIModel = "gpt-4o-mini"

	c.Gazetteer.SeedPath = "config/malaysia_locations.yml"

	c.Cache.Backend = "memory"
	c.Cache.TTLSeconds = 300

	c.Maintenance.ExpiredRetentionDays = 90
	c.Maintenance.CleanupIntervalHours = 24
	return c
}

// Load reads path on top of Default so older files pick up new keys.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}

func (c Config) GeocodeInterval() time.Duration {
	return time.Duration(c.Geocode.IntervalMS) * time.Millisecond
}

func (c Config) GeocodeTimeout() time.Duration {
	return time.Duration(c.Geocode.TimeoutSeconds) * time.Second
}

func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.Import.SessionTTLMinutes) * time.Minute
}

func (c Config) RunTimeout() time.Duration {
	return time.Duration(c.Import.RunTimeoutMinutes) * time.Minute
}

func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}
