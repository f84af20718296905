package config

import (
	"fmt"
	"net/url"
	"strings"
)

// maxChunkSize matches store.MaxRowsPerInsert: SQLite's 32766 bound
// variables over 18 columns per job row.
const maxChunkSize = 1820

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy plus any problems found.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	out.App.Env = strings.ToLower(strings.TrimSpace(out.App.Env))
	out.App.LogLevel = strings.ToLower(strings.TrimSpace(out.App.LogLevel))
	out.App.DefaultActor = strings.TrimSpace(out.App.DefaultActor)
	out.Geocode.Provider = strings.ToLower(strings.TrimSpace(out.Geocode.Provider))
	out.Geocode.Endpoint = strings.TrimSpace(out.Geocode.Endpoint)
	out.Geocode.DefaultCountry = strings.TrimSpace(out.Geocode.DefaultCountry)
	out.Cache.Backend = strings.ToLower(strings.TrimSpace(out.Cache.Backend))

	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}
	switch out.App.Env {
	case "", "development", "production":
	default:
		res.addErr("app.env must be development or production (got %q)", out.App.Env)
	}
	switch out.App.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		res.addErr("app.log_level must be debug, info, warn or error (got %q)", out.App.LogLevel)
	}
	if out.App.DefaultActor == "" {
		res.addWarn("app.default_actor is empty; imported rows will have a blank last_edited_by unless X-Actor-ID is sent.")
	}

	// import
	if out.Import.ChunkSize <= 0 {
		res.addErr("import.chunk_size must be > 0")
	} else if out.Import.ChunkSize > maxChunkSize {
		res.addErr("import.chunk_size must be <= %d (got %d)", maxChunkSize, out.Import.ChunkSize)
	} else if out.Import.ChunkSize > 500 {
		res.addWarn("import.chunk_size is large (%d); a failed chunk rolls back more rows.", out.Import.ChunkSize)
	}
	if out.Import.DefaultMinAge < 0 || out.Import.DefaultMaxAge < 0 {
		res.addErr("import.default_min_age and import.default_max_age must be >= 0")
	}
	if out.Import.DefaultMinAge > out.Import.DefaultMaxAge {
		res.addWarn("import.default_min_age (%d) is above import.default_max_age (%d).", out.Import.DefaultMinAge, out.Import.DefaultMaxAge)
	}
	if out.Import.DefaultExperienceYears < 0 {
		res.addErr("import.default_experience_years must be >= 0")
	}
	if out.Import.MaxUploadBytes <= 0 {
		res.addErr("import.max_upload_bytes must be > 0")
	}
	if out.Import.SessionTTLMinutes <= 0 {
		res.addErr("import.session_ttl_minutes must be > 0")
	}
	if out.Import.RunTimeoutMinutes <= 0 {
		res.addErr("import.run_timeout_minutes must be > 0")
	}

	// geocode
	switch out.Geocode.Provider {
	case "none":
	case "http":
		if out.Geocode.Endpoint == "" {
			res.addErr("geocode.endpoint is required when geocode.provider=http")
		} else if u, err := url.Parse(out.Geocode.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
			res.addErr("geocode.endpoint is not a valid URL: %q", out.Geocode.Endpoint)
		}
	case "openai":
		if strings.TrimSpace(out.Geocode.OpenAIModel) == "" {
			res.addErr("geocode.openai_model is required when geocode.provider=openai")
		}
	default:
		res.addErr("geocode.provider must be http, openai or none (got %q)", out.Geocode.Provider)
	}
	if out.Geocode.DefaultCountry == "" {
		out.Geocode.DefaultCountry = "Malaysia"
	}
	if out.Geocode.IntervalMS < 0 {
		res.addErr("geocode.interval_ms must be >= 0")
	} else if out.Geocode.IntervalMS < 100 && out.Geocode.Provider != "none" {
		res.addWarn("geocode.interval_ms is very low (%d) and may trip provider rate limits.", out.Geocode.IntervalMS)
	}
	if out.Geocode.TimeoutSeconds <= 0 {
		res.addErr("geocode.timeout_seconds must be > 0")
	}

	if strings.TrimSpace(out.Gazetteer.SeedPath) == "" {
		res.addWarn("gazetteer.seed_path is empty; local location matching needs a seeded malaysia_locations table.")
	}

	// cache
	switch out.Cache.Backend {
	case "", "memory":
	case "redis":
		if strings.TrimSpace(out.Cache.RedisAddr) == "" {
			res.addErr("cache.redis_addr is required when cache.backend=redis")
		}
	default:
		res.addErr("cache.backend must be memory or redis (got %q)", out.Cache.Backend)
	}
	if out.Cache.TTLSeconds <= 0 {
		res.addErr("cache.ttl_seconds must be > 0")
	}

	if out.Maintenance.ExpiredRetentionDays <= 0 {
		res.addErr("maintenance.expired_retention_days must be > 0")
	}
	if out.Maintenance.CleanupIntervalHours <= 0 {
		res.addErr("maintenance.cleanup_interval_hours must be > 0")
	}

	return out, res
}
