package httpapi

import (
	"context"
	"database/sql"
	"sync/atomic"
	"time"

	"jobmatch-engine/internal/cache"
	"jobmatch-engine/internal/config"
	"jobmatch-engine/internal/events"
	"jobmatch-engine/internal/jobimport"
	"jobmatch-engine/internal/moderation"
	"jobmatch-engine/internal/store"
)

type Deps struct {
	DB *sql.DB

	Hub *events.Hub

	// Atomic stores
	CfgVal *atomic.Value // stores config.Config

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)

	Sessions   *jobimport.Sessions
	Views      *cache.JobViews
	Moderation *moderation.Service
	ImportLock *store.ImportLock // nil disables cross-process locking

	// Builds the AI stage from the live config (inject for testability).
	NewAIResolver func(cfg config.Config) (*jobimport.AIResolver, error)

	// Parent context for background import runs; cancelled on shutdown.
	Background context.Context

	Now func() time.Time
}

func (d Deps) cfg() config.Config {
	return d.CfgVal.Load().(config.Config)
}

func (d Deps) background() context.Context {
	if d.Background != nil {
		return d.Background
	}
	return context.Background()
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}
