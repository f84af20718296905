package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"

	"jobmatch-engine/internal/cache"
	"jobmatch-engine/internal/config"
	"jobmatch-engine/internal/events"
	"jobmatch-engine/internal/geocode"
	"jobmatch-engine/internal/httpapi"
	"jobmatch-engine/internal/jobimport"
	"jobmatch-engine/internal/logger"
	"jobmatch-engine/internal/moderation"
	"jobmatch-engine/internal/scheduler"
	"jobmatch-engine/internal/secrets"
	"jobmatch-engine/internal/store"
)

const sessionSweepEvery = 5 * time.Minute

func main() {
	if _, err := config.LoadEnvFiles(".env", ".env.local"); err != nil {
		log.Fatalf("env files: %v", err)
	}
	overrides, err := config.ReadEnvOverrides()
	if err != nil {
		log.Fatalf("env overrides: %v", err)
	}

	// Engine data dir: use env if provided, else local folder.
	dataDir := overrides.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatal(err)
	}

	defaultCfgPath := filepath.Join("config", "config.yml")
	userCfgPath, err := config.EnsureUserConfig(dataDir, defaultCfgPath)
	if err != nil {
		log.Fatalf("config bootstrap failed: %v", err)
	}

	// Load config and keep it reloadable
	var cfgVal atomic.Value // stores config.Config
	loadCfg := func() (config.Config, error) {
		cfg, err := config.Load(userCfgPath)
		if err != nil {
			return cfg, err
		}
		config.OverlayEnv(&cfg, overrides)
		cfg, vr := config.NormalizeAndValidate(cfg)
		if !vr.OK() {
			return cfg, config.Validate(cfg)
		}
		secrets.ResolveGeocodeKey(&cfg)
		return cfg, nil
	}
	cfg, err := loadCfg()
	if err != nil {
		log.Fatalf("config load failed (%s): %v", userCfgPath, err)
	}
	cfgVal.Store(cfg)

	zl, err := logger.Initialize(cfg.App.Env, cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPath := filepath.Join(dataDir, "jobmatch.db")
	d, err := store.Open(dbPath)
	if err != nil {
		zap.L().Fatal("open db", zap.String("path", dbPath), zap.Error(err))
	}
	defer d.Close()
	db := d.Pool

	if err := store.Migrate(db); err != nil {
		zap.L().Fatal("migrate", zap.Error(err))
	}
	if n, err := store.SeedLocations(ctx, db, cfg.Gazetteer.SeedPath); err != nil {
		zap.L().Warn("gazetteer seed failed", zap.String("path", cfg.Gazetteer.SeedPath), zap.Error(err))
	} else if n > 0 {
		zap.L().Info("gazetteer seeded", zap.Int("locations", n))
	}

	views := cache.NewJobViews(openCache(ctx, cfg), cfg.CacheTTL())

	hub := events.NewHub()
	sessions := jobimport.NewSessions(store.Jobs{DB: db})

	limiter := geocode.NewHostLimiter(cfg.GeocodeInterval())
	newAIResolver := func(cfg config.Config) (*jobimport.AIResolver, error) {
		g, host, err := geocode.FromConfig(cfg)
		if err != nil {
			return nil, err
		}
		limiter.SetInterval(cfg.GeocodeInterval())
		return &jobimport.AIResolver{Geocoder: g, Throttle: limiter.For(host), Country: cfg.Geocode.DefaultCountry}, nil
	}

	go scheduler.Every(ctx, sessionSweepEvery, "import-session-sweep", func(ctx context.Context) error {
		cur := cfgVal.Load().(config.Config)
		if n := sessions.Sweep(cur.SessionTTL()); n > 0 {
			zap.L().Info("import sessions expired", zap.Int("count", n))
		}
		return nil
	})
	if cfg.Maintenance.CleanupIntervalHours > 0 {
		every := time.Duration(cfg.Maintenance.CleanupIntervalHours) * time.Hour
		go scheduler.Every(ctx, every, "expired-jobs-cleanup", func(ctx context.Context) error {
			cur := cfgVal.Load().(config.Config)
			n, err := store.CleanupExpiredJobs(ctx, db, time.Now(), cur.Maintenance.ExpiredRetentionDays)
			if err != nil {
				return err
			}
			if n > 0 {
				zap.L().Info("expired jobs removed", zap.Int64("count", n))
				if err := views.InvalidateJobs(ctx); err != nil {
					return fmt.Errorf("invalidate job views: %w", err)
				}
				hub.Emit("", events.TypeJobDeleted, map[string]any{"count": n})
			}
			return nil
		})
	}

	mux := httpapi.NewMux(httpapi.Deps{
		DB:            db,
		Hub:           hub,
		CfgVal:        &cfgVal,
		UserCfgPath:   userCfgPath,
		LoadCfg:       loadCfg,
		Sessions:      sessions,
		Views:         views,
		Moderation:    &moderation.Service{DB: db},
		ImportLock:    store.NewImportLock(dataDir),
		NewAIResolver: newAIResolver,
		Background:    ctx,
	})

	token, err := randomToken(32)
	if err != nil {
		zap.L().Fatal("shutdown token", zap.Error(err))
	}
	tokenPath := filepath.Join(dataDir, "engine.token")
	if err := os.WriteFile(tokenPath, []byte(token), 0o600); err != nil {
		zap.L().Fatal("write shutdown token", zap.String("path", tokenPath), zap.Error(err))
	}
	defer os.Remove(tokenPath)

	srv := &http.Server{
		Handler: httpapi.Chain(mux,
			httpapi.RequestID,
			httpapi.Recover,
			httpapi.AccessLog,
			httpapi.Cors,
			httpapi.Actor,
		),
		ReadHeaderTimeout: 5 * time.Second,
	}
	mux.HandleFunc("/shutdown", shutdownHandler(&token, srv))

	// Bind to a predictable local port.
	addr := fmt.Sprintf("127.0.0.1:%d", cfg.App.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		zap.L().Fatal("listen", zap.String("addr", addr), zap.Error(err))
	}
	zap.L().Info("engine listening",
		zap.String("addr", "http://"+addr), zap.String("db", dbPath), zap.String("config", userCfgPath),
		zap.String("geocoder", cfg.Geocode.Provider), zap.String("cache", cfg.Cache.Backend))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		zap.L().Fatal("serve", zap.Error(err))
	}
	zap.L().Info("engine stopped")
}

// openCache picks the configured backend, falling back to memory when
// redis is unreachable.
func openCache(ctx context.Context, cfg config.Config) cache.Store {
	if cfg.Cache.Backend != "redis" {
		return cache.NewMemory()
	}
	rc := cache.NewRedis(cfg.Cache.RedisAddr, cfg.Cache.RedisDB)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx); err != nil {
		zap.L().Warn("redis unavailable, using in-memory cache", zap.String("addr", cfg.Cache.RedisAddr), zap.Error(err))
		_ = rc.Close()
		return cache.NewMemory()
	}
	return rc
}
