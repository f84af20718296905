package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"jobmatch-engine/internal/config"
	"jobmatch-engine/internal/geocode"
	"jobmatch-engine/internal/logger"
	"jobmatch-engine/internal/secrets"
	"jobmatch-engine/internal/store"
)

// The MCP server exposes the bulk importer to assistants over stdio. It
// shares the engine's data dir, database and import lock.
func main() {
	if _, err := config.LoadEnvFiles(".env", ".env.local"); err != nil {
		log.Fatalf("env files: %v", err)
	}
	overrides, err := config.ReadEnvOverrides()
	if err != nil {
		log.Fatalf("env overrides: %v", err)
	}
	dataDir := overrides.DataDir
	if dataDir == "" {
		dataDir = "."
	}

	userCfgPath, err := config.EnsureUserConfig(dataDir, filepath.Join("config", "config.yml"))
	if err != nil {
		log.Fatalf("config bootstrap failed: %v", err)
	}
	cfg, err := config.Load(userCfgPath)
	if err != nil {
		log.Fatalf("config load failed (%s): %v", userCfgPath, err)
	}
	config.OverlayEnv(&cfg, overrides)
	secrets.ResolveGeocodeKey(&cfg)

	// stdout carries the protocol; zap writes to stderr.
	zl, err := logger.Initialize(cfg.App.Env, cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	d, err := store.Open(filepath.Join(dataDir, "jobmatch.db"))
	if err != nil {
		zap.L().Fatal("open db", zap.Error(err))
	}
	defer d.Close()
	if err := store.Migrate(d.Pool); err != nil {
		zap.L().Fatal("migrate", zap.Error(err))
	}

	limiter := geocode.NewHostLimiter(cfg.GeocodeInterval())
	ts := &toolset{
		jobs:    store.Jobs{DB: d.Pool},
		cfg:     cfg,
		lock:    store.NewImportLock(dataDir),
		limiter: limiter,
	}

	s := server.NewMCPServer("jobmatch-importer", "1.0.0")
	ts.register(s)

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
