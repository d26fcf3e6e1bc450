// Package main provides the entry point for botcore-server.
//
// botcore-server is the resource-management core for a bot service:
// bounded per-domain concurrency, named LRU+TTL caches, a sharded
// storage router with failover, and session lifecycle management.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/seralo/botcore/internal/cache"
	"github.com/seralo/botcore/internal/concurrency"
	"github.com/seralo/botcore/internal/core/domain"
	"github.com/seralo/botcore/internal/core/service"
	"github.com/seralo/botcore/internal/infra/buildinfo"
	"github.com/seralo/botcore/internal/infra/confloader"
	"github.com/seralo/botcore/internal/infra/shutdown"
	"github.com/seralo/botcore/internal/router"
	"github.com/seralo/botcore/internal/server/config"
	"github.com/seralo/botcore/internal/storage"
	"github.com/seralo/botcore/internal/storage/memory"
	"github.com/seralo/botcore/internal/telemetry/logger"
	"github.com/seralo/botcore/internal/telemetry/metric"
)

func main() {
	app := &cli.App{
		Name:    "botcore-server",
		Usage:   "bot service resource-management core",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file (YAML)",
				EnvVars: []string{"BOTCORE_CONFIG"},
			},
		},
		Action: serve,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func serve(c *cli.Context) error {
	configFile := c.String("config")

	cfg, err := loadConfig(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)
	slogLogger := logger.Slog(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})

	log.Info("starting botcore-server",
		"version", buildinfo.Version,
		"commit", buildinfo.Commit,
		"config", configFile)

	reg := metric.NewRegistry()

	// Admission controller.
	ctrl, err := concurrency.NewController(concurrency.Config{
		Limits:       toInt64Limits(cfg.Concurrency.Limits),
		DefaultLimit: int64(cfg.Concurrency.DefaultLimit),
	}, log)
	if err != nil {
		return fmt.Errorf("init controller: %w", err)
	}
	ctrl.RegisterMetrics(reg)

	// Named caches plus the session cache.
	caches := cache.NewRegistry()
	for name, inst := range cfg.Cache.Instances {
		caches.GetOrCreate(cache.Config{
			Name:       name,
			Capacity:   inst.Capacity,
			DefaultTTL: inst.DefaultTTL,
		})
	}
	sessionCache := caches.GetOrCreate(cache.Config{
		Name:     "session",
		Capacity: cfg.Session.CacheCapacity,
	})
	if err := reg.Register(metric.NewCacheCollector(caches)); err != nil {
		return fmt.Errorf("register cache collector: %w", err)
	}

	// Storage shards and the router.
	backends, err := openShards(&cfg.Storage, slogLogger)
	if err != nil {
		return fmt.Errorf("open shards: %w", err)
	}
	rt, err := router.New(router.Config{
		SizeCeilingBytes: cfg.Storage.SizeCeilingBytes,
		AutoSwitch:       cfg.Storage.AutoSwitch,
		StatsWindow:      cfg.Storage.StatsWindow,
		MaxRetries:       cfg.Storage.MaxRetries,
		RetryBaseDelay:   cfg.Storage.RetryBaseDelay,
	}, backends, ctrl, log)
	if err != nil {
		return fmt.Errorf("init router: %w", err)
	}
	rt.RegisterMetrics(reg)

	// Session lifecycle manager.
	sessions, err := service.NewSessionManager(sessionCache, toSessionTTLs(cfg.Session.TTL), log)
	if err != nil {
		return fmt.Errorf("init session manager: %w", err)
	}

	// Background sweepers.
	cacheSweeper := cache.NewSweeper(caches, cfg.Cache.SweepInterval, log)
	cacheSweeper.Start()
	sessionSweeper := service.NewSessionSweeper(sessionCache, cfg.Session.SweepInterval, log)
	sessionSweeper.Start()

	// Metrics and ops endpoint.
	var metricsSrv *metric.Server
	if cfg.Metrics.Enabled {
		metricsSrv = metric.NewServer(cfg.Metrics.Addr, reg, log)
		metricsSrv.Handle("/healthz", healthzHandler(rt))
		metricsSrv.Handle("/stats", statsHandler(ctrl, rt, caches))
		metricsSrv.Handle("/sessions", sessionsHandler(sessions))
		metricsSrv.Start()
	}

	// Live reload of concurrency limits on config file change.
	var watcher *confloader.Watcher
	if configFile != "" {
		watcher, err = confloader.NewWatcher(confloader.WithWatcherLogger(log))
		if err != nil {
			return fmt.Errorf("init config watcher: %w", err)
		}
		if err := watcher.Watch(configFile); err != nil {
			return fmt.Errorf("watch config: %w", err)
		}
		watcher.OnChange(func(path string) {
			fresh, err := loadConfig(configFile)
			if err != nil {
				log.Error("config reload failed", "path", path, "error", err)
				return
			}
			ctrl.ApplyLimits(toInt64Limits(fresh.Concurrency.Limits))
			logger.SetLevel(fresh.Log.Level)
			log.Info("configuration reloaded", "path", path)
		})
		watcher.StartAsync()
	}

	// Shutdown hooks run in reverse order of registration.
	handler := shutdown.NewHandler(30*time.Second, log)
	handler.OnShutdown("controller", func(ctx context.Context) error {
		ctrl.Close()
		return nil
	})
	handler.OnShutdown("router", func(ctx context.Context) error {
		return rt.Close()
	})
	handler.OnShutdown("sweepers", func(ctx context.Context) error {
		cacheSweeper.Stop()
		sessionSweeper.Stop()
		return nil
	})
	if metricsSrv != nil {
		handler.OnShutdown("metrics", func(ctx context.Context) error {
			return metricsSrv.Shutdown(ctx)
		})
	}
	if watcher != nil {
		handler.OnShutdown("config-watcher", func(ctx context.Context) error {
			return watcher.Stop()
		})
	}

	log.Info("botcore-server ready",
		"shards", len(backends),
		"caches", len(caches.Names()),
		"metrics", cfg.Metrics.Enabled)

	return handler.Wait()
}

// loadConfig layers defaults, the optional YAML file, and BOTCORE_*
// environment variables, then validates the result.
func loadConfig(path string) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{}
	if path != "" {
		opts = append(opts, confloader.WithConfigFile(path))
	}
	loader := confloader.NewLoader(opts...)
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openShards builds the shard backends in routing order. In-memory
// mode swaps Badger for ephemeral shards.
func openShards(cfg *config.StorageSection, slogLogger *slog.Logger) ([]router.Backend, error) {
	backends := make([]router.Backend, 0, len(cfg.Shards))
	for _, shard := range cfg.Shards {
		if cfg.InMemory {
			backends = append(backends, memory.NewShard(shard.Name))
			continue
		}
		b, err := storage.NewBadgerShard(storage.BadgerConfig{
			Name:       shard.Name,
			Dir:        shard.Dir,
			SyncWrites: cfg.SyncWrites,
		}, slogLogger)
		if err != nil {
			for _, opened := range backends {
				opened.Close()
			}
			return nil, err
		}
		backends = append(backends, b)
	}
	return backends, nil
}

func toInt64Limits(limits map[string]int) map[string]int64 {
	out := make(map[string]int64, len(limits))
	for name, limit := range limits {
		out[name] = int64(limit)
	}
	return out
}

func toSessionTTLs(ttls map[string]time.Duration) map[domain.SessionKind]time.Duration {
	out := make(map[domain.SessionKind]time.Duration, len(ttls))
	for kind, ttl := range ttls {
		out[domain.SessionKind(kind)] = ttl
	}
	return out
}
