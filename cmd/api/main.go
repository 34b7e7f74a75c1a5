package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/bidashboard/internal/auth"
	"github.com/geocoder89/bidashboard/internal/cache"
	"github.com/geocoder89/bidashboard/internal/config"
	"github.com/geocoder89/bidashboard/internal/db"
	"github.com/geocoder89/bidashboard/internal/domain/metric"
	httpx "github.com/geocoder89/bidashboard/internal/http"
	"github.com/geocoder89/bidashboard/internal/http/handlers"
	"github.com/geocoder89/bidashboard/internal/observability"
	"github.com/geocoder89/bidashboard/internal/repo/memory"
	"github.com/geocoder89/bidashboard/internal/repo/postgres"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const serviceName = "bidashboard-api"

func main() {
	// Load the config set up
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// start up the observability logger
	log := observability.NewLogger(cfg.Env, serviceName)
	slog.SetDefault(log)

	if cfg.JWTSecretIsFallback {
		log.Warn("JWT_SECRET is not set, signing tokens with the built-in fallback secret")
	}

	ctx := context.Background()

	shutdownTracer, err := observability.InitTracer(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	users, metrics, closeStore, err := openStores(ctx, cfg, prom)
	if err != nil {
		log.Error("store init failed", "store", cfg.Store, "err", err)
		os.Exit(1)
	}
	defer closeStore()

	seeded, err := db.EnsureSampleData(ctx, metrics, metric.GlobalRandom{}, metric.Today())
	if err != nil {
		log.Error("sample data seeding failed", "err", err)
		os.Exit(1)
	}
	if seeded > 0 {
		log.Info("seeded sample data", "rows", seeded)
	}

	responseCache, closeCache := openCache(ctx, cfg, log)
	defer closeCache()

	// set up routers with the log
	router := httpx.NewRouter(log, cfg, httpx.Dependencies{
		Users:   users,
		Metrics: metrics,
		Cache:   responseCache,
		Tokens:  auth.NewManager(cfg.JWTSecret, cfg.TokenTTL),
		Prom:    prom,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.Store)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}

		if err := shutdownTracer(ctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}

// openStores returns the user and metrics stores for cfg.Store. The postgres stores
// get their schema created on the way up.
func openStores(ctx context.Context, cfg config.Config, prom *observability.Prom) (handlers.UserStore, handlers.MetricsStore, func(), error) {
	if cfg.Store == config.StoreMemory {
		return memory.NewUsersRepo(), memory.NewMetricsRepo(), func() {}, nil
	}

	pool, err := db.NewPool(ctx, cfg.DBURL, int32(cfg.DBMaxConns))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("db connect: %w", err)
	}

	if err := db.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, nil, err
	}

	return postgres.NewUsersRepo(pool, prom), postgres.NewMetricsRepo(pool, prom), pool.Close, nil
}

// openCache prefers Redis when configured and reachable, otherwise an in-process
// cache. A zero TTL disables caching.
func openCache(ctx context.Context, cfg config.Config, log *slog.Logger) (cache.Store, func()) {
	if cfg.CacheTTL <= 0 {
		return cache.Nop{}, func() {}
	}

	if cfg.RedisAddr == "" {
		return cache.New(cfg.CacheTTL), func() {}
	}

	rc := cache.NewRedis(cache.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, cfg.CacheTTL)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := rc.Ping(pingCtx); err != nil {
		log.Warn("redis unreachable, using in-process cache", "addr", cfg.RedisAddr, "err", err)
		_ = rc.Close()
		return cache.New(cfg.CacheTTL), func() {}
	}

	return rc, func() { _ = rc.Close() }
}
