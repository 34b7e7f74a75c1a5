package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/bidashboard/internal/cache"
	"github.com/geocoder89/bidashboard/internal/config"
	"github.com/geocoder89/bidashboard/internal/db"
	"github.com/geocoder89/bidashboard/internal/livefeed"
	"github.com/geocoder89/bidashboard/internal/observability"
	"github.com/geocoder89/bidashboard/internal/repo/postgres"
	"github.com/prometheus/client_golang/prometheus"
)

const serviceName = "bidashboard-livefeed"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.Env, serviceName)

	if cfg.Store != config.StorePostgres {
		log.Error("live feed needs STORE=postgres; an in-memory store is private to the API process")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	defer stop()

	pool, err := db.NewPool(ctx, cfg.DBURL, 2)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		log.Error("schema init failed", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	opts := []livefeed.Option{livefeed.WithProm(prom)}

	// only a shared cache can be invalidated from here
	if cfg.RedisAddr != "" {
		rc := cache.NewRedis(cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, cfg.CacheTTL)
		defer rc.Close()

		opts = append(opts, livefeed.WithCache(rc))
	}

	feed := livefeed.New(livefeed.Config{
		Interval:      cfg.LiveFeedEvery,
		InsertTimeout: 2 * time.Second,
	}, postgres.NewMetricsRepo(pool, prom), log, opts...)

	mux := http.NewServeMux()
	mux.Handle("/metrics", prom.Handler())
	mux.Handle("/", feed.HealthHandler())

	healthSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WorkerHealthPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("worker health server starting", "port", cfg.WorkerHealthPort)
		if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("health server failed", "err", err)
		}
	}()

	log.Info("worker has started")

	if err := feed.Run(ctx); err != nil {
		log.Error("worker stopped with error", "err", err)
	}

	shutdownCtx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("health server shutdown failed", "err", err)
	}

	log.Info("worker shutdown complete", "stats", feed.Stats().Snapshot())
}
