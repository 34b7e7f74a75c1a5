// Package livefeed appends one synthetic sales record dated today on a fixed
// interval, so dashboards polling the API see the data move.
package livefeed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/geocoder89/bidashboard/internal/domain/metric"
	"github.com/geocoder89/bidashboard/internal/observability"
)

type Store interface {
	Insert(ctx context.Context, rec metric.Record) (metric.Record, error)
	Ping(ctx context.Context) error
}

// Invalidator retires cached aggregates in a cache shared with the API.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

type Config struct {
	Interval      time.Duration
	InsertTimeout time.Duration
}

type Feed struct {
	cfg   Config
	store Store
	cache Invalidator
	stats *observability.FeedStats
	prom  *observability.Prom
	rng   metric.Random
	now   func() time.Time
	log   *slog.Logger

	readyMu sync.RWMutex
	ready   bool
}

type Option func(*Feed)

// WithCache invalidates inv after every successful insert.
func WithCache(inv Invalidator) Option {
	return func(f *Feed) { f.cache = inv }
}

func WithProm(p *observability.Prom) Option {
	return func(f *Feed) { f.prom = p }
}

func WithRand(rng metric.Random) Option {
	return func(f *Feed) { f.rng = rng }
}

func WithClock(now func() time.Time) Option {
	return func(f *Feed) { f.now = now }
}

func New(cfg Config, store Store, log *slog.Logger, opts ...Option) *Feed {
	if cfg.Interval <= 0 {
		cfg.Interval = 8 * time.Second
	}
	if cfg.InsertTimeout <= 0 {
		cfg.InsertTimeout = 2 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}

	f := &Feed{
		cfg:   cfg,
		store: store,
		stats: observability.NewFeedStats(),
		rng:   metric.GlobalRandom{},
		now:   time.Now,
		log:   log,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

func (f *Feed) Stats() *observability.FeedStats {
	return f.stats
}

func (f *Feed) setReady(v bool) {
	f.readyMu.Lock()
	f.ready = v
	f.readyMu.Unlock()
}

func (f *Feed) isReady() bool {
	f.readyMu.RLock()
	defer f.readyMu.RUnlock()
	return f.ready
}

// Run inserts a record every interval until ctx is cancelled. After a failed insert
// the next attempt waits for Backoff instead, if that is longer.
func (f *Feed) Run(ctx context.Context) error {
	f.setReady(true)
	defer f.setReady(false)

	f.log.Info("live feed started", "interval", f.cfg.Interval.String())

	timer := time.NewTimer(f.cfg.Interval)
	defer timer.Stop()

	failures := 0

	for {
		select {
		case <-ctx.Done():
			f.log.Info("live feed received shutdown signal")
			return nil

		case <-timer.C:
			next := f.cfg.Interval

			if _, err := f.Step(ctx); err != nil {
				failures++
				if d := Backoff(failures, f.rng); d > next {
					next = d
				}
			} else {
				failures = 0
			}

			timer.Reset(next)
		}
	}
}

// Step inserts one record for today.
func (f *Feed) Step(ctx context.Context) (metric.Record, error) {
	start := time.Now()

	rec := metric.Synthesize(f.rng, metric.NewDay(f.now()), 1.0)

	insertCtx, cancel := context.WithTimeout(ctx, f.cfg.InsertTimeout)
	saved, err := f.store.Insert(insertCtx, rec)
	cancel()

	f.stats.ObserveTick(time.Since(start), err)
	f.prom.ObserveLiveFeed(err)

	if err != nil {
		f.log.ErrorContext(ctx, "live feed insert failed", "err", err)
		return metric.Record{}, err
	}

	if f.cache != nil {
		if err := f.cache.Invalidate(ctx); err != nil {
			f.log.WarnContext(ctx, "live feed cache invalidate failed", "err", err)
		}
	}

	f.log.DebugContext(ctx, "live feed inserted record",
		"id", saved.ID,
		"category", *rec.Category,
		"revenue", float64(saved.Revenue),
	)

	return saved, nil
}
