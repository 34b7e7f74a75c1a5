package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/bidashboard/internal/cache"
	"github.com/geocoder89/bidashboard/internal/domain/metric"
	"github.com/geocoder89/bidashboard/internal/observability"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

type AnalyticsHandler struct {
	metrics MetricsReader
	agg     aggregates
	rng     metric.Random
	now     func() time.Time
}

func NewAnalyticsHandler(metrics MetricsReader, store cache.Store, prom *observability.Prom, rng metric.Random, now func() time.Time) *AnalyticsHandler {
	if now == nil {
		now = time.Now
	}
	if rng == nil {
		rng = metric.GlobalRandom{}
	}
	return &AnalyticsHandler{
		metrics: metrics,
		agg:     newAggregates(store, prom),
		rng:     rng,
		now:     now,
	}
}

func (h *AnalyticsHandler) today() metric.Day {
	return metric.NewDay(h.now())
}

// Growth compares the current calendar month or week with the one before it.
func (h *AnalyticsHandler) Growth(ctx *gin.Context) {
	period, err := metric.ParsePeriod(ctx.Query("period"))
	if err != nil {
		RespondBadRequest(ctx, "Invalid period parameter", gin.H{"allowed": []metric.Period{metric.PeriodMonth, metric.PeriodWeek}})
		return
	}

	today := h.today()
	key := "growth:v1:" + string(period) + ":" + today.String()

	h.agg.serve(ctx, "growth", key, func(c context.Context) (any, error) {
		curFilter, prevFilter := period.Filters(today)

		var cur, prev metric.Summary
		g, gctx := errgroup.WithContext(c)

		g.Go(func() (err error) {
			cur, err = h.metrics.Summary(gctx, curFilter)
			return
		})
		g.Go(func() (err error) {
			prev, err = h.metrics.Summary(gctx, prevFilter)
			return
		})

		if err := g.Wait(); err != nil {
			return nil, err
		}

		return metric.NewGrowth(period, metric.TotalsFrom(cur), metric.TotalsFrom(prev)), nil
	})
}

// Trends ranks categories by revenue over the trailing 30 days.
func (h *AnalyticsHandler) Trends(ctx *gin.Context) {
	f := metric.TrendFilter(h.today())

	h.agg.serve(ctx, "trends", cache.FilterKey("trends", f), func(c context.Context) (any, error) {
		rows, err := h.metrics.CategoryTrends(c, f)
		if err != nil {
			return nil, err
		}
		return metric.NewTrendReport(rows), nil
	})
}

// Forecast is randomized on every call, so it bypasses the cache.
func (h *AnalyticsHandler) Forecast(ctx *gin.Context) {
	today := h.today()

	history, err := h.metrics.DailyRevenue(ctx.Request.Context(), metric.HistoryFilter(today))
	if err != nil {
		RespondInternal(ctx, "Failed to generate forecast", err)
		return
	}

	RespondOK(ctx, http.StatusOK, "", metric.ForecastReport{
		Historical: history,
		Forecast:   metric.Forecast(history, today, h.rng),
	})
}
