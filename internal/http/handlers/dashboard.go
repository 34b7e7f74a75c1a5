package handlers

import (
	"context"
	"encoding/csv"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/geocoder89/bidashboard/internal/cache"
	"github.com/geocoder89/bidashboard/internal/domain/metric"
	"github.com/geocoder89/bidashboard/internal/observability"
	"github.com/gin-gonic/gin"
)

var exportHeader = []string{"Date", "Revenue", "Units Sold", "Cost of Goods", "Profit", "Category", "Region"}

type DashboardHandler struct {
	metrics MetricsReader
	agg     aggregates
}

func NewDashboardHandler(metrics MetricsReader, store cache.Store, prom *observability.Prom) *DashboardHandler {
	return &DashboardHandler{
		metrics: metrics,
		agg:     newAggregates(store, prom),
	}
}

// Data lists at most metric.ListLimit rows for a mandatory date range.
func (h *DashboardHandler) Data(ctx *gin.Context) {
	f, err := filterFromQuery(ctx, true)
	if err != nil {
		RespondBadRequest(ctx, err.Error(), nil)
		return
	}

	rows, err := h.metrics.List(ctx.Request.Context(), f, metric.ListLimit)
	if err != nil {
		RespondInternal(ctx, "Failed to retrieve dashboard data.", err)
		return
	}

	RespondOK(ctx, http.StatusOK, "Dashboard data retrieved successfully.", rows)
}

func (h *DashboardHandler) Summary(ctx *gin.Context) {
	f, err := filterFromQuery(ctx, false)
	if err != nil {
		RespondBadRequest(ctx, err.Error(), nil)
		return
	}

	h.agg.serve(ctx, "summary", cache.FilterKey("summary", f), func(c context.Context) (any, error) {
		return h.metrics.Summary(c, f)
	})
}

// Filters reports the options across the whole table regardless of query params.
func (h *DashboardHandler) Filters(ctx *gin.Context) {
	h.agg.serve(ctx, "filters", "filters:v1", func(c context.Context) (any, error) {
		return h.metrics.FilterOptions(c)
	})
}

// Export streams every matching row as CSV, ignoring the listing cap.
func (h *DashboardHandler) Export(ctx *gin.Context) {
	f, err := filterFromQuery(ctx, false)
	if err != nil {
		RespondBadRequest(ctx, err.Error(), nil)
		return
	}

	rows, err := h.metrics.List(ctx.Request.Context(), f, 0)
	if err != nil {
		RespondInternal(ctx, "Failed to export data.", err)
		return
	}

	ctx.Header("Content-Type", "text/csv; charset=utf-8")
	ctx.Header("Content-Disposition", "attachment; filename=dashboard-export.csv")
	ctx.Status(http.StatusOK)

	if err := writeCSV(csv.NewWriter(ctx.Writer), rows); err != nil {
		// headers are already sent
		slog.Default().ErrorContext(ctx.Request.Context(), "export write failed", "err", err)
	}
}

func writeCSV(w *csv.Writer, rows []metric.Record) error {
	if err := w.Write(exportHeader); err != nil {
		return err
	}

	for _, r := range rows {
		err := w.Write([]string{
			r.Date.String(),
			money(r.Revenue),
			strconv.Itoa(r.UnitsSold),
			money(r.CostOfGoods),
			money(r.Profit),
			deref(r.Category),
			deref(r.Region),
		})
		if err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func money(m metric.Money) string {
	return strconv.FormatFloat(metric.Round2(float64(m)), 'f', 2, 64)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
