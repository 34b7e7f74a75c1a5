package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/bidashboard/internal/cache"
	"github.com/geocoder89/bidashboard/internal/domain/metric"
	"github.com/geocoder89/bidashboard/internal/observability"
	"github.com/gin-gonic/gin"
)

// AdminHandler owns every mutation of dashboard_metrics. Each successful call
// invalidates the aggregate cache.
type AdminHandler struct {
	metrics MetricsWriter
	agg     aggregates
	prom    *observability.Prom
	rng     metric.Random
	now     func() time.Time
}

func NewAdminHandler(metrics MetricsWriter, store cache.Store, prom *observability.Prom, rng metric.Random, now func() time.Time) *AdminHandler {
	if now == nil {
		now = time.Now
	}
	if rng == nil {
		rng = metric.GlobalRandom{}
	}
	return &AdminHandler{
		metrics: metrics,
		agg:     newAggregates(store, prom),
		prom:    prom,
		rng:     rng,
		now:     now,
	}
}

func (h *AdminHandler) today() metric.Day {
	return metric.NewDay(h.now())
}

func (h *AdminHandler) done(ctx *gin.Context, op string, rows int64, err error) {
	h.prom.ObserveAdmin(op, rows, err)
	if err == nil {
		h.agg.invalidate(ctx.Request.Context())
	}
}

func (h *AdminHandler) AddRecord(ctx *gin.Context) {
	var req metric.AddRecordRequest

	if !BindJSON(ctx, &req) {
		return
	}

	rec, err := req.Record()
	if err != nil {
		RespondBadRequest(ctx, err.Error(), nil)
		return
	}

	saved, err := h.metrics.Insert(ctx.Request.Context(), rec)
	h.done(ctx, "add_record", 1, err)
	if err != nil {
		RespondInternal(ctx, "Failed to add record", err)
		return
	}

	RespondOK(ctx, http.StatusCreated, "Sales record added successfully", saved)
}

type generateResponse struct {
	Records    int     `json:"records"`
	Scenario   string  `json:"scenario"`
	Multiplier float64 `json:"multiplier"`
}

// GenerateData wipes the table and writes a fresh synthetic batch.
func (h *AdminHandler) GenerateData(ctx *gin.Context) {
	var req metric.GenerateRequest

	if !BindOptionalJSON(ctx, &req) {
		return
	}
	bulk := req.Normalize()

	rows, multiplier, err := metric.GenerateBulk(h.rng, h.today(), bulk.Records, bulk.Scenario)
	if err != nil {
		RespondBadRequest(ctx, "Invalid scenario. Available: "+strings.Join(metric.BulkModes(), ", "), nil)
		return
	}

	c := ctx.Request.Context()

	if _, err := h.metrics.DeleteAll(c); err != nil {
		h.done(ctx, "generate", 0, err)
		RespondInternal(ctx, "Failed to generate test data", err)
		return
	}

	n, err := h.metrics.InsertMany(c, rows)
	// the delete already happened, so the cache is stale either way
	h.agg.invalidate(c)
	h.prom.ObserveAdmin("generate", n, err)
	if err != nil {
		RespondInternal(ctx, "Failed to generate test data", err)
		return
	}

	RespondOK(ctx, http.StatusOK,
		fmt.Sprintf("Generated %d records with %s scenario", bulk.Records, bulk.Scenario),
		generateResponse{Records: bulk.Records, Scenario: bulk.Scenario, Multiplier: multiplier},
	)
}

type scenarioResponse struct {
	Scenario     string `json:"scenario"`
	Description  string `json:"description"`
	AffectedRows int64  `json:"affectedRows"`
}

func (h *AdminHandler) ApplyScenario(ctx *gin.Context) {
	var req metric.ScenarioRequest

	if !BindJSON(ctx, &req) {
		return
	}

	sc, err := metric.LookupScenario(req.Scenario)
	if err != nil {
		RespondBadRequest(ctx, "Invalid scenario. Available: "+strings.Join(metric.ScenarioNames(), ", "), nil)
		return
	}

	n, err := h.metrics.Scale(ctx.Request.Context(), sc.Scaling)
	h.done(ctx, "apply_scenario", n, err)
	if err != nil {
		RespondInternal(ctx, "Failed to apply scenario", err)
		return
	}

	RespondOK(ctx, http.StatusOK, "Applied scenario: "+sc.Description, scenarioResponse{
		Scenario:     sc.Name,
		Description:  sc.Description,
		AffectedRows: n,
	})
}

type resetResponse struct {
	Records int64 `json:"records"`
}

// ResetData restores the canonical 90-day sample.
func (h *AdminHandler) ResetData(ctx *gin.Context) {
	c := ctx.Request.Context()

	if _, err := h.metrics.DeleteAll(c); err != nil {
		h.done(ctx, "reset", 0, err)
		RespondInternal(ctx, "Failed to reset data", err)
		return
	}

	n, err := h.metrics.InsertMany(c, metric.GenerateSample(h.rng, h.today()))
	h.agg.invalidate(c)
	h.prom.ObserveAdmin("reset", n, err)
	if err != nil {
		RespondInternal(ctx, "Failed to reset data", err)
		return
	}

	RespondOK(ctx, http.StatusOK, "Data reset to default sample data", resetResponse{Records: n})
}

type modifyResponse struct {
	RevenueMultiplier float64 `json:"revenueMultiplier"`
	ProfitMultiplier  float64 `json:"profitMultiplier"`
	Category          string  `json:"category"`
	Region            string  `json:"region"`
	AffectedRows      int64   `json:"affectedRows"`
}

func (h *AdminHandler) ModifyData(ctx *gin.Context) {
	var req metric.ModifyRequest

	if !BindOptionalJSON(ctx, &req) {
		return
	}

	s := req.Scaling()

	n, err := h.metrics.Scale(ctx.Request.Context(), s)
	h.done(ctx, "modify", n, err)
	if err != nil {
		RespondInternal(ctx, "Failed to modify data", err)
		return
	}

	RespondOK(ctx, http.StatusOK,
		fmt.Sprintf("Data modified with multipliers: Revenue ×%g, Profit ×%g", s.RevenueMultiplier, s.ProfitMultiplier),
		modifyResponse{
			RevenueMultiplier: s.RevenueMultiplier,
			ProfitMultiplier:  s.ProfitMultiplier,
			Category:          orAll(s.Category),
			Region:            orAll(s.Region),
			AffectedRows:      n,
		},
	)
}

func orAll(s *string) string {
	if s == nil {
		return "all"
	}
	return *s
}
